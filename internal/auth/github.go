package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

// ErrMissingCode is returned when the provider redirected back without a code.
var ErrMissingCode = errors.New("missing authorization code")

// Identity is the account a provider vouched for.
type Identity struct {
	ID    string
	Login string
	Name  string
}

// Provider runs the authorization-code flow against an identity provider.
type Provider interface {
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (Identity, error)
}

// GitHubProvider signs users in with their GitHub account.
type GitHubProvider struct {
	config  *oauth2.Config
	apiBase *url.URL
}

func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user"},
			Endpoint:     githuboauth.Endpoint,
		},
	}
}

// WithEndpoints points the provider at another OAuth server and REST API,
// such as GitHub Enterprise.
func (p *GitHubProvider) WithEndpoints(authURL, tokenURL, apiURL string) (*GitHubProvider, error) {
	base, err := url.Parse(strings.TrimSuffix(apiURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	cfg := *p.config
	cfg.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
	return &GitHubProvider{config: &cfg, apiBase: base}, nil
}

func (p *GitHubProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Identify exchanges the code for a token and loads the authenticated user.
func (p *GitHubProvider) Identify(ctx context.Context, code string) (Identity, error) {
	if code == "" {
		return Identity{}, ErrMissingCode
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("exchange code: %w", err)
	}

	client := github.NewClient(p.config.Client(ctx, token))
	if p.apiBase != nil {
		client.BaseURL = p.apiBase
	}

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return Identity{}, fmt.Errorf("get github user: %w", err)
	}
	if user.GetID() == 0 {
		return Identity{}, errors.New("github user without id")
	}

	return Identity{
		ID:    strconv.FormatInt(user.GetID(), 10),
		Login: user.GetLogin(),
		Name:  user.GetName(),
	}, nil
}
