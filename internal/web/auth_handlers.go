package web

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"loose-ends/internal/auth"
)

func (s *Server) handleAuthRedirect(c *fiber.Ctx) error {
	return c.Redirect("/")
}

// handleAuthStart issues a one-shot state and sends the browser to the provider.
func (s *Server) handleAuthStart(c *fiber.Ctx) error {
	state, err := s.deps.LoginStates.Issue(c.UserContext(), s.deps.Now(), loginStateTTL)
	if err != nil {
		return err
	}
	return c.Redirect(s.deps.Provider.AuthCodeURL(state))
}

// handleAuthCallback completes the sign in. Every failure lands back on the
// sign in page.
func (s *Server) handleAuthCallback(c *fiber.Ctx) error {
	ctx := c.UserContext()
	log := s.log.With(zap.String("ip", c.IP()))

	if reason := c.Query("error"); reason != "" {
		log.Info("sign in declined", zap.String("reason", reason))
		return c.Redirect("/")
	}

	if err := s.deps.LoginStates.Consume(ctx, c.Query("state"), s.deps.Now()); err != nil {
		log.Warn("sign in with unknown state", zap.Error(err))
		return c.Redirect("/")
	}

	identity, err := s.deps.Provider.Identify(ctx, c.Query("code"))
	if err != nil {
		log.Warn("identify user", zap.Error(err))
		return c.Redirect("/")
	}

	user, err := s.deps.Users.UpsertFromGitHub(ctx, identity.ID, identity.Login, identity.Name)
	if err != nil {
		log.Error("upsert user", zap.Error(err))
		return c.Redirect("/")
	}

	// Keep the timezone of an earlier session.
	prev, _ := currentSession(c)
	if err := s.writeSession(c, auth.Session{UserID: user.ID, Name: user.DisplayName(), Timezone: prev.Timezone}); err != nil {
		log.Error("write session", zap.Error(err))
		return c.Redirect("/")
	}

	log.Info("signed in", zap.String("user", user.ID))
	return c.Redirect("/todos")
}

func (s *Server) handleSignOut(c *fiber.Ctx) error {
	s.clearSession(c)
	return c.Redirect("/")
}
