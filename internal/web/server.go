package web

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"loose-ends/internal/auth"
	"loose-ends/internal/repository"
	"loose-ends/internal/service"
)

// loginStateTTL bounds how long a user may take on the provider's consent page.
const loginStateTTL = 10 * time.Minute

// Deps are the collaborators the HTTP layer delegates to.
type Deps struct {
	Tasks       *service.TaskService
	Boards      *service.BoardService
	Stats       *service.StatsService
	Users       *repository.UserRepository
	LoginStates *repository.LoginStateRepository
	Provider    auth.Provider
	Log         *zap.Logger
	Now         func() time.Time
}

// Options tune sessions, locale and rate limiting.
type Options struct {
	// SessionKey is a base64 AES key, see auth.DeriveKey.
	SessionKey      string
	SecureCookies   bool
	DefaultLocation *time.Location
	DefaultLocale   string
	LimiterMax      int
	LimiterWindow   time.Duration
	// LimiterStorage keeps limiter counters; nil means in memory.
	LimiterStorage fiber.Storage
}

// Server serves the board, the mutation endpoints and the sign in flow.
type Server struct {
	app      *fiber.App
	deps     Deps
	opts     Options
	log      *zap.Logger
	validate *validator.Validate
}

func New(deps Deps, opts Options) (*Server, error) {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if opts.DefaultLocation == nil {
		opts.DefaultLocation = time.UTC
	}
	if opts.DefaultLocale == "" {
		opts.DefaultLocale = "en"
	}
	if opts.SessionKey == "" {
		return nil, errors.New("session key is required")
	}

	s := &Server{
		deps:     deps,
		opts:     opts,
		log:      deps.Log.Named("http"),
		validate: validator.New(),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "loose-ends",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           60 * time.Second,
	})

	s.app.Use(recover.New())
	s.app.Use(requestLogger(s.log))
	s.app.Use(encryptcookie.New(encryptcookie.Config{Key: opts.SessionKey}))
	s.app.Use(loadSession)

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	limit := s.rateLimiter()

	s.app.Get("/", s.handleIndex)

	s.app.Get("/auth/github", s.handleAuthRedirect)
	s.app.Post("/auth/github", limit, s.handleAuthStart)
	s.app.Get("/auth/github/callback", s.handleAuthCallback)
	s.app.Get("/signout", s.handleSignOut)

	todos := s.app.Group("/todos", requireUser)
	todos.Get("", s.handleBoard)
	todos.Post("", limit, s.handleMutation)
	todos.Post("/preview", s.handlePreview)

	s.app.Get("/stats", requireUser, s.handleStats)

	account := s.app.Group("/account", requireUser)
	account.Get("", s.handleAccount)
	account.Post("", limit, s.handleMutation)
	account.Post("/zone", limit, s.handleZone)
}

// App exposes the underlying fiber app, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.log.Info("listening", zap.String("addr", addr))
	if err := s.app.Listen(addr); err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}
