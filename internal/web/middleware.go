package web

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis/v3"
	"go.uber.org/zap"

	"loose-ends/internal/auth"
)

const sessionKey = "session"

// requestLogger logs one line per request once the handler chain is done.
func requestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		log.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		)
		return err
	}
}

// loadSession decodes the session cookie, if any, into the request locals.
// Cookies that fail to decrypt arrive empty and are treated as signed out.
func loadSession(c *fiber.Ctx) error {
	if sess, err := auth.Decode(c.Cookies(auth.CookieName)); err == nil {
		c.Locals(sessionKey, sess)
	}
	return c.Next()
}

func currentSession(c *fiber.Ctx) (auth.Session, bool) {
	sess, ok := c.Locals(sessionKey).(auth.Session)
	return sess, ok
}

// requireUser sends anonymous visitors back to the sign in page.
func requireUser(c *fiber.Ctx) error {
	if _, ok := currentSession(c); !ok {
		return c.Redirect("/")
	}
	return c.Next()
}

func (s *Server) writeSession(c *fiber.Ctx, sess auth.Session) error {
	value, err := auth.Encode(sess)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		Secure:   s.opts.SecureCookies,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Locals(sessionKey, sess)
	return nil
}

func (s *Server) clearSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		Secure:   s.opts.SecureCookies,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// rateLimiter limits mutation routes per signed in user, or per IP before sign in.
func (s *Server) rateLimiter() fiber.Handler {
	if s.opts.LimiterMax <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	window := s.opts.LimiterWindow
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        s.opts.LimiterMax,
		Expiration: window,
		Storage:    s.opts.LimiterStorage,
		KeyGenerator: func(c *fiber.Ctx) string {
			if sess, ok := currentSession(c); ok {
				return "user:" + sess.UserID
			}
			return "ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too Many Requests"})
		},
	})
}

// NewLimiterStorage connects limiter counters to Redis so that several
// instances share one budget per user.
func NewLimiterStorage(url string) fiber.Storage {
	return redis.New(redis.Config{
		URL:   url,
		Reset: false,
	})
}
