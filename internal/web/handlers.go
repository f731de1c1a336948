package web

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"loose-ends/internal/auth"
	"loose-ends/internal/command"
	"loose-ends/internal/planner"
	"loose-ends/internal/service"
	"loose-ends/internal/timeutil"
)

// mutationKeys are the form fields a command may carry.
var mutationKeys = []string{"command", "id", "title", "checked"}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	if _, ok := currentSession(c); ok {
		return c.Redirect("/todos")
	}
	return c.JSON(fiber.Map{"providers": []string{"github"}})
}

func (s *Server) handleBoard(c *fiber.Ctx) error {
	return s.renderBoard(c, nil)
}

type previewRequest struct {
	Pending []map[string]any `json:"pending"`
}

// handlePreview renders the board as it will look once the given commands
// are confirmed. Nothing is written.
func (s *Server) handlePreview(c *fiber.Ctx) error {
	var req previewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid preview body"})
	}

	pending := planner.PendingOf()
	for _, raw := range req.Pending {
		values, err := previewValues(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "command": command.Unknown})
		}
		cmd, err := command.Decode(values)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "command": command.Unknown})
		}
		targeted, ok := cmd.(command.Targeted)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "only task commands can be previewed",
				"command": cmd.Name(),
			})
		}
		pending.Track(targeted)
	}

	return s.renderBoard(c, pending)
}

// previewValues flattens one pending command into form values. Only strings
// and booleans are accepted; null counts as an absent key.
func previewValues(raw map[string]any) (map[string]string, error) {
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case nil:
		case string:
			values[k] = v
		case bool:
			values[k] = strconv.FormatBool(v)
		default:
			return nil, fmt.Errorf("%s: expected a string or boolean", k)
		}
	}
	return values, nil
}

func (s *Server) renderBoard(c *fiber.Ctx, pending planner.Pending) error {
	sess, _ := currentSession(c)
	view, err := s.deps.Boards.Board(c.UserContext(), sess.UserID, s.day(sess), s.locale(c), pending)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// handleMutation runs one command from a form post and maps the outcome to a
// status code.
func (s *Server) handleMutation(c *fiber.Ctx) error {
	sess, _ := currentSession(c)

	result, err := s.deps.Tasks.Execute(c.UserContext(), sess.UserID, formValues(c, mutationKeys))
	if err != nil {
		var cmdErr *service.CommandError
		if !errors.As(err, &cmdErr) {
			return err
		}
		s.log.Debug("command rejected",
			zap.String("user", sess.UserID),
			zap.String("command", string(cmdErr.Command)),
			zap.Stringer("kind", cmdErr.Kind),
			zap.Error(cmdErr.Err),
		)
		switch cmdErr.Kind {
		case service.KindInvalid:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": cmdErr.Err.Error(), "command": command.Unknown})
		case service.KindNotFound:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not Found", "command": cmdErr.Command})
		default:
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": cmdErr.Err.Error(), "command": cmdErr.Command})
		}
	}

	if result.EndSession {
		s.clearSession(c)
		s.log.Info("account deleted", zap.String("user", sess.UserID))
	}
	return c.JSON(fiber.Map{
		"data":    fiber.Map{"id": result.ID},
		"command": result.Command,
	})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	var scopes service.Scopes
	if err := c.QueryParser(&scopes); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	sess, _ := currentSession(c)
	stats, err := s.deps.Stats.Stats(c.UserContext(), sess.UserID, scopes, s.day(sess))
	if err != nil {
		var scopeErr *service.ScopeError
		if errors.As(err, &scopeErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": scopeErr.Error()})
		}
		return err
	}
	return c.JSON(stats)
}

func (s *Server) handleAccount(c *fiber.Ctx) error {
	sess, _ := currentSession(c)
	return c.JSON(fiber.Map{"user": fiber.Map{"name": sess.Name}})
}

type zoneRequest struct {
	Timezone string `form:"timezone" validate:"required,timezone"`
}

// handleZone stores the browser's timezone in the session so that "today"
// follows the user's clock.
func (s *Server) handleZone(c *fiber.Ctx) error {
	var req zoneRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("invalid timezone %q", req.Timezone)})
	}

	sess, _ := currentSession(c)
	sess.Timezone = req.Timezone
	if err := s.writeSession(c, sess); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

// day resolves "today" for the session's timezone.
func (s *Server) day(sess auth.Session) timeutil.Day {
	return timeutil.NewDay(s.deps.Now(), timeutil.LoadLocation(sess.Timezone, s.opts.DefaultLocation))
}

func (s *Server) locale(c *fiber.Ctx) string {
	if c.Get(fiber.HeaderAcceptLanguage) == "" {
		return s.opts.DefaultLocale
	}
	if lang := c.AcceptsLanguages("en", "ru"); lang != "" {
		return lang
	}
	return s.opts.DefaultLocale
}

// formValues collects the keys present in a url-encoded or multipart body.
// Absent keys stay absent so that decoding can tell "missing" from "empty".
func formValues(c *fiber.Ctx, keys []string) map[string]string {
	values := make(map[string]string, len(keys))

	if form, err := c.MultipartForm(); err == nil {
		for _, key := range keys {
			if v, ok := form.Value[key]; ok && len(v) > 0 {
				values[key] = v[0]
			}
		}
		return values
	}

	args := c.Request().PostArgs()
	for _, key := range keys {
		if args.Has(key) {
			values[key] = string(args.Peek(key))
		}
	}
	return values
}
