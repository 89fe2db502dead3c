// Package server exposes the verifier over HTTP.
package server

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/optimode/mailprobe"
	"github.com/optimode/mailprobe/internal/candidate"
)

// DefaultMaxBatch caps /api/verify-emails when Options.MaxBatch is zero.
const DefaultMaxBatch = 500

// Verifier is the subset of *mailprobe.Verifier the handlers need.
type Verifier interface {
	VerifyBatch(ctx context.Context, emails []string) ([]mailprobe.Result, error)
	VerifyPerson(ctx context.Context, p mailprobe.Person) ([]mailprobe.Result, error)
}

// Options configures a Server. Zero values fall back to DefaultMaxBatch
// and logrus.StandardLogger().
type Options struct {
	MaxBatch int
	Logger   logrus.FieldLogger
}

// Server is the HTTP front end of a Verifier.
type Server struct {
	app      *fiber.App
	verifier Verifier
	log      logrus.FieldLogger
	maxBatch int
}

// New builds the fiber app and registers the routes.
func New(v Verifier, opts Options) *Server {
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = DefaultMaxBatch
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	s := &Server{
		verifier: v,
		log:      opts.Logger,
		maxBatch: opts.MaxBatch,
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "mailprobe",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(cors.New())
	s.app.Use(s.logRequests)

	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	api := s.app.Group("/api")
	api.Post("/find-emails", s.findEmails)
	api.Post("/verify-emails", s.verifyEmails)
	return s
}

// App returns the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error { return s.app.ShutdownWithContext(ctx) }

type findEmailsRequest struct {
	FirstName string `json:"firstName" validate:"required_without=FullName"`
	LastName  string `json:"lastName" validate:"required_without=FullName"`
	FullName  string `json:"fullName"`
	Domain    string `json:"domain" validate:"required,fqdn"`
}

type verifyEmailsRequest struct {
	Emails []string `json:"emails" validate:"required,min=1"`
}

func (s *Server) findEmails(c *fiber.Ctx) error {
	var req findEmailsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Domain = strings.TrimSpace(req.Domain)
	if err := validateStruct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.FirstName == "" || req.LastName == "" {
		first, last := candidate.SplitFullName(req.FullName)
		if req.FirstName == "" {
			req.FirstName = first
		}
		if req.LastName == "" {
			req.LastName = last
		}
	}
	if req.FirstName == "" || req.LastName == "" {
		return badRequest(c, "fullName must contain a first and a last name")
	}

	results, err := s.verifier.VerifyPerson(c.UserContext(), mailprobe.Person{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Domain:    req.Domain,
	})
	if err != nil {
		return s.verifyFailed(c, err)
	}
	return ok(c, results)
}

func (s *Server) verifyEmails(c *fiber.Ctx) error {
	var req verifyEmailsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validateStruct(&req); err != nil {
		return badRequest(c, err.Error())
	}
	if len(req.Emails) > s.maxBatch {
		return badRequest(c, "emails must have at most "+strconv.Itoa(s.maxBatch)+" entries")
	}

	results, err := s.verifier.VerifyBatch(c.UserContext(), req.Emails)
	if err != nil {
		return s.verifyFailed(c, err)
	}
	return ok(c, results)
}

func ok(c *fiber.Ctx, results []mailprobe.Result) error {
	if results == nil {
		results = []mailprobe.Result{}
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"totalFound": len(results),
		"results":    results,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

// verifyFailed maps a Verify* error onto the response. An unavailable SMTP
// channel is a 503 so clients can tell it apart from a server fault.
func (s *Server) verifyFailed(c *fiber.Ctx, err error) error {
	var unavailable *mailprobe.UnavailableError
	if errors.As(err, &unavailable) || errors.Is(err, mailprobe.ErrUnavailable) {
		fields := logrus.Fields{"path": c.Path(), "error": err}
		if unavailable != nil {
			fields["mx_host"] = unavailable.Host
			fields["reason"] = unavailable.Reason
		}
		s.log.WithFields(fields).Warn("smtp channel unavailable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"reason":  "smtp_unavailable",
			"message": "outbound SMTP is unavailable, results cannot be trusted",
		})
	}

	s.log.WithFields(logrus.Fields{"path": c.Path(), "error": err}).Error("verification failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "internal server error",
	})
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.log.WithFields(logrus.Fields{"path": c.Path(), "error": err}).Error("request failed")
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
	})
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
	}
	s.log.WithFields(logrus.Fields{
		"method":   c.Method(),
		"path":     c.Path(),
		"status":   status,
		"duration": time.Since(start).String(),
	}).Info("request")
	return err
}
