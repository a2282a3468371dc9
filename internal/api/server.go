// Package api maps the gateway facade onto a REST surface. Protocol failures
// never pass through raw; every handler returns a classified error kind and
// the matching HTTP status.
package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/mailreactor/mailreactor/pkg/models"
)

// Gateway is the facade contract the REST layer consumes.
type Gateway interface {
	AddAccount(ctx context.Context, creds models.AccountCredentials) error
	RemoveAccount(ctx context.Context, email string) error
	UpdateSecret(ctx context.Context, email, secret string) error
	ListMessages(ctx context.Context, email string, q models.MessageQuery) ([]models.MessageSummary, error)
	FetchMessage(ctx context.Context, email, folder string, uid uint32) (*models.MessageBody, error)
	SendMessage(ctx context.Context, email string, msg models.ComposedMessage) (string, error)
	Status(email string) (string, bool)
}

// AccountStore persists accounts across restarts.
type AccountStore interface {
	SaveAccount(ctx context.Context, creds models.AccountCredentials) error
	UpdateSecret(ctx context.Context, email, secret string) error
	DeleteAccount(ctx context.Context, email string) error
}

// Server is the HTTP front of the gateway.
type Server struct {
	app    *fiber.App
	gw     Gateway
	store  AccountStore
	logger *slog.Logger
}

// NewServer wires routes onto a fresh Fiber app.
func NewServer(gw Gateway, store AccountStore, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	s := &Server{
		app:    app,
		gw:     gw,
		store:  store,
		logger: logger.With("component", "api"),
	}

	api := app.Group("/api")
	api.Post("/accounts", s.handleAddAccount)
	api.Delete("/accounts/:email", s.handleRemoveAccount)
	api.Put("/accounts/:email/secret", s.handleUpdateSecret)
	api.Get("/accounts/:email/status", s.handleStatus)
	api.Get("/accounts/:email/messages", s.handleListMessages)
	api.Get("/accounts/:email/messages/:uid", s.handleFetchMessage)
	api.Post("/accounts/:email/messages", s.handleSendMessage)

	return s
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// statusForKind maps the closed error kind set onto HTTP statuses.
func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.KindAuthentication:
		return fiber.StatusUnauthorized
	case models.KindNotFound:
		return fiber.StatusNotFound
	case models.KindConfiguration:
		return fiber.StatusBadRequest
	case models.KindConnection, models.KindProtocol:
		return fiber.StatusBadGateway
	case models.KindTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// fail renders a classified error as JSON.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	var gerr *models.GatewayError
	if !errors.As(err, &gerr) {
		gerr = models.Errf(models.KindInternal, "", "internal gateway error")
	}
	return c.Status(statusForKind(gerr.Kind)).JSON(fiber.Map{
		"error": fiber.Map{
			"kind":    gerr.Kind,
			"message": gerr.Message,
		},
	})
}
