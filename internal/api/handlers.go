package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mailreactor/mailreactor/pkg/models"
)

type endpointRequest struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	TLS  string `json:"tls"`
}

type addAccountRequest struct {
	Email  string           `json:"email"`
	Secret string           `json:"secret"`
	IMAP   *endpointRequest `json:"imap,omitempty"`
	SMTP   *endpointRequest `json:"smtp,omitempty"`
}

func (r endpointRequest) toModel() models.Endpoint {
	return models.Endpoint{Host: r.Host, Port: r.Port, TLS: models.TLSMode(r.TLS)}
}

func (s *Server) handleAddAccount(c *fiber.Ctx) error {
	var req addAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, models.Errf(models.KindConfiguration, "", "invalid request body"))
	}

	creds := models.AccountCredentials{Email: req.Email, Secret: req.Secret}
	if req.IMAP != nil {
		creds.Profile.IMAP = req.IMAP.toModel()
	}
	if req.SMTP != nil {
		creds.Profile.SMTP = req.SMTP.toModel()
	}

	if err := s.gw.AddAccount(c.Context(), creds); err != nil {
		return s.fail(c, err)
	}
	if err := s.store.SaveAccount(c.Context(), creds); err != nil {
		s.logger.Error("failed to persist account", "email", creds.Email, "error", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"email": creds.Email})
}

func (s *Server) handleRemoveAccount(c *fiber.Ctx) error {
	email := c.Params("email")
	if err := s.gw.RemoveAccount(c.Context(), email); err != nil {
		return s.fail(c, err)
	}
	if err := s.store.DeleteAccount(c.Context(), email); err != nil {
		s.logger.Error("failed to delete persisted account", "email", email, "error", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type updateSecretRequest struct {
	Secret string `json:"secret"`
}

func (s *Server) handleUpdateSecret(c *fiber.Ctx) error {
	email := c.Params("email")
	var req updateSecretRequest
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, models.Errf(models.KindConfiguration, email, "invalid request body"))
	}
	if err := s.gw.UpdateSecret(c.Context(), email, req.Secret); err != nil {
		return s.fail(c, err)
	}
	if err := s.store.UpdateSecret(c.Context(), email, req.Secret); err != nil {
		s.logger.Error("failed to persist rotated secret", "email", email, "error", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	email := c.Params("email")
	state, ok := s.gw.Status(email)
	if !ok {
		return s.fail(c, models.Errf(models.KindNotFound, email, "no such account"))
	}
	return c.JSON(fiber.Map{"email": email, "state": state})
}

func (s *Server) handleListMessages(c *fiber.Ctx) error {
	email := c.Params("email")

	q := models.MessageQuery{
		Folder:     c.Query("folder"),
		UnseenOnly: c.QueryBool("unseen"),
		Sender:     c.Query("sender"),
		MaxResults: c.QueryInt("limit", 50),
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			t, err = time.Parse("2006-01-02", since)
		}
		if err != nil {
			return s.fail(c, models.Errf(models.KindConfiguration, email, "invalid since date %q", since))
		}
		q.Since = t
	}

	summaries, err := s.gw.ListMessages(c.Context(), email, q)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"messages": summaries, "count": len(summaries)})
}

func (s *Server) handleFetchMessage(c *fiber.Ctx) error {
	email := c.Params("email")
	uid, err := strconv.ParseUint(c.Params("uid"), 10, 32)
	if err != nil {
		return s.fail(c, models.Errf(models.KindConfiguration, email, "invalid message uid"))
	}

	body, err := s.gw.FetchMessage(c.Context(), email, c.Query("folder"), uint32(uid))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(body)
}

type sendMessageRequest struct {
	To          []string            `json:"to"`
	Cc          []string            `json:"cc,omitempty"`
	Bcc         []string            `json:"bcc,omitempty"`
	Subject     string              `json:"subject"`
	Text        string              `json:"text,omitempty"`
	HTML        string              `json:"html,omitempty"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

func (s *Server) handleSendMessage(c *fiber.Ctx) error {
	email := c.Params("email")
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, models.Errf(models.KindConfiguration, email, "invalid request body"))
	}

	msg := models.ComposedMessage{
		To:          req.To,
		Cc:          req.Cc,
		Bcc:         req.Bcc,
		Subject:     req.Subject,
		Text:        req.Text,
		HTML:        req.HTML,
		Attachments: req.Attachments,
	}
	messageID, err := s.gw.SendMessage(c.Context(), email, msg)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message_id": messageID})
}
