package gateway

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/emersion/go-smtp"

	"github.com/mailreactor/mailreactor/pkg/models"
)

// Classify maps a raw failure onto the closed set of API error kinds.
// Components that know what happened (dialers, the pool, the translator)
// return typed errors already; everything else lands here before reaching the
// caller. Unclassified errors become KindInternal with a fixed message so a
// raw cause string can never leak.
func Classify(email string, err error) *models.GatewayError {
	if err == nil {
		return nil
	}

	var gerr *models.GatewayError
	if errors.As(err, &gerr) {
		if gerr.Email == "" && email != "" {
			return &models.GatewayError{Kind: gerr.Kind, Email: email, Message: gerr.Message}
		}
		return gerr
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.Errf(models.KindTimeout, email, "operation timed out")
	}

	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) {
		if smtpErr.Code == 535 || smtpErr.Code == 530 {
			return models.Errf(models.KindAuthentication, email, "credentials rejected by server")
		}
		return models.Errf(models.KindProtocol, email, "server rejected command: %s", smtpErr.Message)
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		if nerr.Timeout() {
			return models.Errf(models.KindTimeout, email, "network operation timed out")
		}
		return models.Errf(models.KindConnection, email, "connection failed: %v", nerr)
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return models.Errf(models.KindConnection, email, "connection closed by server")
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") || strings.Contains(msg, "credential"):
		return models.Errf(models.KindAuthentication, email, "credentials rejected by server")
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") || strings.Contains(msg, "closed"):
		return models.Errf(models.KindConnection, email, "connection failed")
	case strings.Contains(msg, "parse") || strings.Contains(msg, "malformed") || strings.Contains(msg, "unexpected"):
		return models.Errf(models.KindProtocol, email, "malformed server response")
	}

	return models.Errf(models.KindInternal, email, "internal gateway error")
}
