package models

import (
	"fmt"
	"log/slog"
	"strings"
)

// TLSMode describes how a connection to a mail endpoint is secured.
type TLSMode string

const (
	// TLSImplicit negotiates TLS from the first byte (IMAPS/SMTPS).
	TLSImplicit TLSMode = "tls"
	// TLSStartTLS upgrades a plaintext connection via STARTTLS.
	TLSStartTLS TLSMode = "starttls"
	// TLSNone uses a plaintext connection. Only sensible for local bridges.
	TLSNone TLSMode = "none"
)

// Endpoint is one host/port/TLS triple for a mail protocol server.
type Endpoint struct {
	Host string
	Port int
	TLS  TLSMode
}

// Addr returns the endpoint in host:port form.
func (e Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// IsZero reports whether the endpoint has not been set.
func (e Endpoint) IsZero() bool {
	return e.Host == "" && e.Port == 0
}

// ProviderProfile holds the connection parameters for one email provider,
// IMAP and SMTP independently. It is derived data with no lifecycle of its
// own: resolved from a domain table or supplied explicitly by the caller.
type ProviderProfile struct {
	IMAP Endpoint
	SMTP Endpoint
}

// IsZero reports whether neither endpoint has been set.
func (p ProviderProfile) IsZero() bool {
	return p.IMAP.IsZero() && p.SMTP.IsZero()
}

// AccountCredentials identifies one mail account on the gateway. The email
// address is the identity key, unique per gateway instance.
type AccountCredentials struct {
	Email   string
	Secret  string
	Profile ProviderProfile
}

// Domain returns the lowercased domain portion of the account address, or ""
// if the address is not of the form local@domain.
func (c AccountCredentials) Domain() string {
	parts := strings.Split(c.Email, "@")
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	return strings.ToLower(parts[1])
}

// String never exposes the secret.
func (c AccountCredentials) String() string {
	return fmt.Sprintf("AccountCredentials(%s)", c.Email)
}

// LogValue keeps the secret out of log records.
func (c AccountCredentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("email", c.Email),
		slog.String("imap", c.Profile.IMAP.Addr()),
		slog.String("smtp", c.Profile.SMTP.Addr()),
	)
}
