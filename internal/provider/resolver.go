// Package provider maps email domains to connection parameters for known
// providers. Resolution is a pure lookup: no network probes, no shared state,
// safe from any number of concurrent callers.
package provider

import (
	"strings"

	"github.com/mailreactor/mailreactor/pkg/models"
)

func tls(host string, port int) models.Endpoint {
	return models.Endpoint{Host: host, Port: port, TLS: models.TLSImplicit}
}

func starttls(host string, port int) models.Endpoint {
	return models.Endpoint{Host: host, Port: port, TLS: models.TLSStartTLS}
}

// Connection settings for popular email providers, keyed by address domain.
var knownProviders = map[string]models.ProviderProfile{
	"gmail.com":      {IMAP: tls("imap.gmail.com", 993), SMTP: starttls("smtp.gmail.com", 587)},
	"googlemail.com": {IMAP: tls("imap.gmail.com", 993), SMTP: starttls("smtp.gmail.com", 587)},
	"outlook.com":    {IMAP: tls("outlook.office365.com", 993), SMTP: starttls("smtp-mail.outlook.com", 587)},
	"hotmail.com":    {IMAP: tls("outlook.office365.com", 993), SMTP: starttls("smtp-mail.outlook.com", 587)},
	"live.com":       {IMAP: tls("outlook.office365.com", 993), SMTP: starttls("smtp-mail.outlook.com", 587)},
	"msn.com":        {IMAP: tls("outlook.office365.com", 993), SMTP: starttls("smtp-mail.outlook.com", 587)},
	"yahoo.com":      {IMAP: tls("imap.mail.yahoo.com", 993), SMTP: tls("smtp.mail.yahoo.com", 465)},
	"yahoo.co.uk":    {IMAP: tls("imap.mail.yahoo.com", 993), SMTP: tls("smtp.mail.yahoo.com", 465)},
	"icloud.com":     {IMAP: tls("imap.mail.me.com", 993), SMTP: starttls("smtp.mail.me.com", 587)},
	"me.com":         {IMAP: tls("imap.mail.me.com", 993), SMTP: starttls("smtp.mail.me.com", 587)},
	"mac.com":        {IMAP: tls("imap.mail.me.com", 993), SMTP: starttls("smtp.mail.me.com", 587)},
	"aol.com":        {IMAP: tls("imap.aol.com", 993), SMTP: tls("smtp.aol.com", 465)},
	"zoho.com":       {IMAP: tls("imap.zoho.com", 993), SMTP: tls("smtp.zoho.com", 465)},
	"fastmail.com":   {IMAP: tls("imap.fastmail.com", 993), SMTP: tls("smtp.fastmail.com", 465)},
	"gmx.com":        {IMAP: tls("imap.gmx.com", 993), SMTP: tls("mail.gmx.com", 465)},
	"gmx.de":         {IMAP: tls("imap.gmx.net", 993), SMTP: tls("mail.gmx.net", 465)},
	"web.de":         {IMAP: tls("imap.web.de", 993), SMTP: tls("smtp.web.de", 465)},
	"yandex.ru":      {IMAP: tls("imap.yandex.ru", 993), SMTP: tls("smtp.yandex.ru", 465)},
	"yandex.com":     {IMAP: tls("imap.yandex.com", 993), SMTP: tls("smtp.yandex.com", 465)},
	"mail.ru":        {IMAP: tls("imap.mail.ru", 993), SMTP: tls("smtp.mail.ru", 465)},
	"bk.ru":          {IMAP: tls("imap.mail.ru", 993), SMTP: tls("smtp.mail.ru", 465)},
	"list.ru":        {IMAP: tls("imap.mail.ru", 993), SMTP: tls("smtp.mail.ru", 465)},
	"inbox.ru":       {IMAP: tls("imap.mail.ru", 993), SMTP: tls("smtp.mail.ru", 465)},
}

// Resolve looks up the domain portion of an email address in the table of
// known providers. The second return value is false when the domain is
// unknown; that is not an error, the caller must then supply explicit
// settings.
func Resolve(email string) (models.ProviderProfile, bool) {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[1] == "" {
		return models.ProviderProfile{}, false
	}
	profile, ok := knownProviders[strings.ToLower(parts[1])]
	return profile, ok
}
