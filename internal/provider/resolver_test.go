package provider

import (
	"testing"

	"github.com/mailreactor/mailreactor/pkg/models"
)

func TestResolveKnownDomain(t *testing.T) {
	profile, ok := Resolve("user@gmail.com")
	if !ok {
		t.Fatal("expected gmail.com to resolve")
	}
	if profile.IMAP.Host != "imap.gmail.com" || profile.IMAP.Port != 993 {
		t.Fatalf("unexpected IMAP endpoint: %+v", profile.IMAP)
	}
	if profile.SMTP.Host != "smtp.gmail.com" || profile.SMTP.Port != 587 {
		t.Fatalf("unexpected SMTP endpoint: %+v", profile.SMTP)
	}
	if profile.IMAP.TLS != models.TLSImplicit || profile.SMTP.TLS != models.TLSStartTLS {
		t.Fatalf("unexpected TLS modes: imap=%s smtp=%s", profile.IMAP.TLS, profile.SMTP.TLS)
	}
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	if _, ok := Resolve("user@GMail.Com"); !ok {
		t.Fatal("expected mixed-case domain to resolve")
	}
}

func TestResolveUnknownDomainIsNotAnError(t *testing.T) {
	profile, ok := Resolve("user@example.org")
	if ok {
		t.Fatal("expected unknown domain to be unresolved")
	}
	if !profile.IsZero() {
		t.Fatalf("expected zero profile for unknown domain, got %+v", profile)
	}
}

func TestResolveMalformedAddress(t *testing.T) {
	for _, email := range []string{"", "nodomain", "user@", "@domain.com", "a@b@c"} {
		if _, ok := Resolve(email); ok {
			t.Fatalf("expected %q not to resolve", email)
		}
	}
}

func TestValidateAcceptsKnownProfiles(t *testing.T) {
	for domain, profile := range knownProviders {
		if err := Validate(profile); err != nil {
			t.Fatalf("known profile for %s failed validation: %v", domain, err)
		}
	}
}

func TestValidateRejectsInconsistentSettings(t *testing.T) {
	cases := []struct {
		name    string
		profile models.ProviderProfile
	}{
		{
			name: "missing imap host",
			profile: models.ProviderProfile{
				IMAP: models.Endpoint{Port: 993, TLS: models.TLSImplicit},
				SMTP: models.Endpoint{Host: "smtp.example.org", Port: 465, TLS: models.TLSImplicit},
			},
		},
		{
			name: "tls on plaintext port",
			profile: models.ProviderProfile{
				IMAP: models.Endpoint{Host: "imap.example.org", Port: 143, TLS: models.TLSImplicit},
				SMTP: models.Endpoint{Host: "smtp.example.org", Port: 465, TLS: models.TLSImplicit},
			},
		},
		{
			name: "plaintext on implicit tls port",
			profile: models.ProviderProfile{
				IMAP: models.Endpoint{Host: "imap.example.org", Port: 993, TLS: models.TLSImplicit},
				SMTP: models.Endpoint{Host: "smtp.example.org", Port: 465, TLS: models.TLSNone},
			},
		},
		{
			name: "port out of range",
			profile: models.ProviderProfile{
				IMAP: models.Endpoint{Host: "imap.example.org", Port: 0, TLS: models.TLSImplicit},
				SMTP: models.Endpoint{Host: "smtp.example.org", Port: 465, TLS: models.TLSImplicit},
			},
		},
		{
			name: "unknown tls mode",
			profile: models.ProviderProfile{
				IMAP: models.Endpoint{Host: "imap.example.org", Port: 1993, TLS: "ssl3"},
				SMTP: models.Endpoint{Host: "smtp.example.org", Port: 465, TLS: models.TLSImplicit},
			},
		},
	}

	for _, tc := range cases {
		err := Validate(tc.profile)
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if !models.IsKind(err, models.KindConfiguration) {
			t.Fatalf("%s: expected configuration error, got %v", tc.name, err)
		}
	}
}
