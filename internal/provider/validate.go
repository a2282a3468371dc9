package provider

import (
	"github.com/mailreactor/mailreactor/pkg/models"
)

// Conventional plaintext and implicit-TLS ports. Used only to reject
// settings that contradict themselves, not to guess missing values.
var plainPorts = map[int]bool{143: true, 25: true, 587: true}
var implicitTLSPorts = map[int]bool{993: true, 465: true}

// Validate checks a profile for internal consistency. Unknown domains are
// never an error; only user-supplied settings that contradict themselves are.
func Validate(p models.ProviderProfile) error {
	if err := validateEndpoint("imap", p.IMAP); err != nil {
		return err
	}
	return validateEndpoint("smtp", p.SMTP)
}

func validateEndpoint(proto string, e models.Endpoint) error {
	if e.Host == "" {
		return models.Errf(models.KindConfiguration, "", "%s host is required", proto)
	}
	if e.Port < 1 || e.Port > 65535 {
		return models.Errf(models.KindConfiguration, "", "%s port %d is out of range", proto, e.Port)
	}
	switch e.TLS {
	case models.TLSImplicit:
		if plainPorts[e.Port] {
			return models.Errf(models.KindConfiguration, "",
				"%s TLS requested but plaintext port %d given", proto, e.Port)
		}
	case models.TLSStartTLS, models.TLSNone:
		if implicitTLSPorts[e.Port] {
			return models.Errf(models.KindConfiguration, "",
				"%s port %d expects implicit TLS but mode %q given", proto, e.Port, e.TLS)
		}
	default:
		return models.Errf(models.KindConfiguration, "", "%s TLS mode %q is not supported", proto, e.TLS)
	}
	return nil
}
