package tls

import (
	"crypto/tls"
	"fmt"
)

// ServerConfig returns a TLS configuration that serves the reloader's
// current certificate.
func ServerConfig(r *Reloader, minVersion string) (*tls.Config, error) {
	version, err := parseVersion(minVersion)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		MinVersion:     version,
		GetCertificate: r.GetCertificate,
	}, nil
}

func parseVersion(v string) (uint16, error) {
	switch v {
	case "", "1.3":
		return tls.VersionTLS13, nil
	case "1.2":
		return tls.VersionTLS12, nil
	default:
		return 0, fmt.Errorf("unsupported TLS version %q", v)
	}
}
