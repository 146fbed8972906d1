package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"time"
)

// ExpiryWarning is how close to expiry a certificate is logged as a warning.
const ExpiryWarning = 30 * 24 * time.Hour

// leaf parses the first certificate of a key pair.
func leaf(cert *tls.Certificate) (*x509.Certificate, error) {
	if cert == nil || len(cert.Certificate) == 0 {
		return nil, errors.New("certificate is empty")
	}
	return x509.ParseCertificate(cert.Certificate[0])
}

// validate rejects certificates outside their validity window.
func validate(cert *x509.Certificate, now time.Time) error {
	if now.Before(cert.NotBefore) {
		return fmt.Errorf("certificate not valid until %s", cert.NotBefore.Format(time.RFC3339))
	}
	if now.After(cert.NotAfter) {
		return fmt.Errorf("certificate expired on %s", cert.NotAfter.Format(time.RFC3339))
	}
	return nil
}
