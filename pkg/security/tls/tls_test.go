package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeKeyPair(t *testing.T, dir, cn string, notAfter time.Time) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
		DNSNames:     []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}

	certFile = filepath.Join(dir, "tls.crt")
	keyFile = filepath.Join(dir, "tls.key")
	// Write to temp names and rename, as certificate renewers do.
	writeAtomic(t, certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	writeAtomic(t, keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}))
	return certFile, keyFile
}

func writeAtomic(t *testing.T, path string, data []byte) {
	t.Helper()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
}

func currentCN(t *testing.T, r *Reloader) string {
	t.Helper()
	cert, err := r.GetCertificate(nil)
	if err != nil || cert == nil {
		t.Fatalf("GetCertificate() = %v, %v", cert, err)
	}
	return cert.Leaf.Subject.CommonName
}

func TestNewReloader(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, "relay-a", time.Now().Add(90*24*time.Hour))

	r, err := NewReloader(certFile, keyFile)
	if err != nil {
		t.Fatalf("NewReloader() error = %v", err)
	}
	defer r.Close()

	if got := currentCN(t, r); got != "relay-a" {
		t.Errorf("CN = %q", got)
	}
}

func TestNewReloader_Expired(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, "old", time.Now().Add(-time.Minute))

	if _, err := NewReloader(certFile, keyFile); err == nil {
		t.Fatal("expired certificate accepted")
	}
}

func TestNewReloader_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewReloader(filepath.Join(dir, "x.crt"), filepath.Join(dir, "x.key")); err == nil {
		t.Fatal("missing files accepted")
	}
}

func TestReloader_Watch(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, "relay-a", time.Now().Add(90*24*time.Hour))

	r, err := NewReloader(certFile, keyFile)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Watch(); err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	writeKeyPair(t, dir, "relay-b", time.Now().Add(90*24*time.Hour))

	deadline := time.Now().Add(2 * time.Second)
	for currentCN(t, r) != "relay-b" {
		if time.Now().After(deadline) {
			t.Fatal("certificate was not reloaded")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServerConfig(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, "relay", time.Now().Add(24*time.Hour))
	r, err := NewReloader(certFile, keyFile)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := ServerConfig(r, "1.2")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x", cfg.MinVersion)
	}
	if cfg.GetCertificate == nil {
		t.Error("GetCertificate not set")
	}

	if _, err := ServerConfig(r, "1.0"); err == nil {
		t.Error("TLS 1.0 accepted")
	}
}
