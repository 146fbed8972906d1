package tls

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloader holds a certificate key pair and reloads it when either file
// changes. A failed reload keeps the previous certificate.
type Reloader struct {
	certFile string
	keyFile  string

	mu   sync.RWMutex
	cert *tls.Certificate

	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
	logger   *slog.Logger
}

// NewReloader loads the key pair. Call Watch to follow changes.
func NewReloader(certFile, keyFile string) (*Reloader, error) {
	r := &Reloader{
		certFile: filepath.Clean(certFile),
		keyFile:  filepath.Clean(keyFile),
		logger:   slog.Default().With("component", "tls"),
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Watch starts following the certificate and key files. Directories are
// watched so that atomic replacements by rename are seen.
func (r *Reloader) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create certificate watcher: %w", err)
	}
	dirs := map[string]struct{}{
		filepath.Dir(r.certFile): {},
		filepath.Dir(r.keyFile):  {},
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	r.watcher = watcher
	r.done = make(chan struct{})
	go r.watchLoop()
	return nil
}

func (r *Reloader) watchLoop() {
	defer close(r.done)
	for {
		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Clean(event.Name)
			if name != r.certFile && name != r.keyFile {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := r.reload(); err != nil {
				r.logger.Error("failed to reload certificate", "error", err, "cert_file", r.certFile)
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("certificate watcher error", "error", err)
		}
	}
}

func (r *Reloader) reload() error {
	pair, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load key pair: %w", err)
	}
	cert, err := leaf(&pair)
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}
	now := time.Now()
	if err := validate(cert, now); err != nil {
		return err
	}
	pair.Leaf = cert

	r.mu.Lock()
	r.cert = &pair
	r.mu.Unlock()

	remaining := cert.NotAfter.Sub(now)
	attrs := []any{
		"subject", cert.Subject.CommonName,
		"expires_at", cert.NotAfter.Format(time.RFC3339),
	}
	if remaining < ExpiryWarning {
		r.logger.Warn("certificate expiring soon", attrs...)
	} else {
		r.logger.Info("certificate loaded", attrs...)
	}
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *Reloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

// Close stops watching.
func (r *Reloader) Close() error {
	var err error
	r.stopOnce.Do(func() {
		if r.watcher == nil {
			return
		}
		err = r.watcher.Close()
		<-r.done
	})
	return err
}
