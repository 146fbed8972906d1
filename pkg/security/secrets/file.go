package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileProvider reads secrets from one file per secret in a directory, the
// layout of mounted Kubernetes secrets. Files must be 0600 or 0400.
//
// With watching enabled the directory is observed with fsnotify; any write,
// create, rename or removal drops the cache and notifies OnChange callbacks,
// so a rotated credential is used by the next request.
type FileProvider struct {
	BasePath string
	Watch    bool

	mu        sync.RWMutex
	cache     map[string]string
	listeners []func()

	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	logger   *slog.Logger
}

// NewFileProvider opens basePath, starting a watcher when watch is set.
func NewFileProvider(basePath string, watch bool) (*FileProvider, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat secrets directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("secrets path is not a directory: %s", basePath)
	}

	p := &FileProvider{
		BasePath: basePath,
		Watch:    watch,
		cache:    make(map[string]string),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		logger:   slog.Default().With("component", "secrets.file", "path", basePath),
	}

	if !watch {
		close(p.done)
		return p, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(basePath); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch secrets directory: %w", err)
	}
	p.watcher = watcher
	go p.watchLoop()

	p.logger.Info("watching secrets directory")
	return p, nil
}

// GetSecret reads <BasePath>/<name>, trimming surrounding whitespace.
func (p *FileProvider) GetSecret(ctx context.Context, name string) (string, error) {
	p.mu.RLock()
	value, ok := p.cache[name]
	p.mu.RUnlock()
	if ok {
		return value, nil
	}

	path, err := p.resolve(name)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("secret file not found: %s", name)
		}
		return "", fmt.Errorf("failed to stat secret file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret path is not a regular file: %s", name)
	}
	if mode := info.Mode().Perm(); mode != 0600 && mode != 0400 {
		return "", fmt.Errorf("insecure permissions on %s: %o (expected 0600 or 0400)", path, mode)
	}

	// #nosec G304 - path is confined to BasePath by resolve
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}
	value = strings.TrimSpace(string(data))

	p.mu.Lock()
	p.cache[name] = value
	p.mu.Unlock()

	return value, nil
}

// resolve joins name onto BasePath and rejects anything escaping it.
func (p *FileProvider) resolve(name string) (string, error) {
	absBase, err := filepath.Abs(p.BasePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve secrets directory: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(p.BasePath, name))
	if err != nil {
		return "", fmt.Errorf("failed to resolve secret path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid secret name %q: outside secrets directory", name)
	}
	return absPath, nil
}

// ListSecrets returns the regular files in the directory.
func (p *FileProvider) ListSecrets(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(p.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Provider returns "file".
func (p *FileProvider) Provider() string {
	return "file"
}

// Supports reports whether a regular file named name exists.
func (p *FileProvider) Supports(name string) bool {
	path, err := p.resolve(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Refresh drops every cached value.
func (p *FileProvider) Refresh(ctx context.Context) error {
	p.mu.Lock()
	p.cache = make(map[string]string)
	p.mu.Unlock()
	return nil
}

// OnChange registers fn to run after the watcher refreshes the cache.
func (p *FileProvider) OnChange(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Close stops the watcher and waits for its goroutine.
func (p *FileProvider) Close() error {
	if p.watcher == nil {
		return nil
	}
	var err error
	p.stopOnce.Do(func() {
		close(p.stopCh)
		err = p.watcher.Close()
		<-p.done
	})
	return err
}

func (p *FileProvider) watchLoop() {
	defer close(p.done)

	const changed = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Op&changed == 0 {
				continue
			}
			p.logger.Debug("secret file changed",
				"file", filepath.Base(event.Name),
				"op", event.Op.String(),
			)
			_ = p.Refresh(context.Background())

			p.mu.RLock()
			listeners := append([]func(){}, p.listeners...)
			p.mu.RUnlock()
			for _, fn := range listeners {
				fn()
			}

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("secrets watcher error", "error", err)

		case <-p.stopCh:
			return
		}
	}
}
