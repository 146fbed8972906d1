package config

import "sync"

var (
	globalMu  sync.RWMutex
	global    *Config
	initOnce  sync.Once
	initError error
)

// Initialize loads the configuration at path with environment overrides and
// stores it for GetConfig. Only the first call loads; later calls return the
// first call's error.
func Initialize(path string) error {
	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initError = err
			return
		}
		SetConfig(cfg)
	})
	return initError
}

// GetConfig returns the configuration stored by Initialize or SetConfig, or
// nil.
func GetConfig() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// SetConfig replaces the stored configuration.
func SetConfig(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = cfg
}

// MustGetConfig is GetConfig for code that runs after a successful
// Initialize. It panics otherwise.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}

// reset clears the singleton for tests.
func reset() {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = nil
	initOnce = sync.Once{}
	initError = nil
}
