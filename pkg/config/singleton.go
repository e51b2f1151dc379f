package config

import (
	"fmt"
	"sync"
)

var (
	// globalConfig holds the process-wide configuration.
	globalConfig *Config

	// configMutex protects globalConfig and reloadHooks.
	configMutex sync.RWMutex

	// reloadHooks run after a successful ReloadConfig.
	reloadHooks []func(*Config)

	initOnce sync.Once
)

// Initialize loads configuration from path with environment overrides and
// stores it globally. Only the first call has any effect.
func Initialize(path string) error {
	var initErr error

	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}
		SetConfig(cfg)
	})

	return initErr
}

// GetConfig returns the global configuration, or nil before Initialize.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// SetConfig replaces the global configuration. Intended for tests and for
// the CLI when no file is used.
func SetConfig(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}

// OnReload registers fn to be called with each configuration installed by
// ReloadConfig.
func OnReload(fn func(*Config)) {
	configMutex.Lock()
	defer configMutex.Unlock()
	reloadHooks = append(reloadHooks, fn)
}

// ReloadConfig reloads the configuration from path. The global value is
// replaced only if loading and validation succeed; otherwise the previous
// configuration stays in effect.
func ReloadConfig(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	configMutex.Lock()
	globalConfig = cfg
	hooks := append(([]func(*Config))(nil), reloadHooks...)
	configMutex.Unlock()

	for _, fn := range hooks {
		fn(cfg)
	}
	return nil
}

// MustGetConfig returns the global configuration and panics if it has not
// been initialized.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}

// resetForTesting clears global state.
func resetForTesting() {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = nil
	reloadHooks = nil
	initOnce = sync.Once{}
}
