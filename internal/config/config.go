package config

import (
	"time"

	"github.com/codellyson/quick-rest/internal/p2p"
)

// Config holds the application configuration.
type Config struct {
	RelayURL     string        `yaml:"relay_url"`
	ShareBaseURL string        `yaml:"share_base_url"`
	ProxyTimeout time.Duration `yaml:"proxy_timeout"`
	Sync         SyncConfig    `yaml:"sync"`
}

// SyncConfig exposes the sync core's timing policy. All values are optional;
// zero means "use the default".
type SyncConfig struct {
	GraceWindow      time.Duration `yaml:"grace_window"`
	DebounceBody     time.Duration `yaml:"debounce_body"`
	DebounceURL      time.Duration `yaml:"debounce_url"`
	DebounceKV       time.Duration `yaml:"debounce_kv"`
	DebounceDiscrete time.Duration `yaml:"debounce_discrete"`
	DebounceHints    time.Duration `yaml:"debounce_hints"`
	DebounceDefault  time.Duration `yaml:"debounce_default"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		RelayURL:     "wss://relay.quickrest.dev/ws",
		ShareBaseURL: "https://quickrest.dev/app",
		ProxyTimeout: 30 * time.Second,
	}
}

// Policy converts the sync settings into a p2p.Policy, filling gaps with the
// defaults.
func (c Config) Policy() p2p.Policy {
	p := p2p.DefaultPolicy()
	s := c.Sync
	if s.GraceWindow > 0 {
		p.GraceWindow = s.GraceWindow
	}
	if s.DebounceBody > 0 {
		p.DebounceBody = s.DebounceBody
	}
	if s.DebounceURL > 0 {
		p.DebounceURL = s.DebounceURL
	}
	if s.DebounceKV > 0 {
		p.DebounceKV = s.DebounceKV
	}
	if s.DebounceDiscrete > 0 {
		p.DebounceDiscrete = s.DebounceDiscrete
	}
	if s.DebounceHints > 0 {
		p.DebounceHints = s.DebounceHints
	}
	if s.DebounceDefault > 0 {
		p.DebounceDefault = s.DebounceDefault
	}
	if s.ConnectTimeout > 0 {
		p.ConnectTimeout = s.ConnectTimeout
	}
	return p
}
