package modem

import (
	"time"
)

// Config carries the settings a Modem is constructed with. Build one with
// NewConfigBuilder.
type Config struct {
	dialer          Dialer
	simPIN          string
	minSendInterval time.Duration
	maxRetries      int
	atTimeout       time.Duration
	initTimeout     time.Duration
}

func (c *Config) validate() error {
	if c.dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.minSendInterval == 0 {
		c.minSendInterval = time.Minute / 30
	}
	if c.maxRetries == 0 {
		c.maxRetries = 3
	}
	if c.atTimeout == 0 {
		c.atTimeout = 5 * time.Second
	}
	if c.initTimeout == 0 {
		c.initTimeout = 30 * time.Second
	}
}

// ConfigBuilder assembles a Config. Zero values fall back to defaults at
// Build time; a Dialer is the only required setting.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.dialer = d
	return b
}

func (b *ConfigBuilder) WithSimPIN(pin string) *ConfigBuilder {
	b.config.simPIN = pin
	return b
}

func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.atTimeout = d
	return b
}

func (b *ConfigBuilder) WithInitTimeout(d time.Duration) *ConfigBuilder {
	b.config.initTimeout = d
	return b
}

func (b *ConfigBuilder) WithMinSendInterval(d time.Duration) *ConfigBuilder {
	b.config.minSendInterval = d
	return b
}

func (b *ConfigBuilder) WithMaxRetries(n int) *ConfigBuilder {
	b.config.maxRetries = n
	return b
}

func (b *ConfigBuilder) Build() (Config, error) {
	if err := b.config.validate(); err != nil {
		return Config{}, err
	}
	c := b.config
	c.setDefaults()
	return c, nil
}
