// Root configuration for the browsergrid service.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	instance *Config
	mu       sync.RWMutex
)

// Config is the root configuration structure for the entire application.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger"`
	Server  ServerConfig  `mapstructure:"server"`
	Browser BrowserConfig `mapstructure:"browser"`
	Driver  DriverConfig  `mapstructure:"driver"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" json:"level" yaml:"level"`
	Format      string `mapstructure:"format" json:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" json:"compress" yaml:"compress"`
}

// ServerConfig holds settings for the HTTP transport layer.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// BrowserConfig holds settings for the browser executable every session is
// launched from.
type BrowserConfig struct {
	Headless        bool     `mapstructure:"headless"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors"`
	Args            []string `mapstructure:"args"`
}

// DriverConfig holds the default timeouts applied when a request omits its
// own. Values are in seconds to match the request parameters they back.
type DriverConfig struct {
	DefaultImplicitWaitSeconds int           `mapstructure:"default_implicit_wait_seconds"`
	DefaultExplicitWaitSeconds int           `mapstructure:"default_explicit_wait_seconds"`
	DefaultPageLoadSeconds     int           `mapstructure:"default_page_load_seconds"`
	WaitPollInterval           time.Duration `mapstructure:"wait_poll_interval"`
	SessionShutdownGracePeriod time.Duration `mapstructure:"session_shutdown_grace_period"`
}

// SetDefaults registers default values so the service can run with no
// config file at all.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "browsergrid")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)

	v.SetDefault("server.addr", ":8088")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)

	v.SetDefault("driver.default_implicit_wait_seconds", 0)
	v.SetDefault("driver.default_explicit_wait_seconds", 10)
	v.SetDefault("driver.default_page_load_seconds", 30)
	v.SetDefault("driver.wait_poll_interval", 250*time.Millisecond)
	v.SetDefault("driver.session_shutdown_grace_period", 10*time.Second)
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Driver.DefaultImplicitWaitSeconds < 0 {
		return fmt.Errorf("driver.default_implicit_wait_seconds must not be negative")
	}
	if c.Driver.DefaultExplicitWaitSeconds <= 0 {
		return fmt.Errorf("driver.default_explicit_wait_seconds must be positive")
	}
	if c.Driver.DefaultPageLoadSeconds <= 0 {
		return fmt.Errorf("driver.default_page_load_seconds must be positive")
	}
	if c.Driver.WaitPollInterval <= 0 {
		return fmt.Errorf("driver.wait_poll_interval must be positive")
	}
	return nil
}

// NewDefaultConfig returns a standalone Config populated with the defaults.
// Tests use this instead of the singleton.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults are static; failing to unmarshal them is a programming error.
		panic(fmt.Sprintf("config: unmarshal defaults: %v", err))
	}
	return &cfg
}

// Load unmarshals the configuration from Viper and stores it globally.
func Load(v *viper.Viper) error {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	Set(&cfg)
	return nil
}

// Set replaces the global configuration instance.
func Set(cfg *Config) {
	mu.Lock()
	instance = cfg
	mu.Unlock()
}

// Get returns the loaded configuration instance.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		panic("Configuration not initialized. Call config.Load() in the root command.")
	}
	return instance
}
