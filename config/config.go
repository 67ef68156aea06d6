// Package config loads key pair settings from an optional YAML file,
// KEYPAIR_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/joncooperworks/keypair/crypto/keystore"
)

const EnvPrefix = "KEYPAIR"

// Config holds the resolved settings.
type Config struct {
	// AppID is the application identifier the key tag is derived from.
	AppID        string `mapstructure:"app_id"`
	Backend      string `mapstructure:"backend"`
	ServiceName  string `mapstructure:"service_name"`
	KeychainName string `mapstructure:"keychain_name"`
	FileDir      string `mapstructure:"file_dir"`
	// Passphrase PKCS#8-encrypts stored keys. For the file backend it is also
	// the file password.
	Passphrase string    `mapstructure:"passphrase"`
	Log        LogConfig `mapstructure:"log"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app_id", "")
	v.SetDefault("keychain_name", "")
	v.SetDefault("passphrase", "")
	v.SetDefault("backend", keystore.BackendOS)
	v.SetDefault("service_name", keystore.DefaultServiceName)
	v.SetDefault("file_dir", "~/.keypair")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile (if non-empty) into v and decodes the result.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file not found: %s", configFile)
			}
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that can be rejected before touching a keystore.
// A missing AppID is not an error here; the manager reports it as an
// unavailable tag.
func (c *Config) Validate() error {
	if c.Backend == "" {
		return fmt.Errorf("backend is required")
	}
	if c.Backend == keystore.BackendFile && c.FileDir == "" {
		return fmt.Errorf("file_dir is required for the file backend")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format)
	}
	return nil
}

// KeystoreOptions converts the configuration into keystore options.
// passwordFunc is used by the file backend when no passphrase is configured.
func (c *Config) KeystoreOptions(passwordFunc func(string) (string, error)) keystore.Options {
	opts := keystore.Options{
		Backend:          c.Backend,
		ServiceName:      c.ServiceName,
		KeychainName:     c.KeychainName,
		FileDir:          c.FileDir,
		FilePasswordFunc: passwordFunc,
	}
	if c.Passphrase != "" {
		opts.Passphrase = []byte(c.Passphrase)
		passphrase := c.Passphrase
		opts.FilePasswordFunc = func(string) (string, error) { return passphrase, nil }
	}
	return opts
}

// Logger builds the slog logger described by the log section.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
