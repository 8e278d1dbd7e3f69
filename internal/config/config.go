// Package config loads server configuration from an optional TOML file and
// the environment. Environment variables override the file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all server configuration.
type Config struct {
	// Server
	ListenAddr  string `toml:"listen-addr" env:"SACHIMA_LISTEN_ADDR" env-default:":8080" env-description:"API listen address"`
	MetricsAddr string `toml:"metrics-addr" env:"SACHIMA_METRICS_ADDR" env-default:":9090" env-description:"Prometheus listen address, empty disables it"`

	// Logging
	LogLevel  string `toml:"log-level" env:"SACHIMA_LOG_LEVEL" env-default:"info" env-description:"debug, info, warn or error"`
	LogFormat string `toml:"log-format" env:"SACHIMA_LOG_FORMAT" env-default:"json" env-description:"json or console"`
	LogOutput string `toml:"log-output" env:"SACHIMA_LOG_OUTPUT" env-default:"stdout" env-description:"stdout, stderr or a file path"`

	// Registry. Empty keeps users in memory.
	DatabaseURL string `toml:"database-url" env:"DATABASE_URL" env-description:"PostgreSQL connection URL"`

	// Workspace
	Workspace string   `toml:"workspace" env:"SACHIMA_WORKSPACE" env-required:"true" env-description:"directory served to clients"`
	MaxUpload ByteSize `toml:"max-upload" env:"SACHIMA_MAX_UPLOAD" env-default:"1G" env-description:"upload body limit, e.g. 512M"`

	// Auth
	JWTSecret      string        `toml:"jwt-secret-key" env:"JWT_SECRET" env-required:"true" env-description:"token signing key"`
	JWTAlgorithm   string        `toml:"jwt-algorithm" env:"SACHIMA_JWT_ALGORITHM" env-default:"HS256" env-description:"HS256, HS384 or HS512"`
	TokenTTL       time.Duration `toml:"token-ttl" env:"SACHIMA_TOKEN_TTL" env-default:"72h" env-description:"login token lifetime"`
	PasswordSalt   string        `toml:"password-salt" env:"SACHIMA_PASSWORD_SALT" env-required:"true" env-description:"password hashing secret"`
	PasswordScheme string        `toml:"password-scheme" env:"SACHIMA_PASSWORD_SCHEME" env-default:"keyed" env-description:"keyed or bcrypt"`
}

// Load reads path (when non-empty) and then the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	for name, v := range map[string]string{
		"workspace":      c.Workspace,
		"jwt-secret-key": c.JWTSecret,
		"password-salt":  c.PasswordSalt,
	} {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", name))
		}
	}
	switch strings.ToUpper(c.JWTAlgorithm) {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("jwt-algorithm: unsupported %q", c.JWTAlgorithm))
	}
	switch c.PasswordScheme {
	case "keyed", "bcrypt":
	default:
		errs = append(errs, fmt.Errorf("password-scheme: unsupported %q", c.PasswordScheme))
	}
	if c.MaxUpload <= 0 {
		errs = append(errs, errors.New("max-upload must be positive"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token-ttl must be positive"))
	}

	return errors.Join(errs...)
}

// Usage prints the supported environment variables after fallback.
func Usage(fallback func()) func() {
	header := "Environment variables:"
	return cleanenv.Usage(&Config{}, &header, fallback)
}
