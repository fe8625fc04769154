// Package config loads server configuration from the environment.
//
// Values come from process environment variables, optionally seeded from a
// .env file. Defaults live in the struct tags:
//
//	cfg, err := config.Load(".env")
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... } // names every missing variable
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is the process configuration.
type Config struct {
	// WhatsApp credentials. ENV: WHATSAPP_API_TOKEN, WHATSAPP_PHONE_NUMBER_ID,
	// WHATSAPP_BUSINESS_ACCOUNT_ID. All three are required; see Validate.
	APIToken          string `env:"WHATSAPP_API_TOKEN"`
	PhoneNumberID     string `env:"WHATSAPP_PHONE_NUMBER_ID"`
	BusinessAccountID string `env:"WHATSAPP_BUSINESS_ACCOUNT_ID"`

	APIVersion string        `env:"WHATSAPP_API_VERSION,default=v18.0"`
	APIURL     string        `env:"WHATSAPP_API_URL,default=https://graph.facebook.com"`
	APITimeout time.Duration `env:"WHATSAPP_API_TIMEOUT,default=30s"`

	// HTTP surface.
	Port      int     `env:"PORT,default=45679"`
	RateLimit float64 `env:"MCP_RATE_LIMIT,default=0"`
	RateBurst int     `env:"MCP_RATE_BURST,default=10"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
}

// Load reads the optional dotenv files (a missing file is not an error) and
// decodes the environment. Variables already set in the process win over
// values from the files. Load does not check required variables.
func Load(dotenv ...string) (*Config, error) {
	for _, f := range dotenv {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every missing required variable in a single
// *ConfigurationError.
func (c *Config) Validate() error {
	var missing []string
	if c.APIToken == "" {
		missing = append(missing, "WHATSAPP_API_TOKEN")
	}
	if c.PhoneNumberID == "" {
		missing = append(missing, "WHATSAPP_PHONE_NUMBER_ID")
	}
	if c.BusinessAccountID == "" {
		missing = append(missing, "WHATSAPP_BUSINESS_ACCOUNT_ID")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// ConfigurationError names the required variables that are unset.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("Missing required environment variables: %s. Please set them in .env file.", strings.Join(e.Missing, ", "))
}

// Is matches mcpservice.ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == mcpservice.ErrConfiguration
}

// Addr returns the listen address for the HTTP surface.
func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// Masked reports each credential as "***SET***" or "NOT SET".
func (c *Config) Masked() map[string]string {
	mask := func(s string) string {
		if s == "" {
			return "NOT SET"
		}
		return "***SET***"
	}
	return map[string]string{
		"WHATSAPP_API_TOKEN":           mask(c.APIToken),
		"WHATSAPP_PHONE_NUMBER_ID":     mask(c.PhoneNumberID),
		"WHATSAPP_BUSINESS_ACCOUNT_ID": mask(c.BusinessAccountID),
		"WHATSAPP_API_VERSION":         c.APIVersion,
	}
}
