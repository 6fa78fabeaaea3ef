// Package config handles configuration for the clinic server,
// including defaults, a JSON or YAML file overlay, command-line flags
// and validation.
package config

import (
	"fmt"
	"time"

	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
)

// Config holds runtime settings for the clinic server.
//
// An empty DatabaseDSN selects the in-memory store, an empty AMQPURL
// disables the cross-instance presence relay and an empty S3Bucket
// disables closed-shift archiving.
type Config struct {
	EndpointAddrHTTP string `validate:"required"`
	EndpointAddrGRPC string

	DatabaseDSN      string
	DatabaseMaxConns int32 `validate:"gte=1"`

	SecretKey                   string        `validate:"required,min=8"`
	AccessTokenValidityDuration time.Duration `validate:"gt=0s"`

	// Timezone is an IANA name used to decide what "today" means for shifts
	// and prescriptions. "Local" uses the host zone.
	Timezone string `validate:"required"`

	PresenceLegacyReset       bool
	PresenceOutboxSize        int `validate:"gte=1"`
	AllowEnqueueOnClosedShift bool

	AMQPURL      string
	AMQPExchange string `validate:"required_with=AMQPURL"`

	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string `validate:"required_with=S3Bucket"`
	S3BaseEndpoint string
	S3PresignTTL   time.Duration `validate:"gt=0s"`

	LogBackend string `validate:"oneof=slog zap"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key is insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.DatabaseMaxConns = 10
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 8 * time.Hour
	c.Timezone = "Local"
	c.PresenceLegacyReset = true
	c.PresenceOutboxSize = 16
	c.AllowEnqueueOnClosedShift = false
	c.AMQPURL = ""
	c.AMQPExchange = "clinic.presence"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3PresignTTL = 15 * time.Minute
	c.LogBackend = "slog"
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

var validate = validator.New()

// Validate checks struct constraints and the timezone name.
func Validate(c *Config) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config validation failed: timezone: %w", err)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file (-c/-config) and finally from command-line
// flags. The result is validated.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
