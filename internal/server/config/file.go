package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hamarchia/ClinicSystem/internal/flagx"
	"github.com/hamarchia/ClinicSystem/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config for JSON and YAML files. Every field is a
// pointer so that keys absent from the file leave the current value alone.
type FileConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN                 *string         `json:"database_dsn" yaml:"database_dsn"`
	DatabaseMaxConns            *int32          `json:"database_max_conns" yaml:"database_max_conns"`
	SecretKey                   *string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	Timezone                    *string         `json:"timezone" yaml:"timezone"`
	PresenceLegacyReset         *bool           `json:"presence_legacy_reset" yaml:"presence_legacy_reset"`
	PresenceOutboxSize          *int            `json:"presence_outbox_size" yaml:"presence_outbox_size"`
	AllowEnqueueOnClosedShift   *bool           `json:"allow_enqueue_on_closed_shift" yaml:"allow_enqueue_on_closed_shift"`
	AMQPURL                     *string         `json:"amqp_url" yaml:"amqp_url"`
	AMQPExchange                *string         `json:"amqp_exchange" yaml:"amqp_exchange"`
	S3RootUser                  *string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                    *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3PresignTTL                *timex.Duration `json:"s3_presign_ttl" yaml:"s3_presign_ttl"`
	LogBackend                  *string         `json:"log_backend" yaml:"log_backend"`
}

// parseFile overlays values from the file named by -c/-config. The format
// is chosen by extension: .yaml/.yml use YAML, anything else JSON.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(c *Config) {
	set(&c.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	set(&c.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	set(&c.DatabaseDSN, fc.DatabaseDSN)
	set(&c.DatabaseMaxConns, fc.DatabaseMaxConns)
	set(&c.SecretKey, fc.SecretKey)
	if fc.AccessTokenValidityDuration != nil {
		c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	set(&c.Timezone, fc.Timezone)
	set(&c.PresenceLegacyReset, fc.PresenceLegacyReset)
	set(&c.PresenceOutboxSize, fc.PresenceOutboxSize)
	set(&c.AllowEnqueueOnClosedShift, fc.AllowEnqueueOnClosedShift)
	set(&c.AMQPURL, fc.AMQPURL)
	set(&c.AMQPExchange, fc.AMQPExchange)
	set(&c.S3RootUser, fc.S3RootUser)
	set(&c.S3RootPassword, fc.S3RootPassword)
	set(&c.S3Bucket, fc.S3Bucket)
	set(&c.S3Region, fc.S3Region)
	set(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	if fc.S3PresignTTL != nil {
		c.S3PresignTTL = fc.S3PresignTTL.Duration
	}
	set(&c.LogBackend, fc.LogBackend)
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
