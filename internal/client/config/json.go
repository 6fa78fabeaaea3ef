package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hamarchia/ClinicSystem/internal/flagx"
	"github.com/hamarchia/ClinicSystem/internal/timex"
)

// JSONConfig is the on-disk form. Absent fields keep their current value.
type JSONConfig struct {
	ServerEndpointAddr *string         `json:"server_endpoint_addr"`
	AccessToken        *string         `json:"access_token"`
	ReconnectInterval  *timex.Duration `json:"reconnect_interval"`
}

func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if jc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *jc.ServerEndpointAddr
	}
	if jc.AccessToken != nil {
		cfg.AccessToken = *jc.AccessToken
	}
	if jc.ReconnectInterval != nil {
		cfg.ReconnectInterval = jc.ReconnectInterval.Duration
	}
	return nil
}
