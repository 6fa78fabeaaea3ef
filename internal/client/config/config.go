// Package config loads settings for the presence desk client.
package config

import (
	"errors"
	"time"
)

// Config holds runtime settings for the desk client.
//
// ReconnectInterval is how long the client waits before reopening a
// presence stream that the server closed.
type Config struct {
	ServerEndpointAddr string
	AccessToken        string
	ReconnectInterval  time.Duration
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.AccessToken = ""
	c.ReconnectInterval = 3 * time.Second
}

// LoadConfig applies defaults, then a JSON file (-c/-config) and finally
// command-line flags. Later sources win.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if cfg.AccessToken == "" {
		return nil, errors.New("access token is required (-t)")
	}
	if cfg.ReconnectInterval <= 0 {
		return nil, errors.New("reconnect interval must be positive")
	}
	return cfg, nil
}
