package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Client configures the headless participant.
type Client struct {
	ServerURL          string
	Name               string
	ICEServers         []ICEServer
	NegotiationTimeout time.Duration
	Audio              bool
	LogLevel           string
}

type clientFile struct {
	ServerURL          string      `toml:"server_url"`
	Name               string      `toml:"name"`
	ICEServers         []ICEServer `toml:"ice_servers"`
	NegotiationTimeout string      `toml:"negotiation_timeout"`
	Audio              *bool       `toml:"audio"`
	LogLevel           string      `toml:"log_level"`
}

func defaultClient() *Client {
	return &Client{
		ServerURL:          "ws://localhost:8080/api/ws/signal",
		Name:               "guest",
		ICEServers:         []ICEServer{{URLs: DefaultSTUN}},
		NegotiationTimeout: 20 * time.Second,
		LogLevel:           "info",
	}
}

// LoadClient reads $XDG_CONFIG_HOME/meet/client.toml when present and applies
// MEET_CLIENT_* environment overrides. Command-line flags are applied by the caller.
func LoadClient() (*Client, error) {
	cfg := defaultClient()
	if path := clientFilePath(); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	applyClientEnv(cfg)
	return cfg, nil
}

func (c *Client) mergeFile(path string) error {
	var fc clientFile
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return err
	}
	if fc.ServerURL != "" {
		c.ServerURL = fc.ServerURL
	}
	if fc.Name != "" {
		c.Name = fc.Name
	}
	if len(fc.ICEServers) > 0 {
		c.ICEServers = fc.ICEServers
	}
	if fc.NegotiationTimeout != "" {
		d, err := time.ParseDuration(fc.NegotiationTimeout)
		if err != nil {
			return err
		}
		c.NegotiationTimeout = d
	}
	if fc.Audio != nil {
		c.Audio = *fc.Audio
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	return nil
}

func applyClientEnv(c *Client) {
	if v := os.Getenv("MEET_CLIENT_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("MEET_CLIENT_NAME"); v != "" {
		c.Name = v
	}
	if v := os.Getenv("MEET_CLIENT_AUDIO"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Audio = b
		}
	}
	if v := os.Getenv("MEET_CLIENT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func clientFilePath() string {
	var dir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dir = filepath.Join(xdg, "meet")
	} else if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".config", "meet")
	} else {
		return ""
	}
	path := filepath.Join(dir, "client.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
