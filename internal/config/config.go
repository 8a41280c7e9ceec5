package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/spf13/viper"
)

type ICEServer struct {
	URLs       []string `mapstructure:"urls" toml:"urls" json:"urls"`
	Username   string   `mapstructure:"username" toml:"username" json:"username,omitempty"`
	Credential string   `mapstructure:"credential" toml:"credential" json:"credential,omitempty"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`

	HostAuthoritative bool                 `mapstructure:"host_authoritative"`
	Meeting           domain.MeetingConfig `mapstructure:"meeting"`
	ChatRateLimit     int                  `mapstructure:"chat_rate_limit"`
	ChatRateInterval  time.Duration        `mapstructure:"chat_rate_interval"`
	ICEServers        []ICEServer          `mapstructure:"ice_servers"`
}

// DefaultSTUN mirrors the public Google STUN pool.
var DefaultSTUN = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
	"stun:stun2.l.google.com:19302",
	"stun:stun3.l.google.com:19302",
	"stun:stun4.l.google.com:19302",
}

func setDefaults(v *viper.Viper) {
	meeting := domain.DefaultMeetingConfig()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("log_level", "info")
	v.SetDefault("host_authoritative", false)
	v.SetDefault("meeting.max_participants", meeting.MaxParticipants)
	v.SetDefault("meeting.allow_audio", meeting.AllowAudio)
	v.SetDefault("meeting.allow_video", meeting.AllowVideo)
	v.SetDefault("meeting.allow_screen_share", meeting.AllowScreenShare)
	v.SetDefault("meeting.allow_chat", meeting.AllowChat)
	v.SetDefault("chat_rate_limit", 5)
	v.SetDefault("chat_rate_interval", "10s")
	v.SetDefault("ice_servers", []map[string]any{{"urls": DefaultSTUN}})
}

func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile reads one yaml file on top of the defaults. A missing file is not
// an error. MEET_* environment variables override both.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("meet")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Static: %s\n", cfg.Mode, cfg.Port, cfg.StaticPath)
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Meeting.MaxParticipants < 2 || c.Meeting.MaxParticipants > domain.MaxParticipantsLimit {
		return fmt.Errorf("meeting.max_participants must be within 2..%d, got %d", domain.MaxParticipantsLimit, c.Meeting.MaxParticipants)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer)
	}
	if c.PingPeriod <= 0 || c.WriteWait <= 0 {
		return fmt.Errorf("ping_period and write_wait must be positive")
	}
	return nil
}
