package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Hub       HubConfig       `yaml:"hub"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Store     StoreConfig     `yaml:"store"`
	Notify    NotifyConfig    `yaml:"notify"`
	Server    ServerConfig    `yaml:"server"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Log       LogConfig       `yaml:"log"`
}

type HubConfig struct {
	DefaultEndpoint string `yaml:"default_endpoint"`
	Timeout         string `yaml:"timeout"`
}

type DiscoveryConfig struct {
	Candidates   []string `yaml:"candidates"`
	ProbeTimeout string   `yaml:"probe_timeout"`
	Platform     string   `yaml:"platform"`
}

type StoreConfig struct {
	Driver        string `yaml:"driver"`
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisKey      string `yaml:"redis_key"`
}

type NotifyConfig struct {
	Driver   string         `yaml:"driver"`
	Pushover PushoverConfig `yaml:"pushover"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
}

type MQTTConfig struct {
	BrokerURL string `yaml:"broker_url"`
	Topic     string `yaml:"topic"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type SimulatorConfig struct {
	Addr      string `yaml:"addr"`
	RateLimit int    `yaml:"rate_limit"`
	Latency   string `yaml:"latency"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the YAML file at path, expanding ${VAR} references from the
// environment (and from a .env file when one exists). A missing file is not
// an error: the defaults are returned.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Hub.DefaultEndpoint == "" {
		c.Hub.DefaultEndpoint = "http://192.168.1.100"
	}
	if c.Hub.Timeout == "" {
		c.Hub.Timeout = "5s"
	}
	if len(c.Discovery.Candidates) == 0 {
		c.Discovery.Candidates = []string{
			"http://192.168.1.100",
			"http://192.168.1.101",
			"http://192.168.1.102",
			"http://192.168.0.100",
			"http://192.168.0.101",
		}
	}
	if c.Discovery.ProbeTimeout == "" {
		c.Discovery.ProbeTimeout = "1s"
	}
	if c.Discovery.Platform == "" {
		c.Discovery.Platform = "cli"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "./homectl.db"
	}
	if c.Store.RedisAddr == "" {
		c.Store.RedisAddr = "localhost:6379"
	}
	if c.Notify.Driver == "" {
		c.Notify.Driver = "log"
	}
	if c.Notify.MQTT.Topic == "" {
		c.Notify.MQTT.Topic = "homectl/toasts"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Simulator.Addr == "" {
		c.Simulator.Addr = ":8081"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Duration parses a configured duration, falling back to def when the value
// is empty or malformed.
func Duration(value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	return d, nil
}
