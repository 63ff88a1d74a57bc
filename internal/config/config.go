package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type NetBox struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type MQTT struct {
	Broker   string `yaml:"broker"` // empty disables the MQTT alert sink
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      int    `yaml:"qos"`
}

type Redis struct {
	Addr     string `yaml:"addr"` // empty disables the Redis alert sink
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Stream   string `yaml:"stream"`
}

type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"` // health service; empty disables

	Env string `yaml:"env"` // "dev" | "prod"

	// History DB
	DBEnabled bool   `yaml:"db_enabled"`
	DBPath    string `yaml:"db_path"`

	HistoryRetentionDays int `yaml:"history_retention_days"` // 0 = keep forever
	PruneIntervalHours   int `yaml:"prune_interval_hours"`

	WindowSeconds int    `yaml:"window_seconds"`
	Mode          string `yaml:"mode"` // "tailgating" | "linecrossing"

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "json" | "console"

	NetBox NetBox `yaml:"netbox"`
	MQTT   MQTT   `yaml:"mqtt"`
	Redis  Redis  `yaml:"redis"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		HTTPAddr:             ":8080",
		GRPCAddr:             ":9090",
		Env:                  "dev",
		DBEnabled:            true,
		DBPath:               "./data/tailgate.db",
		HistoryRetentionDays: 7,
		PruneIntervalHours:   6,
		WindowSeconds:        10,
		Mode:                 "tailgating",
		LogLevel:             "info",
		LogFormat:            "json",
		NetBox: NetBox{
			URL:      "http://127.0.0.1/nbws/goforms/nbapi",
			Username: "admin",
		},
		MQTT: MQTT{
			ClientID: "tailgate-server",
			Topic:    "tailgate/alerts",
			QoS:      1,
		},
		Redis: Redis{Stream: "tailgate:alerts"},
	}
}

// Load reads a YAML file over the defaults, then applies env overrides.
// An empty path means env only.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse yaml: %w", err)
		}
	}
	applyEnv(&cfg)
	normalize(&cfg)
	return cfg, nil
}

// FromEnv is Load without a file. TAILGATE_CONFIG, if set, names one; a
// file that cannot be read is ignored.
func FromEnv() Config {
	cfg, err := Load(os.Getenv("TAILGATE_CONFIG"))
	if err != nil {
		cfg = Defaults()
		applyEnv(&cfg)
		normalize(&cfg)
	}
	return cfg
}

func applyEnv(c *Config) {
	c.HTTPAddr = getenvDefault("TAILGATE_HTTP_ADDR", c.HTTPAddr)
	if v, ok := os.LookupEnv("TAILGATE_GRPC_ADDR"); ok {
		c.GRPCAddr = strings.TrimSpace(v)
	}
	c.Env = strings.ToLower(getenvDefault("TAILGATE_ENV", c.Env))

	c.DBEnabled = getenvBool("TAILGATE_DB_ENABLED", c.DBEnabled)
	c.DBPath = getenvDefault("TAILGATE_DB_PATH", c.DBPath)
	c.HistoryRetentionDays = getenvInt("TAILGATE_HISTORY_RETENTION_DAYS", c.HistoryRetentionDays)
	c.PruneIntervalHours = getenvInt("TAILGATE_PRUNE_INTERVAL_HOURS", c.PruneIntervalHours)

	c.WindowSeconds = getenvInt("TAILGATE_WINDOW_SECONDS", c.WindowSeconds)
	c.Mode = strings.ToLower(getenvDefault("TAILGATE_MODE", c.Mode))

	c.LogLevel = strings.ToLower(getenvDefault("TAILGATE_LOG_LEVEL", c.LogLevel))
	c.LogFormat = strings.ToLower(getenvDefault("TAILGATE_LOG_FORMAT", c.LogFormat))

	c.NetBox.Enabled = getenvBool("TAILGATE_NETBOX_ENABLED", c.NetBox.Enabled)
	c.NetBox.URL = getenvDefault("TAILGATE_NETBOX_URL", c.NetBox.URL)
	c.NetBox.Username = getenvDefault("TAILGATE_NETBOX_USER", c.NetBox.Username)
	c.NetBox.Password = getenvDefault("TAILGATE_NETBOX_PASS", c.NetBox.Password)

	c.MQTT.Broker = getenvDefault("TAILGATE_MQTT_BROKER", c.MQTT.Broker)
	c.MQTT.ClientID = getenvDefault("TAILGATE_MQTT_CLIENT_ID", c.MQTT.ClientID)
	c.MQTT.Topic = getenvDefault("TAILGATE_MQTT_TOPIC", c.MQTT.Topic)
	c.MQTT.Username = getenvDefault("TAILGATE_MQTT_USERNAME", c.MQTT.Username)
	c.MQTT.Password = getenvDefault("TAILGATE_MQTT_PASSWORD", c.MQTT.Password)
	c.MQTT.QoS = getenvInt("TAILGATE_MQTT_QOS", c.MQTT.QoS)

	c.Redis.Addr = getenvDefault("TAILGATE_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getenvDefault("TAILGATE_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getenvInt("TAILGATE_REDIS_DB", c.Redis.DB)
	c.Redis.Stream = getenvDefault("TAILGATE_REDIS_STREAM", c.Redis.Stream)
}

// normalize is fail-soft: bad values fall back to defaults instead of
// refusing to start.
func normalize(c *Config) {
	d := Defaults()
	if c.Env != "dev" && c.Env != "prod" {
		c.Env = d.Env
	}
	if c.WindowSeconds < 1 || c.WindowSeconds > 60 {
		c.WindowSeconds = d.WindowSeconds
	}
	if c.Mode != "tailgating" && c.Mode != "linecrossing" {
		c.Mode = d.Mode
	}
	if c.PruneIntervalHours <= 0 {
		c.PruneIntervalHours = d.PruneIntervalHours
	}
	if c.HistoryRetentionDays < 0 {
		c.HistoryRetentionDays = d.HistoryRetentionDays
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		c.MQTT.QoS = d.MQTT.QoS
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	switch {
	case v == "":
		return def
	case strings.EqualFold(v, "true") || v == "1":
		return true
	case strings.EqualFold(v, "false") || v == "0":
		return false
	default:
		return def
	}
}
