package config

import (
	"time"

	"github.com/drdata1010/plan-b-backend-sub001/pkg/database"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/log"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/storage"
	pkgconfig "github.com/drdata1010/plan-b-backend-sub001/pkg/config"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig
	Database  database.Config
	Auth      AuthConfig
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Relay     RelayConfig
	Storage   StorageConfig
	AI        AIConfig `mapstructure:"ai"`
	Events    EventsConfig
	Log       log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

// AuthConfig selects and configures the identity provider. Provider is
// resolved exactly once at startup; "synthetic" exists for development
// environments without an identity provider and must never be used in
// production config files.
type AuthConfig struct {
	Required        bool          `mapstructure:"required"`
	Provider        string        `mapstructure:"provider"` // "jwt" or "synthetic"
	TokenCacheTTL   time.Duration `mapstructure:"token_cache_ttl"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	Issuer          string        `mapstructure:"issuer"`
}

type WebSocketConfig struct {
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	MessageMaxSize  int           `mapstructure:"message_max_size"`
	SendBufferLimit int64         `mapstructure:"send_buffer_limit"`
	SendTimeLimit   time.Duration `mapstructure:"send_time_limit"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	PongWait        time.Duration `mapstructure:"pong_wait"`
}

// RelayConfig configures delegation of broker fan-out to an external Redis
// relay so multiple instances share one destination space. Unavailability of
// the relay is fatal at startup, never retried per message.
type RelayConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type StorageConfig struct {
	Backend string             `mapstructure:"backend"` // "s3" or "local"
	S3      storage.S3Config   `mapstructure:"s3"`
	Local   storage.LocalConfig `mapstructure:"local"`
}

type AIConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	History     int     `mapstructure:"history"` // messages of context per completion
}

type EventsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// Load reads configuration from ./config/config.yaml and the environment.
func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.file_path", "support-ticket.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("auth.required", false)
	v.SetDefault("auth.provider", "jwt")
	v.SetDefault("auth.token_cache_ttl", "5m")
	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "168h")
	v.SetDefault("auth.issuer", "plan-b-support")

	v.SetDefault("websocket.allowed_origins", []string{"*"})
	v.SetDefault("websocket.message_max_size", 65536)
	v.SetDefault("websocket.send_buffer_limit", 524288)
	v.SetDefault("websocket.send_time_limit", "15s")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")

	v.SetDefault("relay.enabled", false)
	v.SetDefault("relay.host", "localhost")
	v.SetDefault("relay.port", 6379)
	v.SetDefault("relay.db", 0)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local.base_path", "./data/attachments")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.max_tokens", 512)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.history", 20)

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.brokers", "localhost:9092")
	v.SetDefault("events.topic", "support-ticket-events")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "support-ticket")

	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("auth.required", "AUTH_REQUIRED")
	v.BindEnv("relay.host", "RELAY_HOST")
	v.BindEnv("relay.password", "RELAY_PASSWORD")
	v.BindEnv("storage.s3.access_key_id", "AWS_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("ai.api_key", "OPENAI_API_KEY")
	v.BindEnv("events.brokers", "KAFKA_BROKERS")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
