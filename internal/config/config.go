package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/alecbaum/wagl-backend-sub002/internal/dispatcher"
	"github.com/alecbaum/wagl-backend-sub002/internal/ratelimit"
	"github.com/alecbaum/wagl-backend-sub002/internal/relay"
	pkgconfig "github.com/alecbaum/wagl-backend-sub002/pkg/config"
	"github.com/alecbaum/wagl-backend-sub002/pkg/database"
	pkglog "github.com/alecbaum/wagl-backend-sub002/pkg/log"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	RateLimit  ratelimit.Config  `mapstructure:"rate_limit"`
	Relay      relay.Config      `mapstructure:"relay"`
	Dispatcher dispatcher.Config `mapstructure:"dispatcher"`
	WebSocket  WebSocketConfig   `mapstructure:"websocket"`
	Log        pkglog.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string `mapstructure:"db_name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// ToDatabaseConfig adapts the section to the shared database package.
func (c DatabaseConfig) ToDatabaseConfig() *database.Config {
	return &database.Config{
		Driver:          c.Driver,
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		DBName:          c.DBName,
		SSLMode:         c.SSLMode,
		FilePath:        c.FilePath,
		MaxIdleConns:    c.MaxIdleConns,
		MaxOpenConns:    c.MaxOpenConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessDuration time.Duration `mapstructure:"access_duration"`
	Issuer         string
	WebhookSecret  string        `mapstructure:"webhook_secret"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.db_name", "chat_sessions")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_duration", "1h")
	v.SetDefault("auth.issuer", "wagl-backend")
	v.SetDefault("auth.webhook_secret", "")
	v.SetDefault("rate_limit.window", "1h")
	v.SetDefault("rate_limit.provider_limit", 10000)
	v.SetDefault("relay.base_url", "http://localhost:9000")
	v.SetDefault("relay.api_key", "")
	v.SetDefault("relay.rate_per_sec", 50)
	v.SetDefault("relay.burst", 10)
	v.SetDefault("relay.room_pool", []int{1, 2, 3})
	v.SetDefault("relay.pipeline.attempt_timeout", "5s")
	v.SetDefault("relay.pipeline.retry.max_attempts", 3)
	v.SetDefault("relay.pipeline.retry.base_delay", "1s")
	v.SetDefault("relay.pipeline.retry.max_delay", "30s")
	v.SetDefault("relay.pipeline.retry.multiplier", 2.0)
	v.SetDefault("relay.pipeline.retry.exponential", true)
	v.SetDefault("relay.pipeline.retry.jitter", true)
	v.SetDefault("relay.pipeline.breaker.failure_threshold", 0.5)
	v.SetDefault("relay.pipeline.breaker.min_throughput", 10)
	v.SetDefault("relay.pipeline.breaker.sampling_window", "30s")
	v.SetDefault("relay.pipeline.breaker.break_duration", "30s")
	v.SetDefault("dispatcher.workers", 4)
	v.SetDefault("dispatcher.queue_size", 256)
	v.SetDefault("dispatcher.task_ttl", "30s")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "wagl-backend")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.db_name", "DB_NAME")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.webhook_secret", "WEBHOOK_SECRET")
	v.BindEnv("relay.base_url", "RELAY_BASE_URL")
	v.BindEnv("relay.api_key", "RELAY_API_KEY")
	v.BindEnv("rate_limit.provider_limit", "PROVIDER_RATE_LIMIT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Auth.AccessDuration = parseDuration(v, "auth.access_duration", time.Hour)
	cfg.RateLimit.Window = parseDuration(v, "rate_limit.window", time.Hour)
	cfg.Relay.Pipeline.AttemptTimeout = parseDuration(v, "relay.pipeline.attempt_timeout", 5*time.Second)
	cfg.Relay.Pipeline.Retry.BaseDelay = parseDuration(v, "relay.pipeline.retry.base_delay", time.Second)
	cfg.Relay.Pipeline.Retry.MaxDelay = parseDuration(v, "relay.pipeline.retry.max_delay", 30*time.Second)
	cfg.Relay.Pipeline.Breaker.SamplingWindow = parseDuration(v, "relay.pipeline.breaker.sampling_window", 30*time.Second)
	cfg.Relay.Pipeline.Breaker.BreakDuration = parseDuration(v, "relay.pipeline.breaker.break_duration", 30*time.Second)
	cfg.Dispatcher.TaskTTL = parseDuration(v, "dispatcher.task_ttl", 30*time.Second)
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
