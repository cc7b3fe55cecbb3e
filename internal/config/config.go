package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Cron       CronConfig       `mapstructure:"cron"`
	ChangeFeed ChangeFeedConfig `mapstructure:"changefeed"`
	Stats      StatsConfig      `mapstructure:"stats"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Vision     VisionConfig     `mapstructure:"vision"`
	Trades     TradesConfig     `mapstructure:"trades"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	Disabled  bool   `mapstructure:"disabled"`
}

type CronConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	StatsRebuild string `mapstructure:"stats_rebuild"`
}

type ChangeFeedConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Mode is "redis" (stream + consumer group) or "direct" (relay feeds the processor in-process).
	Mode          string        `mapstructure:"mode"`
	Stream        string        `mapstructure:"stream"`
	Group         string        `mapstructure:"group"`
	Consumer      string        `mapstructure:"consumer"`
	BatchSize     int64         `mapstructure:"batch_size"`
	Block         time.Duration `mapstructure:"block"`
	ClaimMinIdle  time.Duration `mapstructure:"claim_min_idle"`
	MaxLen        int64         `mapstructure:"max_len"`
	RelayInterval time.Duration `mapstructure:"relay_interval"`
	RelayBatch    int           `mapstructure:"relay_batch"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	DedupTTL      time.Duration `mapstructure:"dedup_ttl"`
}

type StatsConfig struct {
	PageSize     int `mapstructure:"page_size"`
	ScanPageSize int `mapstructure:"scan_page_size"`
}

type StorageConfig struct {
	Bucket        string        `mapstructure:"bucket"`
	Region        string        `mapstructure:"region"`
	Endpoint      string        `mapstructure:"endpoint"`
	PresignTTL    time.Duration `mapstructure:"presign_ttl"`
	MaxImageBytes int64         `mapstructure:"max_image_bytes"`
}

type VisionConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxTokens      int64         `mapstructure:"max_tokens"`
	MaxImageBase64 int           `mapstructure:"max_image_base64"`
}

type TradesConfig struct {
	MaxBulk       int `mapstructure:"max_bulk"`
	MaxBulkDelete int `mapstructure:"max_bulk_delete"`
}

func Load(path string, envOnly bool) (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TJ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.disabled", false)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.stats_rebuild", "@every 1h")

	v.SetDefault("changefeed.enabled", true)
	v.SetDefault("changefeed.mode", "direct")
	v.SetDefault("changefeed.stream", "trades:changes")
	v.SetDefault("changefeed.group", "trade-stats")
	v.SetDefault("changefeed.consumer", "journal-1")
	v.SetDefault("changefeed.batch_size", 25)
	v.SetDefault("changefeed.block", "5s")
	v.SetDefault("changefeed.claim_min_idle", "1m")
	v.SetDefault("changefeed.max_len", 100000)
	v.SetDefault("changefeed.relay_interval", "2s")
	v.SetDefault("changefeed.relay_batch", 100)
	v.SetDefault("changefeed.max_attempts", 10)
	v.SetDefault("changefeed.dedup_ttl", "24h")

	v.SetDefault("stats.page_size", 200)
	v.SetDefault("stats.scan_page_size", 1000)

	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.presign_ttl", "15m")
	v.SetDefault("storage.max_image_bytes", 5*1024*1024)

	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.model", "claude-sonnet-4-5")
	v.SetDefault("vision.timeout", "80s")
	v.SetDefault("vision.max_tokens", 4096)
	v.SetDefault("vision.max_image_base64", 4000000)

	v.SetDefault("trades.max_bulk", 50)
	v.SetDefault("trades.max_bulk_delete", 50)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
