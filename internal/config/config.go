package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint           string
	AccessKey          string
	SecretKey          string
	BucketAttachments  string
	UseSSL             bool
	Region             string
	PublicURL          string
	MaxAttachmentBytes int64
}

type SecurityConfig struct {
	JWTSecret         string
	JWTTTL            time.Duration
	PasswordCost      int
	MinPasswordLength int
}

type RealtimeConfig struct {
	RoomPrefix      string
	PresenceTTL     time.Duration
	WriteTimeout    time.Duration
	PongWait        time.Duration
	MaxMessageBytes int64
	SendBuffer      int
}

type JobsConfig struct {
	PresenceSweep string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Realtime         RealtimeConfig
	Jobs             JobsConfig
	AllowCORSOrigins []string
}

var (
	ErrMissingJWTSecret   = errors.New("security.jwtsecret is required")
	ErrMissingPostgresDSN = errors.New("postgres.dsn is required")
)

func Load() (*AppConfig, error) {
	// .env is a convenience for local runs; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("INFCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate reports settings the process cannot start without.
func (c *AppConfig) Validate() error {
	if c.Security.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.Postgres.DSN == "" {
		return ErrMissingPostgresDSN
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	// AutomaticEnv only resolves keys viper already knows about.
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 10)
	v.SetDefault("postgres.maxidle", 2)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.endpoint", "127.0.0.1:9000")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucketattachments", "infchat-attachments")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.publicurl", "")
	v.SetDefault("storage.maxattachmentbytes", 10<<20)

	v.SetDefault("security.jwtsecret", "")
	v.SetDefault("security.jwtttl", "720h") // 30 days
	v.SetDefault("security.passwordcost", 12)
	v.SetDefault("security.minpasswordlength", 6)

	v.SetDefault("realtime.roomprefix", "user_")
	v.SetDefault("realtime.presencettl", "90s")
	v.SetDefault("realtime.writetimeout", "10s")
	v.SetDefault("realtime.pongwait", "60s")
	v.SetDefault("realtime.maxmessagebytes", 8192)
	v.SetDefault("realtime.sendbuffer", 64)

	v.SetDefault("jobs.presencesweep", "0 */1 * * * *")

	v.SetDefault("allowcorsorigins", "http://localhost:3000")
}
