package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Broker   BrokerConfig
	Storage  StorageConfig
	Google   GoogleOAuthConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type DatabaseConfig struct {
	URL            string
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	MigrationsPath string
	AutoMigrate    bool
}

// DSN prefers DATABASE_URL and falls back to the discrete DB_* settings.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	FeedTTL    time.Duration
	CounterTTL time.Duration
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

const (
	BrokerDirect = "direct"
	BrokerAMQP   = "amqp"
	BrokerNATS   = "nats"
)

type BrokerConfig struct {
	Kind        string
	AMQPURL     string
	AMQPQueue   string
	NATSURL     string
	NATSSubject string
}

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

type StorageConfig struct {
	Driver          string
	LocalDir        string
	LocalPublicURL  string
	Endpoint        string
	AccountID       string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
}

type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type LogConfig struct {
	Level string
}

// Load reads configuration from the environment, an optional .env file and
// an optional file named by CONFIG_FILE.
func Load() (*Config, error) {
	// .env is optional in deployed environments
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Env: v.GetString("ENV"),
		Server: ServerConfig{
			Port:            v.GetString("PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			AllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			URL:            v.GetString("DATABASE_URL"),
			Host:           v.GetString("DB_HOST"),
			Port:           v.GetString("DB_PORT"),
			User:           v.GetString("DB_USER"),
			Password:       v.GetString("DB_PASSWORD"),
			Name:           v.GetString("DB_NAME"),
			SSLMode:        v.GetString("DB_SSLMODE"),
			MaxOpenConns:   v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:   v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxLifetime:    v.GetDuration("DB_MAX_LIFETIME"),
			MigrationsPath: v.GetString("MIGRATIONS_PATH"),
			AutoMigrate:    v.GetBool("AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("JWT_SECRET"),
			AccessTTL:  v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTTL: v.GetDuration("JWT_REFRESH_TTL"),
		},
		Redis: RedisConfig{
			Addr:       v.GetString("REDIS_ADDR"),
			Password:   v.GetString("REDIS_PASSWORD"),
			DB:         v.GetInt("REDIS_DB"),
			FeedTTL:    v.GetDuration("CACHE_FEED_TTL"),
			CounterTTL: v.GetDuration("CACHE_COUNTER_TTL"),
		},
		Broker: BrokerConfig{
			Kind:        strings.ToLower(v.GetString("NOTIFY_BROKER")),
			AMQPURL:     v.GetString("AMQP_URL"),
			AMQPQueue:   v.GetString("AMQP_QUEUE"),
			NATSURL:     v.GetString("NATS_URL"),
			NATSSubject: v.GetString("NATS_SUBJECT"),
		},
		Storage: StorageConfig{
			Driver:          strings.ToLower(v.GetString("STORAGE_DRIVER")),
			LocalDir:        v.GetString("LOCAL_UPLOAD_DIR"),
			LocalPublicURL:  v.GetString("LOCAL_PUBLIC_URL"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			AccountID:       v.GetString("CLOUDFLARE_ACCOUNT_ID"),
			Region:          v.GetString("S3_REGION"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			Bucket:          v.GetString("S3_BUCKET"),
			PublicURL:       v.GetString("S3_PUBLIC_URL"),
		},
		Google: GoogleOAuthConfig{
			ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "production")
	v.SetDefault("PORT", "5000")
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "bluewhale")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MAX_LIFETIME", 5*time.Minute)
	v.SetDefault("MIGRATIONS_PATH", "migrations")
	v.SetDefault("AUTO_MIGRATE", true)

	v.SetDefault("JWT_ACCESS_TTL", 7*24*time.Hour)
	v.SetDefault("JWT_REFRESH_TTL", 30*24*time.Hour)

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_FEED_TTL", 60*time.Second)
	v.SetDefault("CACHE_COUNTER_TTL", 5*time.Minute)

	v.SetDefault("NOTIFY_BROKER", BrokerDirect)
	v.SetDefault("AMQP_QUEUE", "notifications")
	v.SetDefault("NATS_SUBJECT", "bluewhale.notifications")

	v.SetDefault("STORAGE_DRIVER", StorageLocal)
	v.SetDefault("LOCAL_UPLOAD_DIR", "uploads")
	v.SetDefault("LOCAL_PUBLIC_URL", "/uploads")
	v.SetDefault("S3_REGION", "auto")

	v.SetDefault("LOG_LEVEL", "info")
}

// Validate checks required settings and the enumerated options.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}

	switch c.Broker.Kind {
	case "", BrokerDirect:
	case BrokerAMQP:
		if c.Broker.AMQPURL == "" {
			return errors.New("AMQP_URL is required when NOTIFY_BROKER=amqp")
		}
	case BrokerNATS:
		if c.Broker.NATSURL == "" {
			return errors.New("NATS_URL is required when NOTIFY_BROKER=nats")
		}
	default:
		return fmt.Errorf("unknown NOTIFY_BROKER %q", c.Broker.Kind)
	}

	switch c.Storage.Driver {
	case StorageLocal:
	case StorageS3:
		if c.Storage.Bucket == "" || c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "" {
			return errors.New("S3_BUCKET, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required when STORAGE_DRIVER=s3")
		}
		if c.Storage.Endpoint == "" && c.Storage.AccountID == "" {
			return errors.New("S3_ENDPOINT or CLOUDFLARE_ACCOUNT_ID is required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
