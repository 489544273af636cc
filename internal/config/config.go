package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendLevelDB  = "leveldb"
	BackendS3       = "s3"
	BackendMemory   = "memory"
)

// Event publishers.
const (
	EventsNone  = "none"
	EventsLog   = "log"
	EventsKafka = "kafka"
	EventsSQS   = "sqs"
)

type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	StoreBackend string `mapstructure:"STORE_BACKEND"`
	DataFile     string `mapstructure:"DATA_FILE"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DBMaxConns   int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns   int32  `mapstructure:"DB_MIN_CONNS"`
	LevelDBPath  string `mapstructure:"LEVELDB_PATH"`
	S3Bucket     string `mapstructure:"S3_BUCKET"`
	S3Key        string `mapstructure:"S3_KEY"`
	S3Endpoint   string `mapstructure:"S3_ENDPOINT"`

	EventsBackend string   `mapstructure:"EVENTS_BACKEND"`
	KafkaBrokers  []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic    string   `mapstructure:"KAFKA_TOPIC"`
	SQSQueueURL   string   `mapstructure:"SQS_QUEUE_URL"`

	WatchPatientName string `mapstructure:"WATCH_PATIENT_NAME"`
	WatchPatientID   string `mapstructure:"WATCH_PATIENT_ID"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
	BodyLimit   string   `mapstructure:"BODY_LIMIT"`

	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
}

var keys = []string{
	"PORT", "ENV",
	"STORE_BACKEND", "DATA_FILE", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"LEVELDB_PATH", "S3_BUCKET", "S3_KEY", "S3_ENDPOINT",
	"EVENTS_BACKEND", "KAFKA_BROKERS", "KAFKA_TOPIC", "SQS_QUEUE_URL",
	"WATCH_PATIENT_NAME", "WATCH_PATIENT_ID",
	"CORS_ORIGINS", "BODY_LIMIT",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT",
}

// Load reads configuration from the environment and an optional .env file in
// the working directory. It does not validate; call Validate before use.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE_BACKEND", BackendFile)
	v.SetDefault("DATA_FILE", "./data/data.json")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("LEVELDB_PATH", "./data/leveldb")
	v.SetDefault("S3_KEY", "consent-ledger/snapshot.json")
	v.SetDefault("EVENTS_BACKEND", EventsLog)
	v.SetDefault("KAFKA_TOPIC", "consent-events")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("REQUEST_TIMEOUT", "30s")

	// Unmarshal only sees env vars that are bound explicitly.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Missing .env is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(cfg.CORSOrigins)
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers)
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.EventsBackend = strings.ToLower(strings.TrimSpace(cfg.EventsBackend))

	return cfg, nil
}

// splitList trims entries and drops empty ones. A single entry holding
// commas is split.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks the settings required by the selected store backend and
// event publisher.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFile:
		if c.DataFile == "" {
			return fmt.Errorf("DATA_FILE is required when STORE_BACKEND is %q", BackendFile)
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is %q", BackendPostgres)
		}
		if c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
		}
	case BackendLevelDB:
		if c.LevelDBPath == "" {
			return fmt.Errorf("LEVELDB_PATH is required when STORE_BACKEND is %q", BackendLevelDB)
		}
	case BackendS3:
		if c.S3Bucket == "" || c.S3Key == "" {
			return fmt.Errorf("S3_BUCKET and S3_KEY are required when STORE_BACKEND is %q", BackendS3)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be one of file, postgres, leveldb, s3, memory, got %q", c.StoreBackend)
	}

	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when RATE_LIMIT_RPS is set, got %d", c.RateLimitBurst)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must not be negative, got %s", c.RequestTimeout)
	}

	switch c.EventsBackend {
	case EventsNone, EventsLog:
	case EventsKafka:
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
			return fmt.Errorf("KAFKA_BROKERS and KAFKA_TOPIC are required when EVENTS_BACKEND is %q", EventsKafka)
		}
	case EventsSQS:
		if c.SQSQueueURL == "" {
			return fmt.Errorf("SQS_QUEUE_URL is required when EVENTS_BACKEND is %q", EventsSQS)
		}
	default:
		return fmt.Errorf("EVENTS_BACKEND must be one of none, log, kafka, sqs, got %q", c.EventsBackend)
	}

	return nil
}
