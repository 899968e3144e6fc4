package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreModePostgres = "postgres"
	StoreModeMemory   = "memory"
)

type Config struct {
	ServiceID string
	LogLevel  string

	HTTPPort int
	GRPCPort int

	StoreMode            string
	DatabaseURL          string
	MaxDBConns           int32
	RunMigrationsOnStart bool
	RedisURL             string
	KafkaBrokers         []string
	KafkaTopicPrefix     string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	JWTSecret   string
	CORSOrigins []string

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SendGridSandbox   bool
	AppURL            string
	NotifyTimeout     time.Duration
	NotifyQueueSize   int

	SignatureWindow       time.Duration
	ExpiringSoonWindow    time.Duration
	StatsCacheTTL         time.Duration
	PersistTimeout        time.Duration
	MaxTransitionAttempts int
	ExpirySweepSpec       string
	SweepBatchSize        int
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
		LogLevel string `yaml:"log_level"`
		Store    string `yaml:"store"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL      string   `yaml:"postgres_url"`
		MaxDBConns       int32    `yaml:"max_db_conns"`
		RunMigrations    *bool    `yaml:"run_migrations"`
		RedisURL         string   `yaml:"redis_url"`
		KafkaBrokers     []string `yaml:"kafka_brokers"`
		KafkaTopicPrefix string   `yaml:"kafka_topic_prefix"`
	} `yaml:"dependencies"`
	Outbox struct {
		PollSeconds int `yaml:"poll_seconds"`
		BatchSize   int `yaml:"batch_size"`
	} `yaml:"outbox"`
	HTTP struct {
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"http"`
	Notifications struct {
		FromEmail      string `yaml:"from_email"`
		FromName       string `yaml:"from_name"`
		Sandbox        *bool  `yaml:"sandbox"`
		AppURL         string `yaml:"app_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		QueueSize      int    `yaml:"queue_size"`
	} `yaml:"notifications"`
	Lease struct {
		SignatureWindowDays   int    `yaml:"signature_window_days"`
		ExpiringSoonDays      int    `yaml:"expiring_soon_days"`
		StatsCacheSeconds     int    `yaml:"stats_cache_seconds"`
		PersistTimeoutSeconds int    `yaml:"persist_timeout_seconds"`
		MaxTransitionAttempts int    `yaml:"max_transition_attempts"`
		ExpirySweepCron       string `yaml:"expiry_sweep_cron"`
		SweepBatchSize        int    `yaml:"sweep_batch_size"`
	} `yaml:"lease"`
}

// LoadConfig layers defaults, the yaml file at path (optional) and the
// environment, in that order. A .env file in the working directory is loaded
// into the environment first without overriding variables already set.
func LoadConfig(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		ServiceID:             "lease-service",
		LogLevel:              "info",
		HTTPPort:              8080,
		GRPCPort:              9090,
		StoreMode:             StoreModePostgres,
		MaxDBConns:            20,
		RunMigrationsOnStart:  true,
		OutboxPollInterval:    2 * time.Second,
		OutboxBatchSize:       100,
		SendGridFromName:      "Punta Leases",
		SendGridSandbox:       false,
		NotifyTimeout:         10 * time.Second,
		NotifyQueueSize:       256,
		SignatureWindow:       30 * 24 * time.Hour,
		ExpiringSoonWindow:    30 * 24 * time.Hour,
		StatsCacheTTL:         60 * time.Second,
		PersistTimeout:        5 * time.Second,
		MaxTransitionAttempts: 2,
		ExpirySweepSpec:       "@every 15m",
		SweepBatchSize:        200,
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := applyFile(&cfg, raw); err != nil {
			return Config{}, err
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	if f.Service.LogLevel != "" {
		cfg.LogLevel = f.Service.LogLevel
	}
	if f.Service.Store != "" {
		cfg.StoreMode = f.Service.Store
	}
	if f.Dependencies.PostgresURL != "" {
		cfg.DatabaseURL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.MaxDBConns > 0 {
		cfg.MaxDBConns = f.Dependencies.MaxDBConns
	}
	if f.Dependencies.RunMigrations != nil {
		cfg.RunMigrationsOnStart = *f.Dependencies.RunMigrations
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
	}
	cfg.KafkaTopicPrefix = f.Dependencies.KafkaTopicPrefix
	if f.Outbox.PollSeconds > 0 {
		cfg.OutboxPollInterval = time.Duration(f.Outbox.PollSeconds) * time.Second
	}
	if f.Outbox.BatchSize > 0 {
		cfg.OutboxBatchSize = f.Outbox.BatchSize
	}
	if len(f.HTTP.CORSOrigins) > 0 {
		cfg.CORSOrigins = trimNonEmpty(f.HTTP.CORSOrigins)
	}
	if f.Notifications.FromEmail != "" {
		cfg.SendGridFromEmail = f.Notifications.FromEmail
	}
	if f.Notifications.FromName != "" {
		cfg.SendGridFromName = f.Notifications.FromName
	}
	if f.Notifications.Sandbox != nil {
		cfg.SendGridSandbox = *f.Notifications.Sandbox
	}
	if f.Notifications.AppURL != "" {
		cfg.AppURL = f.Notifications.AppURL
	}
	if f.Notifications.TimeoutSeconds > 0 {
		cfg.NotifyTimeout = time.Duration(f.Notifications.TimeoutSeconds) * time.Second
	}
	if f.Notifications.QueueSize > 0 {
		cfg.NotifyQueueSize = f.Notifications.QueueSize
	}
	if f.Lease.SignatureWindowDays > 0 {
		cfg.SignatureWindow = days(f.Lease.SignatureWindowDays)
	}
	if f.Lease.ExpiringSoonDays > 0 {
		cfg.ExpiringSoonWindow = days(f.Lease.ExpiringSoonDays)
	}
	if f.Lease.StatsCacheSeconds > 0 {
		cfg.StatsCacheTTL = time.Duration(f.Lease.StatsCacheSeconds) * time.Second
	}
	if f.Lease.PersistTimeoutSeconds > 0 {
		cfg.PersistTimeout = time.Duration(f.Lease.PersistTimeoutSeconds) * time.Second
	}
	if f.Lease.MaxTransitionAttempts > 0 {
		cfg.MaxTransitionAttempts = f.Lease.MaxTransitionAttempts
	}
	if f.Lease.ExpirySweepCron != "" {
		cfg.ExpirySweepSpec = f.Lease.ExpirySweepCron
	}
	if f.Lease.SweepBatchSize > 0 {
		cfg.SweepBatchSize = f.Lease.SweepBatchSize
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.ServiceID = envOrDefault("SERVICE_ID", cfg.ServiceID)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.StoreMode = strings.ToLower(envOrDefault("LEASE_STORE", cfg.StoreMode))
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.RunMigrationsOnStart = envBool("RUN_MIGRATIONS", cfg.RunMigrationsOnStart)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopicPrefix = envOrDefault("KAFKA_TOPIC_PREFIX", cfg.KafkaTopicPrefix)
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.CORSOrigins = envCSV("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.SendGridAPIKey = envOrDefault("SENDGRID_API_KEY", cfg.SendGridAPIKey)
	cfg.SendGridFromEmail = envOrDefault("SENDGRID_FROM_EMAIL", cfg.SendGridFromEmail)
	cfg.SendGridFromName = envOrDefault("SENDGRID_FROM_NAME", cfg.SendGridFromName)
	cfg.SendGridSandbox = envBool("SENDGRID_SANDBOX", cfg.SendGridSandbox)
	cfg.AppURL = envOrDefault("APP_URL", cfg.AppURL)
	cfg.NotifyTimeout = time.Duration(envInt("NOTIFY_TIMEOUT_SECONDS", int(cfg.NotifyTimeout.Seconds()))) * time.Second
	cfg.NotifyQueueSize = envInt("NOTIFY_QUEUE_SIZE", cfg.NotifyQueueSize)
	cfg.SignatureWindow = days(envInt("SIGNATURE_WINDOW_DAYS", int(cfg.SignatureWindow.Hours()/24)))
	cfg.ExpiringSoonWindow = days(envInt("EXPIRING_SOON_DAYS", int(cfg.ExpiringSoonWindow.Hours()/24)))
	cfg.StatsCacheTTL = time.Duration(envInt("STATS_CACHE_SECONDS", int(cfg.StatsCacheTTL.Seconds()))) * time.Second
	cfg.PersistTimeout = time.Duration(envInt("PERSIST_TIMEOUT_SECONDS", int(cfg.PersistTimeout.Seconds()))) * time.Second
	cfg.MaxTransitionAttempts = envInt("MAX_TRANSITION_ATTEMPTS", cfg.MaxTransitionAttempts)
	cfg.ExpirySweepSpec = envOrDefault("EXPIRY_SWEEP_CRON", cfg.ExpirySweepSpec)
	cfg.SweepBatchSize = envInt("SWEEP_BATCH_SIZE", cfg.SweepBatchSize)
}

func (c Config) validate() error {
	switch c.StoreMode {
	case StoreModePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("missing DB_URL/POSTGRES_URL")
		}
	case StoreModeMemory:
	default:
		return fmt.Errorf("unknown store mode %q (want %s or %s)", c.StoreMode, StoreModePostgres, StoreModeMemory)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("missing JWT_SECRET")
	}
	if c.SendGridAPIKey != "" && c.SendGridFromEmail == "" {
		return fmt.Errorf("missing SENDGRID_FROM_EMAIL")
	}
	return nil
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
