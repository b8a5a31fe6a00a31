package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the delivery access service.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string

	JWTPrivateKeyPEM  string
	JWTPublicKeyPEM   string
	JWTKeyID          string
	AllowEphemeralJWT bool

	BcryptCost int

	AccessTokenTTL         time.Duration
	SignedURLTTL           time.Duration
	FailedAttemptThreshold int
	AttemptCoolDown        time.Duration

	StorageBaseURL       string
	StorageBucket        string
	StorageSigningSecret string

	KafkaTopicDownloads string
	KafkaTopicLifecycle string
	KafkaTopicPayments  string

	MaxDBConns         int32
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
	} `yaml:"dependencies"`
	Storage struct {
		BaseURL       string `yaml:"base_url"`
		Bucket        string `yaml:"bucket"`
		SigningSecret string `yaml:"signing_secret"`
	} `yaml:"storage"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:              "delivery-access-service",
		HTTPPort:               8080,
		GRPCPort:               9090,
		JWTKeyID:               "delivery-access-key-1",
		AllowEphemeralJWT:      true,
		BcryptCost:             12,
		AccessTokenTTL:         time.Hour,
		SignedURLTTL:           time.Hour,
		FailedAttemptThreshold: 5,
		AttemptCoolDown:        15 * time.Minute,
		StorageBucket:          "deliveries",
		KafkaTopicDownloads:    "delivery.downloads",
		KafkaTopicLifecycle:    "delivery.lifecycle",
		KafkaTopicPayments:     "delivery.payments",
		MaxDBConns:             20,
		OutboxPollInterval:     2 * time.Second,
		OutboxBatchSize:        100,
		OutboxClaimTTL:         30 * time.Second,
		OutboxMaxRetries:       5,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
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
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Storage.BaseURL != "" {
			cfg.StorageBaseURL = f.Storage.BaseURL
		}
		if f.Storage.Bucket != "" {
			cfg.StorageBucket = f.Storage.Bucket
		}
		if f.Storage.SigningSecret != "" {
			cfg.StorageSigningSecret = f.Storage.SigningSecret
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.JWTPrivateKeyPEM = envOrDefault("JWT_PRIVATE_KEY_PEM", cfg.JWTPrivateKeyPEM)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.JWTKeyID = envOrDefault("JWT_KEY_ID", cfg.JWTKeyID)
	cfg.AllowEphemeralJWT = envBool("JWT_ALLOW_EPHEMERAL", cfg.AllowEphemeralJWT)
	cfg.StorageBaseURL = envOrDefault("STORAGE_BASE_URL", cfg.StorageBaseURL)
	cfg.StorageBucket = envOrDefault("STORAGE_BUCKET", cfg.StorageBucket)
	cfg.StorageSigningSecret = envOrDefault("STORAGE_SIGNING_SECRET", cfg.StorageSigningSecret)
	cfg.KafkaTopicDownloads = envOrDefault("KAFKA_TOPIC_DOWNLOADS", cfg.KafkaTopicDownloads)
	cfg.KafkaTopicLifecycle = envOrDefault("KAFKA_TOPIC_LIFECYCLE", cfg.KafkaTopicLifecycle)
	cfg.KafkaTopicPayments = envOrDefault("KAFKA_TOPIC_PAYMENTS", cfg.KafkaTopicPayments)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.FailedAttemptThreshold = envInt("FAILED_ATTEMPT_THRESHOLD", cfg.FailedAttemptThreshold)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.AccessTokenTTL = time.Duration(envInt("ACCESS_TOKEN_TTL_SECONDS", int(cfg.AccessTokenTTL.Seconds()))) * time.Second
	cfg.SignedURLTTL = time.Duration(envInt("SIGNED_URL_TTL_SECONDS", int(cfg.SignedURLTTL.Seconds()))) * time.Second
	cfg.AttemptCoolDown = time.Duration(envInt("ATTEMPT_COOLDOWN_MINUTES", int(cfg.AttemptCoolDown.Minutes()))) * time.Minute
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.StorageBaseURL == "" {
		return Config{}, fmt.Errorf("missing STORAGE_BASE_URL")
	}
	if cfg.StorageSigningSecret == "" {
		return Config{}, fmt.Errorf("missing STORAGE_SIGNING_SECRET")
	}
	if (cfg.JWTPrivateKeyPEM == "" || cfg.JWTPublicKeyPEM == "") && !cfg.AllowEphemeralJWT {
		return Config{}, fmt.Errorf("missing JWT_PRIVATE_KEY_PEM or JWT_PUBLIC_KEY_PEM")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
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

// envBool parses common boolean env forms while keeping a deterministic fallback.
func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := trimNonEmpty(strings.Split(raw, ","))
	if len(parts) == 0 {
		return fallback
	}
	return parts
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
