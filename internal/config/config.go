package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Pipeline PipelineConfig
	Scoring  ScoringConfig
	Events   EventsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig holds the shared secret for verifying identity-provider tokens.
type AuthConfig struct {
	JWTSecret string
}

// PipelineConfig tunes ingestion, assignment and escalation behavior.
type PipelineConfig struct {
	DefaultBandwidthMinutes int
	AdmitThreshold          int
	EscalationCeiling       int
	SweepIntervalSeconds    int
	SweepBatchSize          int
}

// ScoringConfig bounds the reply sub-scores. The exact weighting is tunable;
// the defaults reconstruct the aggregate fields the reporting layer expects.
type ScoringConfig struct {
	SpeedMax       int
	SpeedFloor     int
	QualityMax     int
	OutcomeMax     int
	OutcomeNeutral int
	MinBodyChars   int
	MaxBodyChars   int
}

// EventsConfig configures the realtime event feed.
type EventsConfig struct {
	ChannelPrefix string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "orbit-inquiry-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", "dev-secret"),
		},
		Pipeline: PipelineConfig{
			DefaultBandwidthMinutes: getEnvAsInt("PIPELINE_DEFAULT_BANDWIDTH_MINUTES", 240),
			AdmitThreshold:          getEnvAsInt("PIPELINE_ADMIT_THRESHOLD", 40),
			EscalationCeiling:       getEnvAsInt("PIPELINE_ESCALATION_CEILING", 3),
			SweepIntervalSeconds:    getEnvAsInt("PIPELINE_SWEEP_INTERVAL_SECONDS", 60),
			SweepBatchSize:          getEnvAsInt("PIPELINE_SWEEP_BATCH_SIZE", 100),
		},
		Scoring: ScoringConfig{
			SpeedMax:       getEnvAsInt("SCORING_SPEED_MAX", 40),
			SpeedFloor:     getEnvAsInt("SCORING_SPEED_FLOOR", 5),
			QualityMax:     getEnvAsInt("SCORING_QUALITY_MAX", 30),
			OutcomeMax:     getEnvAsInt("SCORING_OUTCOME_MAX", 30),
			OutcomeNeutral: getEnvAsInt("SCORING_OUTCOME_NEUTRAL", 15),
			MinBodyChars:   getEnvAsInt("SCORING_MIN_BODY_CHARS", 40),
			MaxBodyChars:   getEnvAsInt("SCORING_MAX_BODY_CHARS", 4000),
		},
		Events: EventsConfig{
			ChannelPrefix: getEnv("EVENTS_CHANNEL_PREFIX", "orbit"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SweepInterval returns the escalation sweep cadence.
func (p PipelineConfig) SweepInterval() time.Duration {
	if p.SweepIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(p.SweepIntervalSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
