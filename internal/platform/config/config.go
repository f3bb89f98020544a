package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process-wide configuration, read once at startup.
type Config struct {
	Server       Server
	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Registration Registration
	Tasks        TasksConfig
	Plugins      PluginsConfig
	Forms        FormsConfig
	RateLimit    RateLimitConfig
	Log          LogConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	ShutdownGrace time.Duration
}

// DatabaseConfig points at the Postgres database. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// AutoMigrate applies the embedded schema at startup.
	AutoMigrate bool
}

// RedisConfig configures the Redis client used for registration locks.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the background task queue. No brokers selects the
// in-process queue.
type KafkaConfig struct {
	Brokers           []string
	TaskTopic         string
	ConsumerGroup     string
	Partitions        int
	ReplicationFactor int
}

// Registration holds the registration policy flags.
type Registration struct {
	// AttemptLimit caps automatic registration attempts per submission.
	AttemptLimit int
	// WaitForPaymentToRegister defers registration until payment is received.
	WaitForPaymentToRegister bool
	// LockTTL bounds how long one worker may hold a submission's registration lock.
	LockTTL time.Duration
	// RetryInterval is the period of the failed-registration sweep.
	RetryInterval time.Duration
}

// TasksConfig sizes the background worker pool.
type TasksConfig struct {
	Workers int
	// QueueSize bounds the in-process queue.
	QueueSize int
}

// PluginsConfig points the prefill and registration plugins at their backends. A
// plugin without a URL is registered disabled.
type PluginsConfig struct {
	StaticPrefill     map[string]any
	PrefillURL        string
	PrefillAPIKey     string
	JSONDumpURL       string
	JSONDumpAPIKey    string
	AppointmentsURL   string
	AppointmentsKey   string
	AppointmentsName  string
	Timezone          string
	HTTPClientTimeout time.Duration
}

// FormsConfig points at a directory of JSON form documents loaded at startup.
type FormsConfig struct {
	Dir string
}

// RateLimitConfig caps per-client requests on the submission start and retry
// endpoints. Zero disables a limit.
type RateLimitConfig struct {
	StartPerWindow int
	RetryPerWindow int
	Window         time.Duration
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

const (
	DefaultAttemptLimit = 5
	DefaultLockTTL      = 5 * time.Minute
)

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          getEnv("FORMFLOW_ADDR", ":8080"),
			ShutdownGrace: getEnvDuration("SHUTDOWN_GRACE", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getEnvInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     getEnvBool("DATABASE_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:           splitList(os.Getenv("KAFKA_BROKERS")),
			TaskTopic:         getEnv("KAFKA_TASK_TOPIC", "formflow.tasks"),
			ConsumerGroup:     getEnv("KAFKA_CONSUMER_GROUP", "formflow-workers"),
			Partitions:        getEnvInt("KAFKA_TASK_PARTITIONS", 6),
			ReplicationFactor: getEnvInt("KAFKA_REPLICATION_FACTOR", 1),
		},
		Registration: Registration{
			AttemptLimit:             getEnvInt("REGISTRATION_ATTEMPT_LIMIT", DefaultAttemptLimit),
			WaitForPaymentToRegister: getEnvBool("WAIT_FOR_PAYMENT_TO_REGISTER", false),
			LockTTL:                  getEnvDuration("REGISTRATION_LOCK_TTL", DefaultLockTTL),
			RetryInterval:            getEnvDuration("REGISTRATION_RETRY_INTERVAL", 5*time.Minute),
		},
		Tasks: TasksConfig{
			Workers:   getEnvInt("TASK_WORKERS", 4),
			QueueSize: getEnvInt("TASK_QUEUE_SIZE", 256),
		},
		Plugins: PluginsConfig{
			StaticPrefill:     getEnvJSONObject("PREFILL_STATIC_VALUES"),
			PrefillURL:        os.Getenv("PREFILL_HTTPJSON_URL"),
			PrefillAPIKey:     os.Getenv("PREFILL_HTTPJSON_API_KEY"),
			JSONDumpURL:       os.Getenv("REGISTRATION_JSON_DUMP_URL"),
			JSONDumpAPIKey:    os.Getenv("REGISTRATION_JSON_DUMP_API_KEY"),
			AppointmentsURL:   os.Getenv("APPOINTMENTS_URL"),
			AppointmentsKey:   os.Getenv("APPOINTMENTS_API_KEY"),
			AppointmentsName:  getEnv("APPOINTMENTS_BACKEND", "appointments-http"),
			Timezone:          getEnv("TIME_ZONE", "Europe/Amsterdam"),
			HTTPClientTimeout: getEnvDuration("PLUGIN_HTTP_TIMEOUT", 10*time.Second),
		},
		Forms: FormsConfig{
			Dir: os.Getenv("FORMS_DIR"),
		},
		RateLimit: RateLimitConfig{
			StartPerWindow: getEnvInt("RATE_LIMIT_START", 30),
			RetryPerWindow: getEnvInt("RATE_LIMIT_RETRY", 10),
			Window:         getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// getEnvJSONObject reads a JSON object. Invalid JSON yields nil.
func getEnvJSONObject(key string) map[string]any {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(v), &out); err != nil {
		return nil
	}
	return out
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
