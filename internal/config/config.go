package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	commoncfg "ctam-data/common/config"

	"github.com/joho/godotenv"
)

// Store modes.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRemote   = "remote"
)

// Config ctam-data (HTTP API) configuration.
type Config struct {
	HTTP struct {
		Addr string
	}
	// StoreMode selects the persistence backend: memory, postgres or remote.
	StoreMode  string
	Database   commoncfg.DatabaseConfig
	Redis      commoncfg.RedisConfig
	Session    SessionConfig
	Backend    BackendConfig
	Resilience ResilienceConfig
	Events     EventsConfig
	Provision  ProvisionConfig
	Bootstrap  BootstrapConfig
	Log        struct {
		Level  string
		Format string
	}
}

// SessionConfig access/refresh token settings.
type SessionConfig struct {
	Store      string // redis | leveldb | memory
	LevelDBDir string
	JWTSecret  string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// BackendConfig hosted REST backend (PostgREST-style) used when StoreMode=remote.
type BackendConfig struct {
	BaseURL         string
	AnonKey         string
	ServiceEmail    string
	ServicePassword string
	Timeout         time.Duration
	// RefreshBefore refreshes the bearer token when less than this remains.
	RefreshBefore time.Duration
}

// ResilienceConfig retry and circuit breaker tuning for backend calls.
type ResilienceConfig struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	BreakerCooldown time.Duration
	BreakerMaxDelay time.Duration
}

// EventsConfig status-change event publishing.
type EventsConfig struct {
	Kind         string // none | mqtt | redis
	MQTT         commoncfg.MQTTConfig
	TopicPrefix  string
	Stream       string
	StreamMaxLen int64
}

// ProvisionConfig health-office credential provisioning.
type ProvisionConfig struct {
	EmailDomain string
}

// BootstrapConfig first central_admin login, seeded when missing.
type BootstrapConfig struct {
	SeedAdmin     bool
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.StoreMode = strings.ToLower(getEnv("STORE_MODE", StoreMemory))

	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "ctam"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxConns = 20
	cfg.Database.MaxIdle = 5
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.Session.Store = strings.ToLower(getEnv("SESSION_STORE", "memory"))
	cfg.Session.LevelDBDir = getEnv("SESSION_LEVELDB_DIR", "data/sessions")
	cfg.Session.JWTSecret = getEnv("JWT_SECRET", "change-me-in-production")
	cfg.Session.Issuer = getEnv("JWT_ISSUER", "ctam-data")
	cfg.Session.AccessTTL = parseDuration(getEnv("ACCESS_TOKEN_TTL", "15m"), 15*time.Minute)
	cfg.Session.RefreshTTL = parseDuration(getEnv("REFRESH_TOKEN_TTL", "168h"), 7*24*time.Hour)

	cfg.Backend.BaseURL = getEnv("BACKEND_URL", "")
	cfg.Backend.AnonKey = getEnv("BACKEND_ANON_KEY", "")
	cfg.Backend.ServiceEmail = getEnv("BACKEND_SERVICE_EMAIL", "")
	cfg.Backend.ServicePassword = getEnv("BACKEND_SERVICE_PASSWORD", "")
	cfg.Backend.Timeout = parseDuration(getEnv("BACKEND_TIMEOUT", "15s"), 15*time.Second)
	cfg.Backend.RefreshBefore = parseDuration(getEnv("BACKEND_REFRESH_BEFORE", "60s"), 60*time.Second)

	cfg.Resilience.MaxAttempts = parseInt(getEnv("RETRY_MAX_ATTEMPTS", "3"), 3)
	cfg.Resilience.BaseDelay = parseDuration(getEnv("RETRY_BASE_DELAY", "500ms"), 500*time.Millisecond)
	cfg.Resilience.MaxDelay = parseDuration(getEnv("RETRY_MAX_DELAY", "5s"), 5*time.Second)
	cfg.Resilience.BreakerCooldown = parseDuration(getEnv("BREAKER_COOLDOWN", "5s"), 5*time.Second)
	cfg.Resilience.BreakerMaxDelay = parseDuration(getEnv("BREAKER_MAX_COOLDOWN", "60s"), 60*time.Second)

	cfg.Events.Kind = strings.ToLower(getEnv("EVENTS_KIND", "none"))
	cfg.Events.MQTT.Broker = "tcp://localhost:1883"
	cfg.Events.MQTT.ClientID = "ctam-data"
	cfg.Events.MQTT.QoS = 1
	cfg.Events.MQTT.LoadFromEnv("MQTT")
	cfg.Events.TopicPrefix = getEnv("EVENTS_TOPIC_PREFIX", "ctam/assessments")
	cfg.Events.Stream = getEnv("EVENTS_STREAM", "ctam:assessment:events")
	cfg.Events.StreamMaxLen = int64(parseInt(getEnv("EVENTS_STREAM_MAXLEN", "10000"), 10000))

	cfg.Provision.EmailDomain = getEnv("PROVISION_EMAIL_DOMAIN", "ctam.moph.go.th")

	cfg.Bootstrap.SeedAdmin = getEnv("SEED_ADMIN", "true") != "false"
	cfg.Bootstrap.AdminEmail = getEnv("ADMIN_EMAIL", "admin@"+cfg.Provision.EmailDomain)
	cfg.Bootstrap.AdminPassword = getEnv("ADMIN_PASSWORD", "ChangeMe123!")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil || i <= 0 {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
