// config.go - Handles configuration for the project

package config // Declares the package name

import ( // Import required packages
	"os"      // For reading environment variables
	"strconv" // For numeric env values
	"strings" // For comma separated lists
	"time"    // For token lifetime

	"github.com/joho/godotenv" // Loads .env into the process environment
	"github.com/rs/zerolog/log"
)

const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

type Config struct { // Config struct holds all configuration values
	DBPath          string        // Path to the SQLite database file
	JWTSecret       string        // Secret key for JWT signing
	Port            string        // HTTP listen port
	Mode            string        // development or production
	TokenTTL        time.Duration // Lifetime of issued bearer tokens
	AuditLogPath    string        // Append-only ingest request log
	UploadDir       string        // Directory for uploaded location images
	MaxUploadBytes  int64         // Upper bound for a multipart upload
	MQTTBroker      string        // Broker for location update events (empty disables)
	MQTTTopicPrefix string        // Topic prefix, events go to <prefix>/<location name>
	CORSOrigins     []string      // Allowed CORS origins
	AuthRateLimit   int           // Requests per minute per IP on /api/auth
	LogLevel        string        // zerolog level
	LogFormat       string        // json or console

	CreateAdmin   bool   // Bootstrap an admin account on startup
	AdminEmail    string // Email for the bootstrapped admin
	AdminPassword string // Password for the bootstrapped admin
}

// Load reads config from environment variables (after .env, if present) or uses defaults.
func Load() *Config {
	_ = godotenv.Load() // A missing .env file is fine

	return &Config{
		DBPath:          getEnv("DB_PATH", "data.db"),
		JWTSecret:       getEnv("JWT_SECRET", "supersecret"),
		Port:            getEnv("PORT", "5000"),
		Mode:            getEnv("APP_ENV", ModeDevelopment),
		TokenTTL:        getDuration("TOKEN_TTL", time.Hour),
		AuditLogPath:    getEnv("AUDIT_LOG_PATH", "logs/requests.log"),
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes:  int64(getInt("MAX_UPLOAD_BYTES", 5<<20)),
		MQTTBroker:      getEnv("MQTT_BROKER", ""),
		MQTTTopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "locations"),
		CORSOrigins:     getList("CORS_ORIGINS", []string{"*"}),
		AuthRateLimit:   getInt("AUTH_RATE_LIMIT", 20),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		CreateAdmin:     getBool("CREATE_ADMIN", false),
		AdminEmail:      getEnv("ADMIN_EMAIL", ""),
		AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
	}
}

// IsProduction reports whether diagnostic output must be suppressed.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Mode, ModeProduction)
}

func getEnv(key, fallback string) string { // Helper to get env var or fallback
	if value := os.Getenv(key); value != "" { // If env var is set, use it
		return value
	}
	return fallback // Otherwise, use fallback value
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Int("default", fallback).Msg("invalid integer, using default")
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Warn().Str("key", key).Str("value", v).Msg("invalid boolean, using default")
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		log.Warn().Str("key", key).Str("value", v).Dur("default", fallback).Msg("invalid duration, using default")
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
