package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AuthMode string

const (
	AuthModeDev  AuthMode = "dev"
	AuthModeJWT  AuthMode = "jwt"
	AuthModeOdin AuthMode = "odin"
)

type Config struct {
	AppName string
	Addr    string
	DBDSN   string

	AuthMode    AuthMode
	JWTSecret   string
	JWTTTL      time.Duration
	OdinBaseURL string
	OdinAPIKey  string

	OTPTTL              time.Duration
	OTPRateLimitPerHour int
	DefaultGrantHours   int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string

	ResendAPIKey string
	FromEmail    string

	LogLevel  string
	LogFormat string
}

// Load lee .env (si existe) y luego el entorno.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv arma la config solo desde variables de entorno (sin .env).
func FromEnv() (Config, error) {
	addr := ":8080"
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		addr = ":" + v
	}

	cfg := Config{
		AppName: getEnv("APP_NAME", "pet-health-records"),
		Addr:    addr,
		DBDSN:   os.Getenv("DB_DSN"),

		AuthMode:    AuthMode(strings.ToLower(getEnv("AUTH_MODE", string(AuthModeDev)))),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTTTL:      getEnvDuration("JWT_TTL", 168*time.Hour),
		OdinBaseURL: os.Getenv("ODIN_BASE_URL"),
		OdinAPIKey:  os.Getenv("ODIN_API_KEY"),

		OTPTTL:              time.Duration(getEnvInt("OTP_TTL_MINUTES", 10)) * time.Minute,
		OTPRateLimitPerHour: getEnvInt("OTP_RATE_LIMIT_PER_HOUR", 5),
		DefaultGrantHours:   getEnvInt("DEFAULT_GRANT_HOURS", 24),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:       os.Getenv("TWILIO_FROM"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@pet-health-records.local"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	missing := []string{}
	switch cfg.AuthMode {
	case AuthModeDev:
	case AuthModeJWT:
		if cfg.JWTSecret == "" {
			missing = append(missing, "JWT_SECRET")
		}
	case AuthModeOdin:
		if cfg.OdinBaseURL == "" {
			missing = append(missing, "ODIN_BASE_URL")
		}
		if cfg.OdinAPIKey == "" {
			missing = append(missing, "ODIN_API_KEY")
		}
	default:
		return cfg, errors.New("invalid AUTH_MODE: " + string(cfg.AuthMode))
	}

	if cfg.OTPTTL <= 0 {
		return cfg, errors.New("OTP_TTL_MINUTES must be positive")
	}
	if cfg.DefaultGrantHours < 1 || cfg.DefaultGrantHours > 168 {
		return cfg, errors.New("DEFAULT_GRANT_HOURS must be between 1 and 168")
	}

	if len(missing) > 0 {
		return cfg, errors.New("missing env: " + strings.Join(missing, ", "))
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
