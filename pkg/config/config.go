package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	SMTP      SMTPConfig
	SSOT      SSOTConfig
	HR        HRConfig
	NDA       NDAConfig
	Auth      AuthFlowConfig
	Dashboard DashboardConfig
	Mailer    MailerConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	Expiration   time.Duration
	Issuer       string
	CookieDomain string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SMTPConfig carries mail relay credentials.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SSOTConfig points at the single-sign-on microservice.
type SSOTConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HRConfig points at the HR compliance service.
type HRConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NDAConfig governs the NDA signing workflow and artifact storage.
type NDAConfig struct {
	StorageDir      string
	CounterSigAsset string
	WizardBase      string
	PreviewTTL      time.Duration
	SweepInterval   time.Duration
	DownloadSecret  string
	DownloadTTL     time.Duration
}

// AuthFlowConfig tunes the two-factor login flow and assignment defaults.
type AuthFlowConfig struct {
	TwoFactorExpiry   time.Duration
	TwoFactorAttempts int
	DefaultDeadline   time.Duration
}

// DashboardConfig tunes reader dashboard caching.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// MailerConfig tunes the asynchronous mail dispatch queue.
type MailerConfig struct {
	Workers    int
	MaxRetries int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:       v.GetString("JWT_SECRET"),
		Expiration:   parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:       v.GetString("JWT_ISSUER"),
		CookieDomain: v.GetString("COOKIE_DOMAIN"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.SMTP = SMTPConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		Username: v.GetString("SMTP_USERNAME"),
		Password: v.GetString("SMTP_PASSWORD"),
		From:     v.GetString("SMTP_FROM"),
	}

	cfg.SSOT = SSOTConfig{
		BaseURL: v.GetString("SSOT_BASE_URL"),
		APIKey:  v.GetString("SSOT_API_KEY"),
		Timeout: parseDuration(v.GetString("SSOT_TIMEOUT"), 5*time.Second),
	}

	cfg.HR = HRConfig{
		BaseURL: v.GetString("HR_COMPLIANCE_BASE_URL"),
		Timeout: parseDuration(v.GetString("HR_COMPLIANCE_TIMEOUT"), 5*time.Second),
	}

	cfg.NDA = NDAConfig{
		StorageDir:      v.GetString("NDA_STORAGE_DIR"),
		CounterSigAsset: v.GetString("NDA_COUNTER_SIGNATURE_ASSET"),
		WizardBase:      v.GetString("NDA_WIZARD_BASE"),
		PreviewTTL:      parseDuration(v.GetString("NDA_PREVIEW_TTL"), 10*time.Minute),
		SweepInterval:   parseDuration(v.GetString("NDA_SWEEP_INTERVAL"), time.Minute),
		DownloadSecret:  v.GetString("NDA_DOWNLOAD_SECRET"),
		DownloadTTL:     parseDuration(v.GetString("NDA_DOWNLOAD_TTL"), 30*time.Minute),
	}

	cfg.Auth = AuthFlowConfig{
		TwoFactorExpiry:   parseDuration(v.GetString("TWO_FACTOR_EXPIRY"), 10*time.Minute),
		TwoFactorAttempts: v.GetInt("TWO_FACTOR_MAX_ATTEMPTS"),
		DefaultDeadline:   parseDuration(v.GetString("ASSIGNMENT_DEADLINE"), 24*time.Hour),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Mailer = MailerConfig{
		Workers:    v.GetInt("MAILER_WORKERS"),
		MaxRetries: v.GetInt("MAILER_MAX_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "qolae_readers")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "qolae-readers-dashboard")
	v.SetDefault("COOKIE_DOMAIN", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "noreply@qolae.example")

	v.SetDefault("SSOT_BASE_URL", "http://localhost:9000")
	v.SetDefault("SSOT_API_KEY", "")
	v.SetDefault("SSOT_TIMEOUT", "5s")

	v.SetDefault("HR_COMPLIANCE_BASE_URL", "http://localhost:9100")
	v.SetDefault("HR_COMPLIANCE_TIMEOUT", "5s")

	v.SetDefault("NDA_STORAGE_DIR", "./nda-repository")
	v.SetDefault("NDA_COUNTER_SIGNATURE_ASSET", "./assets/director-signature.png")
	v.SetDefault("NDA_WIZARD_BASE", "/readers/nda")
	v.SetDefault("NDA_PREVIEW_TTL", "10m")
	v.SetDefault("NDA_SWEEP_INTERVAL", "1m")
	v.SetDefault("NDA_DOWNLOAD_SECRET", "dev_download_secret")
	v.SetDefault("NDA_DOWNLOAD_TTL", "30m")

	v.SetDefault("TWO_FACTOR_EXPIRY", "10m")
	v.SetDefault("TWO_FACTOR_MAX_ATTEMPTS", 3)
	v.SetDefault("ASSIGNMENT_DEADLINE", "24h")

	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")

	v.SetDefault("MAILER_WORKERS", 1)
	v.SetDefault("MAILER_MAX_RETRIES", 2)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
