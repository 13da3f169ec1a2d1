package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Значения по умолчанию
const (
	defaultPort             = "8080"
	defaultSessionCookie    = "session"
	defaultRateLimitRPS     = 10
	defaultRateLimitBurst   = 20
	defaultDedupBackend     = DedupBackendMemory
	defaultDedupTTL         = 10 * time.Second
	defaultRecorderWorkers  = 3
	defaultRecorderBuffer   = 1000
	defaultLogQueryMaxLimit = 500
	defaultRetentionDays    = 30
	defaultLogLevel         = "info"
	defaultSessionTokenTTL  = 24 * time.Hour
)

// Хранилища окна дедупликации
const (
	DedupBackendMemory = "memory"
	DedupBackendRedis  = "redis"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Analytics AnalyticsConfig
	Log       LogConfig
}

type AppConfig struct {
	Port        string
	AutoMigrate bool
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN строка подключения для pgxpool
func (c DBConfig) DSN() string {
	return c.url("postgres")
}

// MigrateURL строка подключения для golang-migrate (драйвер pgx/v5)
func (c DBConfig) MigrateURL() string {
	return c.url("pgx5")
}

func (c DBConfig) url(scheme string) string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	SessionSecret   string
	SessionCookie   string
	SessionTokenTTL time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// AnalyticsConfig настройки подсистемы учёта посещений
type AnalyticsConfig struct {
	DedupBackend      string        // memory | redis
	DedupTTL          time.Duration // время жизни ключа дедупликации
	RecorderWorkers   int
	RecorderBuffer    int
	LogQueryMaxLimit  int
	RetentionDays     int
	RetentionInterval time.Duration // 0 - фоновая очистка выключена
	StatsTimezone     string        // пусто - локальная зона процесса
}

// Location зона, от полуночи которой считаются окна статистики
func (c AnalyticsConfig) Location() (*time.Location, error) {
	if c.StatsTimezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.StatsTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_TIMEZONE %q: %w", c.StatsTimezone, err)
	}
	return loc, nil
}

type LogConfig struct {
	Level       string
	Development bool
}

// Load читает конфигурацию из файла .env (если он есть) и переменных окружения.
// Переменные окружения имеют приоритет.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.AutoMigrate = v.GetBool("APP_AUTO_MIGRATE")

	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")
	cfg.DB.SSLMode = v.GetString("DB_SSLMODE")

	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")

	cfg.Auth.SessionSecret = v.GetString("SESSION_SECRET")
	cfg.Auth.SessionCookie = v.GetString("SESSION_COOKIE")
	cfg.Auth.SessionTokenTTL = v.GetDuration("SESSION_TOKEN_TTL")

	cfg.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	cfg.RateLimit.BurstSize = v.GetInt("RATE_LIMIT_BURST")

	cfg.Analytics.DedupBackend = v.GetString("DEDUP_BACKEND")
	cfg.Analytics.DedupTTL = v.GetDuration("DEDUP_TTL")
	cfg.Analytics.RecorderWorkers = v.GetInt("RECORDER_WORKERS")
	cfg.Analytics.RecorderBuffer = v.GetInt("RECORDER_BUFFER")
	cfg.Analytics.LogQueryMaxLimit = v.GetInt("LOG_QUERY_MAX_LIMIT")
	cfg.Analytics.RetentionDays = v.GetInt("RETENTION_DAYS")
	cfg.Analytics.RetentionInterval = v.GetDuration("RETENTION_INTERVAL")
	cfg.Analytics.StatsTimezone = v.GetString("STATS_TIMEZONE")

	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Log.Development = v.GetBool("LOG_DEVELOPMENT")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", defaultPort)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("SESSION_COOKIE", defaultSessionCookie)
	v.SetDefault("SESSION_TOKEN_TTL", defaultSessionTokenTTL)
	v.SetDefault("RATE_LIMIT_RPS", defaultRateLimitRPS)
	v.SetDefault("RATE_LIMIT_BURST", defaultRateLimitBurst)
	v.SetDefault("DEDUP_BACKEND", defaultDedupBackend)
	v.SetDefault("DEDUP_TTL", defaultDedupTTL)
	v.SetDefault("RECORDER_WORKERS", defaultRecorderWorkers)
	v.SetDefault("RECORDER_BUFFER", defaultRecorderBuffer)
	v.SetDefault("LOG_QUERY_MAX_LIMIT", defaultLogQueryMaxLimit)
	v.SetDefault("RETENTION_DAYS", defaultRetentionDays)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
}

// Validate проверяет значения, без которых сервис не может стартовать
func (c *Config) Validate() error {
	if c.Auth.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	switch c.Analytics.DedupBackend {
	case DedupBackendMemory, DedupBackendRedis:
	default:
		return fmt.Errorf("unknown DEDUP_BACKEND %q", c.Analytics.DedupBackend)
	}
	if c.Analytics.DedupTTL <= 0 {
		return errors.New("DEDUP_TTL must be positive")
	}
	if c.Analytics.RetentionDays < 0 {
		return errors.New("RETENTION_DAYS must not be negative")
	}
	if _, err := c.Analytics.Location(); err != nil {
		return err
	}
	return nil
}
