package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel        string         `yaml:"log_level"`
	DefaultLanguage string         `yaml:"default_language"`
	RetentionDays   int            `yaml:"retention_days"`
	Discord         DiscordConfig  `yaml:"discord"`
	API             APIConfig      `yaml:"api"`
	Web             WebConfig      `yaml:"web"`
	Database        DatabaseConfig `yaml:"database"`
	Ledger          LedgerConfig   `yaml:"ledger"`
	Policy          PolicyConfig   `yaml:"policy"`
	Notifications   NotifyConfig   `yaml:"notifications"`
	Filter          FilterConfig   `yaml:"filter"`
}

type DiscordConfig struct {
	Token            string `yaml:"token"`
	TargetGuildID    string `yaml:"target_guild_id"`
	VerifiedRoleName string `yaml:"verified_role_name"`
	VerifyURL        string `yaml:"verify_url"`
}

type APIConfig struct {
	Addr           string   `yaml:"addr"`
	SharedSecret   string   `yaml:"shared_secret"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RatePerSecond  float64  `yaml:"rate_per_second"`
	Burst          int      `yaml:"burst"`
}

type WebConfig struct {
	Addr         string `yaml:"addr"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	IPInfoToken  string `yaml:"ipinfo_token"`
	GeoIPPath    string `yaml:"geoip_path"`
	BotAPIURL    string `yaml:"bot_api_url"`
	CookieSecret string `yaml:"cookie_secret"`
	TrustProxy   bool   `yaml:"trust_proxy"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type LedgerConfig struct {
	Backend    string `yaml:"backend"`
	RedisURL   string `yaml:"redis_url"`
	WindowDays int    `yaml:"window_days"`
}

type PolicyConfig struct {
	MinAccountAgeDays int      `yaml:"min_account_age_days"`
	ExemptCountries   []string `yaml:"exempt_countries"`
	BanWindowHours    int      `yaml:"ban_window_hours"`
}

type NotifyConfig struct {
	DMEnabled   bool        `yaml:"dm_enabled"`
	QueueSize   int         `yaml:"queue_size"`
	EmbedColors EmbedColors `yaml:"embed_colors"`
}

type EmbedColors struct {
	Success int `yaml:"success"`
	Failure int `yaml:"failure"`
	Action  int `yaml:"action"`
	Warning int `yaml:"warning"`
	Error   int `yaml:"error"`
}

type FilterConfig struct {
	DefaultTimeoutMinutes int `yaml:"default_timeout_minutes"`
	ForgiveAfterHours     int `yaml:"forgive_after_hours"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:        "info",
		DefaultLanguage: "ja",
		RetentionDays:   30,
		Discord: DiscordConfig{
			VerifiedRoleName: "verified",
		},
		API: APIConfig{
			Addr:          ":8080",
			RatePerSecond: 5,
			Burst:         10,
		},
		Web: WebConfig{
			Addr:        ":5000",
			RedirectURL: "http://localhost:5000/callback",
			BotAPIURL:   "http://localhost:8080",
		},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "/data/verigate.db"},
		Ledger:   LedgerConfig{Backend: "memory", WindowDays: 7},
		Policy: PolicyConfig{
			MinAccountAgeDays: 3,
			ExemptCountries:   []string{"JP"},
			BanWindowHours:    24,
		},
		Notifications: NotifyConfig{
			DMEnabled: true,
			QueueSize: 256,
			EmbedColors: EmbedColors{
				Success: 0x22C55E,
				Failure: 0xEF4444,
				Action:  0x3B82F6,
				Warning: 0xF59E0B,
				Error:   0xF97316,
			},
		},
		Filter: FilterConfig{DefaultTimeoutMinutes: 5, ForgiveAfterHours: 72},
	}
}

// Load reads the bot configuration.
func Load() (Config, error) {
	cfg, err := load()
	if err != nil {
		return Config{}, err
	}
	if cfg.Discord.Token == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	if cfg.Discord.TargetGuildID == "" {
		return Config{}, errors.New("TARGET_GUILD_ID is required")
	}
	return cfg, nil
}

// LoadWeb reads the configuration of the OAuth front-end.
func LoadWeb() (Config, error) {
	cfg, err := load()
	if err != nil {
		return Config{}, err
	}
	if cfg.Web.ClientID == "" || cfg.Web.ClientSecret == "" {
		return Config{}, errors.New("DISCORD_CLIENT_ID and DISCORD_CLIENT_SECRET are required")
	}
	if cfg.Web.CookieSecret == "" {
		return Config{}, errors.New("COOKIE_SECRET is required")
	}
	return cfg, nil
}

func load() (Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	normalize(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.DefaultLanguage = envString("DEFAULT_LANGUAGE", cfg.DefaultLanguage)
	cfg.RetentionDays = envInt("RETENTION_DAYS", cfg.RetentionDays)

	cfg.Discord.Token = envString("DISCORD_TOKEN", cfg.Discord.Token)
	cfg.Discord.TargetGuildID = envString("TARGET_GUILD_ID", cfg.Discord.TargetGuildID)
	cfg.Discord.VerifiedRoleName = envString("VERIFIED_ROLE_NAME", cfg.Discord.VerifiedRoleName)
	cfg.Discord.VerifyURL = envString("VERIFY_URL", cfg.Discord.VerifyURL)

	cfg.API.Addr = envString("API_ADDR", cfg.API.Addr)
	cfg.API.SharedSecret = envString("API_SHARED_SECRET", cfg.API.SharedSecret)
	cfg.API.AllowedOrigins = envList("API_ALLOWED_ORIGINS", cfg.API.AllowedOrigins)
	cfg.API.RatePerSecond = envFloat("API_RATE_PER_SECOND", cfg.API.RatePerSecond)
	cfg.API.Burst = envInt("API_BURST", cfg.API.Burst)

	cfg.Web.Addr = envString("WEB_ADDR", cfg.Web.Addr)
	cfg.Web.ClientID = envString("DISCORD_CLIENT_ID", cfg.Web.ClientID)
	cfg.Web.ClientSecret = envString("DISCORD_CLIENT_SECRET", cfg.Web.ClientSecret)
	cfg.Web.RedirectURL = envString("DISCORD_REDIRECT_URI", cfg.Web.RedirectURL)
	cfg.Web.IPInfoToken = envString("IPINFO_API_TOKEN", cfg.Web.IPInfoToken)
	cfg.Web.GeoIPPath = envString("GEOIP_PATH", cfg.Web.GeoIPPath)
	cfg.Web.BotAPIURL = envString("BOT_API_URL", cfg.Web.BotAPIURL)
	cfg.Web.CookieSecret = envString("COOKIE_SECRET", cfg.Web.CookieSecret)
	cfg.Web.TrustProxy = envBool("TRUST_PROXY", cfg.Web.TrustProxy)

	cfg.Database.Driver = envString("DATABASE_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = envString("DATABASE_DSN", cfg.Database.DSN)

	cfg.Ledger.Backend = envString("LEDGER_BACKEND", cfg.Ledger.Backend)
	cfg.Ledger.RedisURL = envString("REDIS_URL", cfg.Ledger.RedisURL)
	cfg.Ledger.WindowDays = envInt("LEDGER_WINDOW_DAYS", cfg.Ledger.WindowDays)

	cfg.Policy.MinAccountAgeDays = envInt("MIN_ACCOUNT_AGE_DAYS", cfg.Policy.MinAccountAgeDays)
	cfg.Policy.ExemptCountries = envList("EXEMPT_COUNTRIES", cfg.Policy.ExemptCountries)
	cfg.Policy.BanWindowHours = envInt("BAN_WINDOW_HOURS", cfg.Policy.BanWindowHours)

	cfg.Notifications.DMEnabled = envBool("DM_ENABLED", cfg.Notifications.DMEnabled)
	cfg.Notifications.QueueSize = envInt("NOTIFY_QUEUE_SIZE", cfg.Notifications.QueueSize)
	cfg.Notifications.EmbedColors.Success = envInt("EMBED_COLOR_SUCCESS", cfg.Notifications.EmbedColors.Success)
	cfg.Notifications.EmbedColors.Failure = envInt("EMBED_COLOR_FAILURE", cfg.Notifications.EmbedColors.Failure)

	cfg.Filter.DefaultTimeoutMinutes = envInt("FILTER_TIMEOUT_MINUTES", cfg.Filter.DefaultTimeoutMinutes)
	cfg.Filter.ForgiveAfterHours = envInt("FILTER_FORGIVE_AFTER_HOURS", cfg.Filter.ForgiveAfterHours)
}

func normalize(cfg *Config) {
	cfg.Database.Driver = normalizeDriver(cfg.Database.Driver)
	cfg.Ledger.Backend = normalizeBackend(cfg.Ledger.Backend)
	if cfg.Ledger.WindowDays <= 0 {
		cfg.Ledger.WindowDays = 7
	}
	if cfg.Notifications.QueueSize <= 0 {
		cfg.Notifications.QueueSize = 256
	}
	if cfg.Discord.VerifiedRoleName == "" {
		cfg.Discord.VerifiedRoleName = "verified"
	}
	for i, code := range cfg.Policy.ExemptCountries {
		cfg.Policy.ExemptCountries[i] = strings.ToUpper(strings.TrimSpace(code))
	}
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(strings.ToLower(level)))
	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func normalizeDriver(value string) string {
	switch strings.ToLower(value) {
	case "pgx", "postgres", "postgresql":
		return "pgx"
	default:
		return "sqlite"
	}
}

func normalizeBackend(value string) string {
	switch strings.ToLower(value) {
	case "sql", "redis":
		return strings.ToLower(value)
	default:
		return "memory"
	}
}
