package config

import (
	"errors"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken  string        `yaml:"discord_token" env:"DISCORD_TOKEN"`
	CocAPIToken   string        `yaml:"coc_api_token" env:"COC_API_TOKEN"`
	CocAPIBaseURL string        `yaml:"coc_api_base_url" env:"COC_API_BASE_URL"`
	GuildID       string        `yaml:"guild_id" env:"GUILD_ID"`
	LogLevel      string        `yaml:"log_level" env:"LOG_LEVEL"`
	Storage       StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`
	Health        HealthConfig  `yaml:"health" envPrefix:"HEALTH_"`
	League        LeagueConfig  `yaml:"league" envPrefix:"LEAGUE_"`
	Views         ViewConfig    `yaml:"views" envPrefix:"VIEWS_"`
	Feed          FeedConfig    `yaml:"feed" envPrefix:"FEED_"`
	API           APIConfig     `yaml:"api" envPrefix:"API_"`
	EmbedColors   EmbedColors   `yaml:"embed_colors" envPrefix:"EMBED_COLOR_"`
}

type StorageConfig struct {
	Driver        string `yaml:"driver" env:"DRIVER"`
	SQLitePath    string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	MongoURI      string `yaml:"mongo_uri" env:"MONGO_URI"`
	MongoDatabase string `yaml:"mongo_database" env:"MONGO_DATABASE"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Addr    string `yaml:"addr" env:"ADDR"`
}

type LeagueConfig struct {
	MinTownHall        int `yaml:"min_town_hall" env:"MIN_TOWN_HALL"`
	MaxAccountsPerUser int `yaml:"max_accounts_per_user" env:"MAX_ACCOUNTS_PER_USER"`
	SignupCutoffHours  int `yaml:"signup_cutoff_hours" env:"SIGNUP_CUTOFF_HOURS"`
}

type ViewConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds" env:"TIMEOUT_SECONDS"`
	PageSize       int `yaml:"page_size" env:"PAGE_SIZE"`
}

type FeedConfig struct {
	PollSeconds int    `yaml:"poll_seconds" env:"POLL_SECONDS"`
	Concurrency int    `yaml:"concurrency" env:"CONCURRENCY"`
	WebhookName string `yaml:"webhook_name" env:"WEBHOOK_NAME"`
}

type APIConfig struct {
	Concurrency       int `yaml:"concurrency" env:"CONCURRENCY"`
	RequestsPerWindow int `yaml:"requests_per_window" env:"REQUESTS_PER_WINDOW"`
	WindowSeconds     int `yaml:"window_seconds" env:"WINDOW_SECONDS"`
}

type EmbedColors struct {
	Default int `yaml:"default" env:"DEFAULT"`
	Success int `yaml:"success" env:"SUCCESS"`
	Warning int `yaml:"warning" env:"WARNING"`
	Error   int `yaml:"error" env:"ERROR"`
}

func DefaultConfig() Config {
	return Config{
		CocAPIBaseURL: "https://api.clashofclans.com/v1",
		LogLevel:      "info",
		Storage: StorageConfig{
			Driver:        "sqlite",
			SQLitePath:    "/data/cwl.db",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "cwl",
		},
		Health: HealthConfig{Enabled: false, Addr: ":8080"},
		League: LeagueConfig{
			MinTownHall:        9,
			MaxAccountsPerUser: 5,
			SignupCutoffHours:  24,
		},
		Views: ViewConfig{TimeoutSeconds: 180, PageSize: 10},
		Feed:  FeedConfig{PollSeconds: 60, Concurrency: 4, WebhookName: "CWL Feed"},
		API:   APIConfig{Concurrency: 8, RequestsPerWindow: 30, WindowSeconds: 1},
		EmbedColors: EmbedColors{
			Default: 0x3B82F6,
			Success: 0x22C55E,
			Warning: 0xF59E0B,
			Error:   0xEF4444,
		},
	}
}

func Load() (Config, error) {
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

	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	normalize(&cfg)
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is required")
	}
	if c.CocAPIToken == "" {
		return errors.New("COC_API_TOKEN is required")
	}
	return nil
}

func normalize(cfg *Config) {
	defaults := DefaultConfig()

	cfg.Storage.Driver = normalizeDriver(cfg.Storage.Driver)
	if cfg.CocAPIBaseURL == "" {
		cfg.CocAPIBaseURL = defaults.CocAPIBaseURL
	}
	cfg.CocAPIBaseURL = strings.TrimRight(cfg.CocAPIBaseURL, "/")
	positive(&cfg.League.MaxAccountsPerUser, defaults.League.MaxAccountsPerUser)
	positive(&cfg.Views.TimeoutSeconds, defaults.Views.TimeoutSeconds)
	positive(&cfg.Views.PageSize, defaults.Views.PageSize)
	positive(&cfg.Feed.PollSeconds, defaults.Feed.PollSeconds)
	positive(&cfg.Feed.Concurrency, defaults.Feed.Concurrency)
	positive(&cfg.API.Concurrency, defaults.API.Concurrency)
	positive(&cfg.API.RequestsPerWindow, defaults.API.RequestsPerWindow)
	positive(&cfg.API.WindowSeconds, defaults.API.WindowSeconds)
	if cfg.League.SignupCutoffHours < 0 {
		cfg.League.SignupCutoffHours = 0
	}
	if cfg.Feed.WebhookName == "" {
		cfg.Feed.WebhookName = defaults.Feed.WebhookName
	}
}

func positive(value *int, fallback int) {
	if *value <= 0 {
		*value = fallback
	}
}

func normalizeDriver(value string) string {
	switch strings.ToLower(value) {
	case "mongo", "mongodb":
		return "mongo"
	default:
		return "sqlite"
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
