package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration accepts Go duration syntax plus a day suffix ("7d").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// ParseDuration is time.ParseDuration with support for whole days.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

type ServerConfig struct {
	Port            int      `toml:"port"`
	Environment     string   `toml:"environment"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json, text
}

type AuthConfig struct {
	JWTSecret        string   `toml:"jwt_secret"`
	JWTExpiresIn     Duration `toml:"jwt_expires_in"`
	RefreshSecret    string   `toml:"refresh_secret"`
	RefreshExpiresIn Duration `toml:"refresh_expires_in"`
}

type AdminConfig struct {
	Email    string `toml:"email"`
	Password string `toml:"password"`
}

type DatabaseConfig struct {
	Driver          string   `toml:"driver"` // postgres, memory
	URL             string   `toml:"url"`
	MaxConns        int32    `toml:"max_conns"`
	MinConns        int32    `toml:"min_conns"`
	MaxConnLifetime Duration `toml:"max_conn_lifetime"`
	DialTimeout     Duration `toml:"dial_timeout"`
}

type LLMConfig struct {
	Provider    string   `toml:"provider"`
	Model       string   `toml:"model"`
	APIKey      string   `toml:"api_key"`
	BaseURL     string   `toml:"base_url"`
	Temperature float32  `toml:"temperature"`
	MaxTokens   int      `toml:"max_tokens"`
	Timeout     Duration `toml:"timeout"`
}

type TemplateGeneratorConfig struct {
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
}

type ExtractionConfig struct {
	MaxAttempts    int      `toml:"max_attempts"`
	InitialBackoff Duration `toml:"initial_backoff"`
}

type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type Config struct {
	Server            ServerConfig            `toml:"server"`
	Log               LogConfig               `toml:"log"`
	Auth              AuthConfig              `toml:"auth"`
	Admin             AdminConfig             `toml:"admin"`
	Database          DatabaseConfig          `toml:"database"`
	LLM               LLMConfig               `toml:"llm"`
	TemplateGenerator TemplateGeneratorConfig `toml:"template_generator"`
	Extraction        ExtractionConfig        `toml:"extraction"`
	Telegram          TelegramConfig          `toml:"telegram"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3000,
			Environment:     "development",
			ShutdownTimeout: Duration{5 * time.Second},
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Auth: AuthConfig{
			JWTSecret:        "defaultSecret",
			JWTExpiresIn:     Duration{time.Hour},
			RefreshSecret:    "defaultRefreshSecret",
			RefreshExpiresIn: Duration{7 * 24 * time.Hour},
		},
		Admin: AdminConfig{
			Email:    "admin@example.com",
			Password: "adminPassword",
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: Duration{30 * time.Minute},
			DialTimeout:     Duration{5 * time.Second},
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4.1-mini",
			MaxTokens: 4096,
			Timeout:   Duration{60 * time.Second},
		},
		TemplateGenerator: TemplateGeneratorConfig{
			Model:       "gpt-4.1",
			Temperature: 0.2,
		},
		Extraction: ExtractionConfig{
			MaxAttempts:    3,
			InitialBackoff: Duration{time.Second},
		},
	}
}

// Load reads a TOML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// LoadWithEnv loads path when it exists, then applies environment
// overrides. A missing file is not an error.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		dst.Duration = d
		return nil
	}

	if v, ok := lookup("APP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("APP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	str("NODE_ENV", &c.Server.Environment)
	str("APP_ENV", &c.Server.Environment)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("JWT_REFRESH_SECRET", &c.Auth.RefreshSecret)
	if err := dur("JWT_EXPIRES_IN", &c.Auth.JWTExpiresIn); err != nil {
		return err
	}
	if err := dur("JWT_REFRESH_EXPIRES_IN", &c.Auth.RefreshExpiresIn); err != nil {
		return err
	}

	str("ADMIN_USERNAME", &c.Admin.Email)
	str("ADMIN_PASSWORD", &c.Admin.Password)

	str("DB_DRIVER", &c.Database.Driver)
	str("DB_URL", &c.Database.URL)

	str("LLM_PROVIDER", &c.LLM.Provider)
	str("LLM_MODEL", &c.LLM.Model)
	str("OPENAI_API_KEY", &c.LLM.APIKey)
	str("LLM_API_KEY", &c.LLM.APIKey)
	str("LLM_BASE_URL", &c.LLM.BaseURL)
	str("TEMPLATE_MODEL", &c.TemplateGenerator.Model)

	str("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	str("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Auth.JWTSecret == "" || c.Auth.RefreshSecret == "" {
		errs = append(errs, errors.New("auth secrets must not be empty"))
	}
	if c.Auth.JWTExpiresIn.Duration <= 0 || c.Auth.RefreshExpiresIn.Duration <= 0 {
		errs = append(errs, errors.New("auth token lifetimes must be positive"))
	}
	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver: %s", c.Database.Driver))
	}
	if c.Extraction.MaxAttempts < 1 {
		errs = append(errs, errors.New("extraction.max_attempts must be at least 1"))
	}
	return errors.Join(errs...)
}
