package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"shopping-agent/internal/infrastructure/env"

	"github.com/spf13/viper"
)

const AppName = "shopping-agent"

var ErrMissingAPIKey = errors.New("BROWSER_USE_API_KEY is not set")

type Config struct {
	BrowserUse BrowserUseConfig `mapstructure:"browser_use"`
	Poll       PollConfig       `mapstructure:"poll"`
	Search     SearchConfig     `mapstructure:"search"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Server     ServerConfig     `mapstructure:"server"`
	LiveView   LiveViewConfig   `mapstructure:"live_view"`
	Receipts   ReceiptsConfig   `mapstructure:"receipts"`
	Log        LogConfig        `mapstructure:"log"`

	// AppEnv and EnvFiles are filled from the env loader, not from viper.
	AppEnv   string   `mapstructure:"-"`
	EnvFiles []string `mapstructure:"-"`
}

type BrowserUseConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"` // 0 = no per-call timeout
}

type PollConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	Timeout         time.Duration `mapstructure:"timeout"`
	PurchaseTimeout time.Duration `mapstructure:"purchase_timeout"`
	StopOnTimeout   bool          `mapstructure:"stop_on_timeout"`
}

type SearchConfig struct {
	MaxResults int      `mapstructure:"max_results"`
	Stores     []string `mapstructure:"stores"`
}

// OpenRouterConfig enables LLM intent classification when APIKey is set.
type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LiveViewConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Headless bool   `mapstructure:"headless"`
	Dir      string `mapstructure:"dir"`
}

type ReceiptsConfig struct {
	Dir string `mapstructure:"dir"` // empty disables receipts
}

type LogConfig struct {
	Dir   string `mapstructure:"dir"`
	Level string `mapstructure:"level"`
}

type Options struct {
	// ConfigFile is an explicit YAML file. When empty, config.yaml is looked
	// up in the working directory and in $HOME/.shopping-agent.
	ConfigFile string
	// EnvDir holds .env and .env.<APP_ENV>.
	EnvDir string
}

// Load resolves the configuration from env files, the process environment
// and an optional YAML file. A missing browser-use API key is an error.
func Load(opts Options) (*Config, error) {
	loaded, err := env.Load(opts.EnvDir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/." + AppName)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.AutomaticEnv()
	// browser_use.api_key becomes BROWSER_USE_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.BindEnv("openrouter.model", "OPENROUTER_MODEL", "OPENROUTER_MODEL_NAME"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	cfg.AppEnv = loaded.AppEnv
	cfg.EnvFiles = loaded.Files

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("browser_use.api_key", "")
	v.SetDefault("browser_use.base_url", "https://api.browser-use.com/api/v1")
	v.SetDefault("browser_use.http_timeout", "0s")

	v.SetDefault("poll.interval", "2s")
	v.SetDefault("poll.timeout", "120s")
	v.SetDefault("poll.purchase_timeout", "180s")
	v.SetDefault("poll.stop_on_timeout", false)

	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.stores", []string{"Amazon", "Best Buy", "Walmart", "Target"})

	v.SetDefault("openrouter.api_key", "")
	v.SetDefault("openrouter.model", "openai/gpt-4o-mini")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")

	v.SetDefault("server.addr", ":3000")

	v.SetDefault("live_view.enabled", false)
	v.SetDefault("live_view.headless", true)
	v.SetDefault("live_view.dir", "screenshots")

	v.SetDefault("receipts.dir", "")

	v.SetDefault("log.dir", "log")
	v.SetDefault("log.level", "info")
}

func (c *Config) Validate() error {
	c.BrowserUse.APIKey = strings.TrimSpace(c.BrowserUse.APIKey)
	if c.BrowserUse.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive, got %s", c.Poll.Interval)
	}
	if c.Poll.Timeout <= 0 || c.Poll.PurchaseTimeout <= 0 {
		return fmt.Errorf("poll timeouts must be positive")
	}
	return nil
}

// LLMEnabled reports whether intent classification can use OpenRouter.
func (c *Config) LLMEnabled() bool {
	return strings.TrimSpace(c.OpenRouter.APIKey) != ""
}
