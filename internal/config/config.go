package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the explicit configuration record handed to the orchestrator at
// construction. Components receive the sub-section they need; nothing reads
// the environment after startup.
type Config struct {
	Model     ModelConfig     `mapstructure:"model"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
}

// ModelConfig configures the language-model capability.
type ModelConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Name    string        `mapstructure:"name"`
	Timeout time.Duration `mapstructure:"timeout"`
	RPS     float64       `mapstructure:"rps"`
	Burst   int           `mapstructure:"burst"`
}

// SearchBackendConfig configures one web-search backend.
type SearchBackendConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxResults int           `mapstructure:"max_results"`
}

// ProvidersConfig configures the retrieval backends.
type ProvidersConfig struct {
	Wikipedia WikipediaConfig     `mapstructure:"wikipedia"`
	Quote     QuoteConfig         `mapstructure:"quote"`
	SearchA   SearchBackendConfig `mapstructure:"search_a"`
	SearchB   SearchBackendConfig `mapstructure:"search_b"`
	// MaxRetries is the per-call retry budget on top of the timeout.
	MaxRetries int `mapstructure:"max_retries"`
}

// WikipediaConfig configures the encyclopedic lookup.
type WikipediaConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	TopK         int           `mapstructure:"top_k"`
	MaxCharChunk int           `mapstructure:"max_char_chunk"`
}

// QuoteConfig configures the financial snapshot provider.
type QuoteConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PipelineConfig holds orchestrator policy knobs.
type PipelineConfig struct {
	// MaxRetries bounds full-pipeline retries after a failed verification
	// round. One retry matches the interactive clarification contract.
	MaxRetries int `mapstructure:"max_retries"`
	// MaxExtraSources caps the sources appended to a validated auxiliary
	// answer (the auxiliary source itself is never displaced).
	MaxExtraSources int `mapstructure:"max_extra_sources"`
}

// Load reads corpquery.yaml (optional, from CORPQUERY_CONFIG or the working
// directory) merged with CORPQUERY_* environment overrides, then applies the
// conventional provider key variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CORPQUERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("CORPQUERY_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("corpquery")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// The config file is optional; env and defaults suffice.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Conventional key names win over file values so existing .env files
	// keep working.
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		c.Model.APIKey = k
	}
	if k := os.Getenv("TAVILY_API_KEY"); k != "" {
		c.Providers.SearchA.APIKey = k
	}
	if k := os.Getenv("SERPER_API_KEY"); k != "" {
		c.Providers.SearchB.APIKey = k
	}

	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model.name", "gpt-4o-mini")
	v.SetDefault("model.timeout", 30*time.Second)
	v.SetDefault("model.rps", 2.0)
	v.SetDefault("model.burst", 4)

	v.SetDefault("providers.wikipedia.base_url", "https://en.wikipedia.org/w/api.php")
	v.SetDefault("providers.wikipedia.timeout", 10*time.Second)
	v.SetDefault("providers.wikipedia.top_k", 5)
	v.SetDefault("providers.wikipedia.max_char_chunk", 5000)

	v.SetDefault("providers.quote.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("providers.quote.timeout", 10*time.Second)

	v.SetDefault("providers.search_a.base_url", "https://api.tavily.com")
	v.SetDefault("providers.search_a.timeout", 10*time.Second)
	v.SetDefault("providers.search_a.max_results", 5)

	v.SetDefault("providers.search_b.base_url", "https://google.serper.dev")
	v.SetDefault("providers.search_b.timeout", 10*time.Second)
	v.SetDefault("providers.search_b.max_results", 5)

	v.SetDefault("providers.max_retries", 2)

	v.SetDefault("pipeline.max_retries", 1)
	v.SetDefault("pipeline.max_extra_sources", 5)
}
