package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/umputun/feedscope/pkg/domain"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:feedscope.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Sources SourcesConfig `yaml:"sources" json:"sources" jsonschema:"description=Feedback source configuration"`

	LLM LLMConfig `yaml:"llm" json:"llm" jsonschema:"description=LLM configuration for sentiment classification"`

	Engine EngineConfig `yaml:"engine" json:"engine" jsonschema:"description=Analytics engine tuning"`
}

// SourcesConfig holds per-source settings
type SourcesConfig struct {
	GooglePlayAppID string        `yaml:"google_play_app_id" json:"google_play_app_id" jsonschema:"default=com.whatsapp,description=Google Play application id"`
	AppStoreAppID   string        `yaml:"app_store_app_id" json:"app_store_app_id" jsonschema:"default=310633997,description=App Store application id"`
	AppStorePages   int           `yaml:"app_store_pages" json:"app_store_pages" jsonschema:"default=5,description=Number of App Store RSS pages to fetch"`
	CSVPath         string        `yaml:"csv_path" json:"csv_path" jsonschema:"description=Path to survey CSV file (optional)"`
	SyntheticCount  int           `yaml:"synthetic_count" json:"synthetic_count" jsonschema:"default=200,description=Number of synthetic records to generate"`
	SyntheticDays   int           `yaml:"synthetic_days" json:"synthetic_days" jsonschema:"default=60,description=Day span covered by synthetic records"`
	CacheTTL        time.Duration `yaml:"cache_ttl" json:"cache_ttl" jsonschema:"default=2h,description=How long a cached dataset stays fresh"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" json:"fetch_timeout" jsonschema:"default=10s,description=Timeout per source fetch request"`
}

// ClassificationConfig holds classification-specific settings
type ClassificationConfig struct {
	BatchSize     int           `yaml:"batch_size" json:"batch_size" jsonschema:"default=5,minimum=1,description=Number of records to classify in one request"`
	MaxConcurrent int           `yaml:"max_concurrent" json:"max_concurrent" jsonschema:"default=3,description=Maximum concurrent classification requests"`
	RateLimit     time.Duration `yaml:"rate_limit" json:"rate_limit" jsonschema:"default=2s,description=Minimum interval between classification requests"`
	UseJSONMode   bool          `yaml:"use_json_mode" json:"use_json_mode" jsonschema:"default=false,description=Use JSON response format (not all models support this)"`
}

// LLMConfig holds LLM configuration for sentiment classification and Q&A.
// Empty APIKey disables the AI path entirely and routes every record through
// the deterministic fallback.
type LLMConfig struct {
	Endpoint       string               `yaml:"endpoint" json:"endpoint" jsonschema:"description=OpenAI-compatible API endpoint"`
	APIKey         string               `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	Model          string               `yaml:"model" json:"model" jsonschema:"default=llama-3.3-70b-versatile,description=Model name"`
	Temperature    float64              `yaml:"temperature" json:"temperature" jsonschema:"default=0.05,description=Temperature for response generation"`
	MaxTokens      int                  `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=1024,description=Maximum tokens in response"`
	Timeout        time.Duration        `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Request timeout"`
	SystemPrompt   string               `yaml:"system_prompt" json:"system_prompt" jsonschema:"description=System prompt for the LLM (optional)"`
	Classification ClassificationConfig `yaml:"classification" json:"classification" jsonschema:"description=Classification-specific settings"`
}

// Enabled reports whether the AI classification path is available
func (c LLMConfig) Enabled() bool { return c.APIKey != "" }

// EngineConfig holds analytics thresholds and list sizes
type EngineConfig struct {
	TopTopics          int                `yaml:"top_topics" json:"top_topics" jsonschema:"default=8,description=Topic table size"`
	TopBugs            int                `yaml:"top_bugs" json:"top_bugs" jsonschema:"default=8,description=Bug board size"`
	TopFeatures        int                `yaml:"top_features" json:"top_features" jsonschema:"default=6,description=Feature request list size"`
	LowRatingThreshold int                `yaml:"low_rating_threshold" json:"low_rating_threshold" jsonschema:"default=2,description=Rating at or below which a negative record is bug-flagged"`
	TrendDeadBand      float64            `yaml:"trend_dead_band" json:"trend_dead_band" jsonschema:"default=0.05,description=Minimum delta magnitude to report a trend as up or down"`
	BucketWidth        domain.BucketWidth `yaml:"bucket_width" json:"bucket_width" jsonschema:"default=day,enum=day,enum=week,description=Trend bucket width"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with all defaults applied, used when no
// config file is given
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}

	if c.Database.DSN == "" {
		c.Database.DSN = "file:feedscope.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 3600
	}

	if c.Sources.GooglePlayAppID == "" {
		c.Sources.GooglePlayAppID = "com.whatsapp"
	}
	if c.Sources.AppStoreAppID == "" {
		c.Sources.AppStoreAppID = "310633997"
	}
	if c.Sources.AppStorePages == 0 {
		c.Sources.AppStorePages = 5
	}
	if c.Sources.SyntheticCount == 0 {
		c.Sources.SyntheticCount = 200
	}
	if c.Sources.SyntheticDays == 0 {
		c.Sources.SyntheticDays = 60
	}
	if c.Sources.CacheTTL == 0 {
		c.Sources.CacheTTL = 2 * time.Hour
	}
	if c.Sources.FetchTimeout == 0 {
		c.Sources.FetchTimeout = 10 * time.Second
	}

	if c.LLM.Model == "" {
		c.LLM.Model = "llama-3.3-70b-versatile"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.05
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 30 * time.Second
	}
	if c.LLM.Classification.BatchSize == 0 {
		c.LLM.Classification.BatchSize = 5
	}
	if c.LLM.Classification.MaxConcurrent == 0 {
		c.LLM.Classification.MaxConcurrent = 3
	}
	if c.LLM.Classification.RateLimit == 0 {
		c.LLM.Classification.RateLimit = 2 * time.Second
	}

	if c.Engine.TopTopics == 0 {
		c.Engine.TopTopics = 8
	}
	if c.Engine.TopBugs == 0 {
		c.Engine.TopBugs = 8
	}
	if c.Engine.TopFeatures == 0 {
		c.Engine.TopFeatures = 6
	}
	if c.Engine.LowRatingThreshold == 0 {
		c.Engine.LowRatingThreshold = 2
	}
	if c.Engine.TrendDeadBand == 0 {
		c.Engine.TrendDeadBand = 0.05
	}
	if c.Engine.BucketWidth == "" {
		c.Engine.BucketWidth = domain.BucketDay
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.LLM.Enabled() && cfg.LLM.Endpoint == "" {
		return fmt.Errorf("llm.endpoint is required when llm.api_key is set")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if cfg.LLM.Classification.BatchSize < 1 {
		return fmt.Errorf("llm.classification.batch_size must be at least 1")
	}
	if cfg.LLM.Classification.MaxConcurrent < 1 {
		return fmt.Errorf("llm.classification.max_concurrent must be at least 1")
	}

	if cfg.Engine.BucketWidth != domain.BucketDay && cfg.Engine.BucketWidth != domain.BucketWeek {
		return fmt.Errorf("engine.bucket_width must be day or week")
	}
	if cfg.Engine.TrendDeadBand < 0 {
		return fmt.Errorf("engine.trend_dead_band must be non-negative")
	}
	if cfg.Engine.LowRatingThreshold < 1 || cfg.Engine.LowRatingThreshold > 5 {
		return fmt.Errorf("engine.low_rating_threshold must be between 1 and 5")
	}

	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}
	if cfg.Sources.AppStorePages < 1 {
		return fmt.Errorf("sources.app_store_pages must be at least 1")
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetLLMConfig returns LLM configuration
func (c *Config) GetLLMConfig() LLMConfig {
	return c.LLM
}

// GetSourcesConfig returns feedback source configuration
func (c *Config) GetSourcesConfig() SourcesConfig {
	return c.Sources
}

// GetEngineConfig returns analytics engine configuration
func (c *Config) GetEngineConfig() EngineConfig {
	return c.Engine
}
