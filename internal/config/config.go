package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "GUIDELINE_SCANNER_CONFIG"
	databasePathEnv = "DATABASE_PATH"
	openAIKeyEnv    = "OPENAI_API_KEY"
	openAIModelEnv  = "OPENAI_MODEL"
)

// Duration wraps time.Duration so YAML values can be written as "24h" or "5s".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds high-level settings required across the application.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Browser    BrowserConfig    `yaml:"browser"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
	Sources    []SourceConfig   `yaml:"sources"`
}

// DatabaseConfig locates the sqlite database file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig defines how often ingestion cycles run and how often the
// driver checks whether one is due.
type SchedulerConfig struct {
	Interval Duration `yaml:"interval"`
	Poll     Duration `yaml:"poll"`
}

// FetchConfig tunes the scraping side of a cycle.
type FetchConfig struct {
	Timeout        Duration `yaml:"timeout"`
	PauseBetween   Duration `yaml:"pauseBetween"`
	PerSourceLimit int      `yaml:"perSourceLimit"`
	UserAgent      string   `yaml:"userAgent"`
	DeepContent    bool     `yaml:"deepContent"`
}

// BrowserConfig bounds the rendered-fetch strategy.
type BrowserConfig struct {
	LoadTimeout  Duration `yaml:"loadTimeout"`
	ReadyTimeout Duration `yaml:"readyTimeout"`
	SettleDelay  Duration `yaml:"settleDelay"`
}

// EnrichmentConfig defines how to contact the OpenAI-compatible API.
// An empty APIKey disables the remote path entirely.
type EnrichmentConfig struct {
	Endpoint string   `yaml:"endpoint"`
	Model    string   `yaml:"model"`
	APIKey   string   `yaml:"apiKey"`
	Timeout  Duration `yaml:"timeout"`
}

// MetricsConfig exposes Prometheus metrics when ListenAddr is set.
type MetricsConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SourceConfig describes a single guideline source with its scanner strategy.
// The path pattern selects anchor hrefs on the listing page; relative links
// are resolved against the URL's origin.
type SourceConfig struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Scanner     string `yaml:"scanner"`
	PathPattern string `yaml:"pathPattern"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.Enrichment.APIKey = v
	}

	if v := os.Getenv(openAIModelEnv); v != "" {
		c.Enrichment.Model = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Scheduler.Interval != 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Poll != 0 {
		base.Scheduler.Poll = override.Scheduler.Poll
	}

	if override.Fetch.Timeout != 0 {
		base.Fetch.Timeout = override.Fetch.Timeout
	}
	if override.Fetch.PauseBetween != 0 {
		base.Fetch.PauseBetween = override.Fetch.PauseBetween
	}
	if override.Fetch.PerSourceLimit != 0 {
		base.Fetch.PerSourceLimit = override.Fetch.PerSourceLimit
	}
	if override.Fetch.UserAgent != "" {
		base.Fetch.UserAgent = override.Fetch.UserAgent
	}
	if override.Fetch.DeepContent {
		base.Fetch.DeepContent = true
	}

	if override.Browser.LoadTimeout != 0 {
		base.Browser.LoadTimeout = override.Browser.LoadTimeout
	}
	if override.Browser.ReadyTimeout != 0 {
		base.Browser.ReadyTimeout = override.Browser.ReadyTimeout
	}
	if override.Browser.SettleDelay != 0 {
		base.Browser.SettleDelay = override.Browser.SettleDelay
	}

	if override.Enrichment.Endpoint != "" {
		base.Enrichment.Endpoint = override.Enrichment.Endpoint
	}
	if override.Enrichment.Model != "" {
		base.Enrichment.Model = override.Enrichment.Model
	}
	if override.Enrichment.APIKey != "" {
		base.Enrichment.APIKey = override.Enrichment.APIKey
	}
	if override.Enrichment.Timeout != 0 {
		base.Enrichment.Timeout = override.Enrichment.Timeout
	}

	if override.Metrics.ListenAddr != "" {
		base.Metrics.ListenAddr = override.Metrics.ListenAddr
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: "medical_guidelines.db"},
		Scheduler: SchedulerConfig{
			Interval: Duration(24 * time.Hour),
			Poll:     Duration(time.Hour),
		},
		Fetch: FetchConfig{
			Timeout:        Duration(30 * time.Second),
			PauseBetween:   Duration(2 * time.Second),
			PerSourceLimit: 10,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		},
		Browser: BrowserConfig{
			LoadTimeout:  Duration(30 * time.Second),
			ReadyTimeout: Duration(10 * time.Second),
			SettleDelay:  Duration(5 * time.Second),
		},
		Enrichment: EnrichmentConfig{
			Model:   "gpt-3.5-turbo",
			Timeout: Duration(20 * time.Second),
		},
		Logging: LoggingConfig{Level: "info"},
		Sources: []SourceConfig{
			{Name: "WHO", URL: "https://www.who.int/publications/guidelines", Scanner: "rendered", PathPattern: "/publications/"},
			{Name: "CDC", URL: "https://www.cdc.gov/mmwr/index.html", Scanner: "static", PathPattern: "/mmwr/"},
			{Name: "NICE", URL: "https://www.nice.org.uk/guidance/published", Scanner: "rendered", PathPattern: "/guidance/"},
			{Name: "AHA", URL: "https://www.heart.org/en/professional/quality-improvement/clinical-guidance", Scanner: "rendered", PathPattern: "/professional/"},
			{Name: "ADA", URL: "https://diabetesjournals.org/care/issue", Scanner: "static", PathPattern: "/care/"},
			{Name: "IDSA", URL: "https://www.idsociety.org/practice-guideline/", Scanner: "rendered", PathPattern: "/practice-guideline/"},
		},
	}
}
