package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"RedditPulse/internal/domain"
	"RedditPulse/pkg/logger"
)

// Config loading happens before the structured logger exists, so it logs
// through the plain prefix logger.
var clog = logger.New("config")

const (
	configPathEnv         = "REDDITPULSE_CONFIG"
	databaseDSNEnv        = "DATABASE_DSN"
	redditClientIDEnv     = "REDDIT_CLIENT_ID"
	redditClientSecretEnv = "REDDIT_CLIENT_SECRET"
	redditUsernameEnv     = "REDDIT_USERNAME"
	nlpAPIKeyEnv          = "NLP_API_KEY"

	maxCommunities = 20
	maxPostLimit   = 1000
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Reddit     RedditConfig     `yaml:"reddit"`
	Collection CollectionConfig `yaml:"collection"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Database   DatabaseConfig   `yaml:"database"`
	Output     OutputConfig     `yaml:"output"`
}

// LoggingConfig selects the console log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RedditConfig describes the credentialed listing API client.
type RedditConfig struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	Username     string `yaml:"username"`
	UserAgent    string `yaml:"userAgent"`
	BaseURL      string `yaml:"baseUrl"`
	AuthURL      string `yaml:"authUrl"`
	ProxyURL     string `yaml:"proxyUrl"`

	// RequestsPerMinute and Burst size the shared token bucket every
	// concurrent fetch draws from.
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	Burst             int `yaml:"burst"`

	MaxRetries     int           `yaml:"maxRetries"`
	RetryBaseDelay time.Duration `yaml:"retryBaseDelay"`
}

// CollectionConfig drives which communities are fetched and how.
type CollectionConfig struct {
	Subreddits []string      `yaml:"subreddits"`
	Timeframe  string        `yaml:"timeframe"`
	PostLimit  int           `yaml:"postLimit"`
	Workers    int           `yaml:"workers"`
	RunTimeout time.Duration `yaml:"runTimeout"`
}

// AnalysisConfig describes NLP service integration parameters.
type AnalysisConfig struct {
	InferenceURL string `yaml:"inferenceUrl"`
	APIKey       string `yaml:"apiKey"`

	// TopicMinCorpus is the minimum document count before the topic model
	// is fit; smaller corpora leave items unassigned.
	TopicMinCorpus int `yaml:"topicMinCorpus"`
}

// DatabaseConfig describes the optional Postgres report archive.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// OutputConfig names the report destination and visualization artifacts.
type OutputConfig struct {
	Path           string   `yaml:"path"`
	Visualizations []string `yaml:"visualizations"`
}

// Communities converts the collection block into immutable pipeline inputs.
func (c CollectionConfig) Communities() []domain.Community {
	out := make([]domain.Community, 0, len(c.Subreddits))
	for _, name := range c.Subreddits {
		out = append(out, domain.Community{
			Name:      name,
			Timeframe: domain.Timeframe(c.Timeframe),
			Limit:     c.PostLimit,
		})
	}
	return out
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			clog.Printf("cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				clog.Printf("cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg
}

// Validate enforces the input contract before a run starts.
func (c Config) Validate() error {
	n := len(c.Collection.Subreddits)
	if n == 0 || n > maxCommunities {
		return fmt.Errorf("config: subreddit count must be 1-%d, got %d", maxCommunities, n)
	}

	seen := map[string]struct{}{}
	for _, name := range c.Collection.Subreddits {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return fmt.Errorf("config: empty subreddit name")
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("config: duplicate subreddit %q", name)
		}
		seen[key] = struct{}{}
	}

	if !domain.Timeframe(c.Collection.Timeframe).Valid() {
		return fmt.Errorf("config: invalid timeframe %q", c.Collection.Timeframe)
	}

	if c.Collection.PostLimit <= 0 || c.Collection.PostLimit > maxPostLimit {
		return fmt.Errorf("config: postLimit must be 1-%d, got %d", maxPostLimit, c.Collection.PostLimit)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(redditClientIDEnv); v != "" {
		c.Reddit.ClientID = v
	}

	if v := os.Getenv(redditClientSecretEnv); v != "" {
		c.Reddit.ClientSecret = v
	}

	if v := os.Getenv(redditUsernameEnv); v != "" {
		c.Reddit.Username = v
	}

	if v := os.Getenv(nlpAPIKeyEnv); v != "" {
		c.Analysis.APIKey = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Reddit.ClientID != "" {
		base.Reddit.ClientID = override.Reddit.ClientID
	}
	if override.Reddit.ClientSecret != "" {
		base.Reddit.ClientSecret = override.Reddit.ClientSecret
	}
	if override.Reddit.Username != "" {
		base.Reddit.Username = override.Reddit.Username
	}
	if override.Reddit.UserAgent != "" {
		base.Reddit.UserAgent = override.Reddit.UserAgent
	}
	if override.Reddit.BaseURL != "" {
		base.Reddit.BaseURL = override.Reddit.BaseURL
	}
	if override.Reddit.AuthURL != "" {
		base.Reddit.AuthURL = override.Reddit.AuthURL
	}
	if override.Reddit.ProxyURL != "" {
		base.Reddit.ProxyURL = override.Reddit.ProxyURL
	}
	if override.Reddit.RequestsPerMinute > 0 {
		base.Reddit.RequestsPerMinute = override.Reddit.RequestsPerMinute
	}
	if override.Reddit.Burst > 0 {
		base.Reddit.Burst = override.Reddit.Burst
	}
	if override.Reddit.MaxRetries > 0 {
		base.Reddit.MaxRetries = override.Reddit.MaxRetries
	}
	if override.Reddit.RetryBaseDelay > 0 {
		base.Reddit.RetryBaseDelay = override.Reddit.RetryBaseDelay
	}

	if len(override.Collection.Subreddits) > 0 {
		base.Collection.Subreddits = override.Collection.Subreddits
	}
	if override.Collection.Timeframe != "" {
		base.Collection.Timeframe = override.Collection.Timeframe
	}
	if override.Collection.PostLimit > 0 {
		base.Collection.PostLimit = override.Collection.PostLimit
	}
	if override.Collection.Workers > 0 {
		base.Collection.Workers = override.Collection.Workers
	}
	if override.Collection.RunTimeout > 0 {
		base.Collection.RunTimeout = override.Collection.RunTimeout
	}

	if override.Analysis.InferenceURL != "" {
		base.Analysis.InferenceURL = override.Analysis.InferenceURL
	}
	if override.Analysis.APIKey != "" {
		base.Analysis.APIKey = override.Analysis.APIKey
	}
	if override.Analysis.TopicMinCorpus > 0 {
		base.Analysis.TopicMinCorpus = override.Analysis.TopicMinCorpus
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Output.Path != "" {
		base.Output.Path = override.Output.Path
	}
	if len(override.Output.Visualizations) > 0 {
		base.Output.Visualizations = override.Output.Visualizations
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Reddit: RedditConfig{
			UserAgent:         "script:RedditPulse:1.0 (by /u/anonymous)",
			BaseURL:           "https://oauth.reddit.com",
			AuthURL:           "https://www.reddit.com/api/v1/access_token",
			RequestsPerMinute: 60,
			Burst:             5,
			MaxRetries:        3,
			RetryBaseDelay:    5 * time.Second,
		},
		Collection: CollectionConfig{
			Subreddits: []string{"wallstreetbets", "stocks", "investing"},
			Timeframe:  "week",
			PostLimit:  100,
			Workers:    0,
			RunTimeout: 10 * time.Minute,
		},
		Analysis: AnalysisConfig{
			InferenceURL:   "https://nlp.example.org/v1",
			TopicMinCorpus: 25,
		},
		Output: OutputConfig{Path: "report.json"},
	}
}
