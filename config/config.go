package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

type AppConfig struct {
	Logging     LoggingConfig   `yaml:"logging"`
	GeminiModel string          `yaml:"gemini_model"`
	MongoURI    string          `yaml:"mongo_uri"`
	MongoDBName string          `yaml:"mongo_db_name"`
	Providers   ProvidersConfig `yaml:"providers"`
	Timeouts    TimeoutsConfig  `yaml:"timeouts"`
	Cache       CacheConfig     `yaml:"cache"`
	Blogs       []BlogSource    `yaml:"blogs"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ProvidersConfig holds one enable switch per content platform.
type ProvidersConfig struct {
	Voyagegram ScrapedProviderConfig `yaml:"voyagegram"`
	Wayfarer   APIProviderConfig     `yaml:"wayfarer"`
	AIGuide    ToggleConfig          `yaml:"aiguide"`
	TravelBlog ToggleConfig          `yaml:"travelblog"`
}

type ToggleConfig struct {
	Enabled bool `yaml:"enabled"`
}

type ScrapedProviderConfig struct {
	Enabled bool `yaml:"enabled"`
	// BaseURL is the hashtag page root that gets scraped.
	BaseURL string `yaml:"base_url"`
	// RenderJS switches page fetching to a headless browser for
	// client-rendered pages.
	RenderJS bool `yaml:"render_js"`
}

type APIProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
}

// TimeoutsConfig bounds every outbound call so a hung upstream cannot
// stall a whole aggregation.
type TimeoutsConfig struct {
	ProviderSeconds int `yaml:"provider_seconds"`
	LLMSeconds      int `yaml:"llm_seconds"`
}

func (t TimeoutsConfig) Provider() time.Duration {
	if t.ProviderSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(t.ProviderSeconds) * time.Second
}

func (t TimeoutsConfig) LLM() time.Duration {
	if t.LLMSeconds <= 0 {
		return 45 * time.Second
	}
	return time.Duration(t.LLMSeconds) * time.Second
}

// CacheConfig holds the windows for the two caching layers.
type CacheConfig struct {
	// ContentRecencyDays is the horizon beyond which persisted content
	// is excluded from cache-hit lookups.
	ContentRecencyDays int `yaml:"content_recency_days"`
	// DetailCardTTLDays bounds the in-process detail card cache.
	DetailCardTTLDays int `yaml:"detail_card_ttl_days"`
}

func (c CacheConfig) ContentRecency() time.Duration {
	days := c.ContentRecencyDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

func (c CacheConfig) DetailCardTTL() time.Duration {
	days := c.DetailCardTTLDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// BlogSource is a single travel blog feed for the RSS provider.
type BlogSource struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	RSSURL string `yaml:"rss_url"`
}

var config *AppConfig

func InitApp() {
	// load environment variables
	godotenv.Load(filepath.Join(GetBasePath(), ENV_FILE))

	// load configuration file
	data, err := os.ReadFile(filepath.Join(GetBasePath(), CONFIG_FILE))
	if err != nil {
		panic(err)
	}

	var c AppConfig
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		panic(err)
	}
	config = &c
}

func GetConfig() AppConfig {
	if config == nil {
		InitApp()
	}

	return *config
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
