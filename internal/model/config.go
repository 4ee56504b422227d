package model

import "time"

// Config is the complete SatyaMitra configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Tool      ToolConfig      `yaml:"tool" mapstructure:"tool"`
	Database  DatabaseConfig  `yaml:"database" mapstructure:"database"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Authority AuthorityConfig `yaml:"authority" mapstructure:"authority"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	ListenAddr    string        `yaml:"listen_addr" mapstructure:"listen_addr"`
	CORSOrigins   []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
	StreamTimeout time.Duration `yaml:"stream_timeout" mapstructure:"stream_timeout"`
}

// ToolConfig configures the reputation tool server
type ToolConfig struct {
	ListenAddr string `yaml:"listen_addr" mapstructure:"listen_addr"`
	AuthToken  string `yaml:"auth_token,omitempty" mapstructure:"auth_token"`
}

// DatabaseConfig selects and configures the persistent store
type DatabaseConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // sqlite, mysql
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
	Seed   bool   `yaml:"seed" mapstructure:"seed"` // seed reputation table when empty
}

// LLMConfig configures the language-generation provider
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model       string  `yaml:"model" mapstructure:"model"`
	VisionModel string  `yaml:"vision_model,omitempty" mapstructure:"vision_model"`
	APIKey      string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
}

// SearchConfig configures the web-search collaborator
type SearchConfig struct {
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxResults int           `yaml:"max_results" mapstructure:"max_results"`
	CacheTTL   time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	CacheDir   string        `yaml:"cache_dir,omitempty" mapstructure:"cache_dir"`
	RateLimit  float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second
}

// HTTPConfig configures page fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// PipelineConfig holds the verification state machine limits
type PipelineConfig struct {
	MaxRevisions     int `yaml:"max_revisions" mapstructure:"max_revisions"`
	ExtractChars     int `yaml:"extract_chars" mapstructure:"extract_chars"`
	URLQueryChars    int `yaml:"url_query_chars" mapstructure:"url_query_chars"`
	ImageQueryChars  int `yaml:"image_query_chars" mapstructure:"image_query_chars"`
	BatchConcurrency int `yaml:"batch_concurrency" mapstructure:"batch_concurrency"`
}

// AuthorityConfig configures source credibility classification
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"`
}

// LoggingConfig configures structured logging
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:    ":8000",
			CORSOrigins:   []string{"http://localhost:8501", "http://localhost:3000"},
			StreamTimeout: 5 * time.Minute,
		},
		Tool: ToolConfig{
			ListenAddr: "127.0.0.1:7081",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "satyamitra.db",
			Seed:   true,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Timeout:     60,
			MaxTokens:   1500,
			Temperature: 0.3,
		},
		Search: SearchConfig{
			Endpoint:   "https://html.duckduckgo.com/html/",
			Timeout:    15 * time.Second,
			MaxResults: 5,
			CacheTTL:   30 * time.Minute,
			RateLimit:  1,
		},
		HTTP: HTTPConfig{
			Timeout:       10 * time.Second,
			UserAgent:     "Mozilla/5.0 (compatible; SatyaMitra/0.1)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Pipeline: PipelineConfig{
			MaxRevisions:     1,
			ExtractChars:     2000,
			URLQueryChars:    200,
			ImageQueryChars:  150,
			BatchConcurrency: 4,
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"gov", "gov.uk", "gov.in", "nic.in", "europa.eu", "who.int", "un.org",
				"nih.gov", "cdc.gov", "nasa.gov",
			},
			SecondaryDomains: []string{
				"reuters.com", "apnews.com", "bbc.com", "bbc.co.uk", "snopes.com",
				"factcheck.org", "politifact.com", "fullfact.org", "altnews.in",
				"boomlive.in", "wikipedia.org", "britannica.com",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
