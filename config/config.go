package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Analyst identifiers accepted in SelectedAnalysts, in pipeline order.
const (
	AnalystMarket       = "market"
	AnalystSocial       = "social"
	AnalystNews         = "news"
	AnalystFundamentals = "fundamentals"
)

var AllAnalysts = []string{AnalystMarket, AnalystSocial, AnalystNews, AnalystFundamentals}

type Config struct {
	ProjectDir   string `json:"project_dir" yaml:"project_dir"`
	ResultsDir   string `json:"results_dir" yaml:"results_dir"`
	DataDir      string `json:"data_dir" yaml:"data_dir"`
	DataCacheDir string `json:"data_cache_dir" yaml:"data_cache_dir"`
	DatabasePath string `json:"database_path" yaml:"database_path"`

	LLMProvider          string   `json:"llm_provider" yaml:"llm_provider"`
	DeepThinkLLM         string   `json:"deep_think_llm" yaml:"deep_think_llm"`
	QuickThinkLLM        string   `json:"quick_think_llm" yaml:"quick_think_llm"`
	BackendURL           string   `json:"backend_url" yaml:"backend_url"`
	MaxTokens            int      `json:"max_tokens" yaml:"max_tokens"`
	MaxDebateRounds      int      `json:"max_debate_rounds" yaml:"max_debate_rounds"`
	MaxRiskDiscussRounds int      `json:"max_risk_rounds" yaml:"max_risk_rounds"`
	MaxRecurLimit        int      `json:"max_recursion_limit" yaml:"max_recursion_limit"`
	OnlineTools          bool     `json:"online_tools" yaml:"online_tools"`
	SelectedAnalysts     []string `json:"selected_analysts" yaml:"selected_analysts"`
	Debug                bool     `json:"debug" yaml:"debug"`
	LogLevel             string   `json:"log_level" yaml:"log_level"`
	TracingEnabled       bool     `json:"tracing_enabled" yaml:"tracing_enabled"`
	RedditUserAgent      string   `json:"reddit_user_agent" yaml:"reddit_user_agent"`

	// Memory embeddings: "openai", "genai" or "local".
	EmbeddingProvider   string `json:"embedding_provider" yaml:"embedding_provider"`
	EmbeddingModel      string `json:"embedding_model" yaml:"embedding_model"`
	EmbeddingBackendURL string `json:"embedding_backend_url" yaml:"embedding_backend_url"`

	// Eino Debug configuration
	EinoDebugEnabled bool `json:"eino_debug_enabled" yaml:"eino_debug_enabled"`
	EinoDebugPort    int  `json:"eino_debug_port" yaml:"eino_debug_port"`

	CacheEnabled bool `json:"cache_enabled" yaml:"cache_enabled"`

	// Longport API Configuration
	LongportAppKey      string `json:"longport_app_key" yaml:"longport_app_key"`
	LongportAppSecret   string `json:"longport_app_secret" yaml:"longport_app_secret"`
	LongportAccessToken string `json:"longport_access_token" yaml:"longport_access_token"`

	// AI Model API Keys
	DeepSeekAPIKey string `json:"deepseek_api_key" yaml:"deepseek_api_key"`
	OpenAIAPIKey   string `json:"openai_api_key" yaml:"openai_api_key"`
	GoogleAPIKey   string `json:"google_api_key" yaml:"google_api_key"`

	// Market data API keys
	FinnhubAPIKey string `json:"finnhub_api_key" yaml:"finnhub_api_key"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	cfg := DefaultConfigWithRoot(currentDir)

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()

	return cfg
}

// DefaultConfigWithRoot returns defaults rooted at dir without reading the environment.
func DefaultConfigWithRoot(dir string) *Config {
	return &Config{
		ProjectDir:   dir,
		ResultsDir:   filepath.Join(dir, "results"),
		DataDir:      filepath.Join(dir, "data"),
		DataCacheDir: filepath.Join(dir, "data", "cache"),
		DatabasePath: filepath.Join(dir, "data", "tradecortex.db"),

		LLMProvider:   "deepseek",
		DeepThinkLLM:  "deepseek-reasoner",
		QuickThinkLLM: "deepseek-chat",
		BackendURL:    "https://api.deepseek.com/v1",
		MaxTokens:     8192,

		MaxDebateRounds:      1,
		MaxRiskDiscussRounds: 1,
		MaxRecurLimit:        128,
		OnlineTools:          true,
		SelectedAnalysts:     append([]string(nil), AllAnalysts...),
		Debug:                false,
		LogLevel:             "info",
		RedditUserAgent:      "TradeCortex/1.0",

		EmbeddingProvider: "local",
		EmbeddingModel:    "text-embedding-3-small",

		EinoDebugEnabled: false,
		EinoDebugPort:    52538,

		CacheEnabled: true,
	}
}

func (c *Config) loadFromEnv() {
	setString := func(key string, dst *string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}
	setBool := func(key string, dst *bool) {
		if val := os.Getenv(key); val != "" {
			if v, err := strconv.ParseBool(val); err == nil {
				*dst = v
			}
		}
	}
	setInt := func(key string, dst *int) {
		if val := os.Getenv(key); val != "" {
			if v, err := strconv.Atoi(val); err == nil {
				*dst = v
			}
		}
	}

	setString("TRADECORTEX_PROJECT_DIR", &c.ProjectDir)
	setString("TRADECORTEX_RESULTS_DIR", &c.ResultsDir)
	setString("TRADECORTEX_DATA_DIR", &c.DataDir)
	setString("TRADECORTEX_DATA_CACHE_DIR", &c.DataCacheDir)
	setString("TRADECORTEX_DATABASE_PATH", &c.DatabasePath)

	setString("TRADECORTEX_LLM_PROVIDER", &c.LLMProvider)
	setString("TRADECORTEX_DEEP_THINK_LLM", &c.DeepThinkLLM)
	setString("TRADECORTEX_QUICK_THINK_LLM", &c.QuickThinkLLM)
	setString("TRADECORTEX_BACKEND_URL", &c.BackendURL)
	setInt("TRADECORTEX_MAX_TOKENS", &c.MaxTokens)

	setBool("TRADECORTEX_CACHE_ENABLED", &c.CacheEnabled)
	setBool("TRADECORTEX_ONLINE_TOOLS", &c.OnlineTools)
	setInt("TRADECORTEX_MAX_DEBATE_ROUNDS", &c.MaxDebateRounds)
	setInt("TRADECORTEX_MAX_RISK_ROUNDS", &c.MaxRiskDiscussRounds)
	setInt("TRADECORTEX_MAX_RECURSION_LIMIT", &c.MaxRecurLimit)
	if val := os.Getenv("TRADECORTEX_ANALYSTS"); val != "" {
		c.SelectedAnalysts = splitList(val)
	}

	setBool("TRADECORTEX_DEBUG", &c.Debug)
	setString("TRADECORTEX_LOG_LEVEL", &c.LogLevel)
	setBool("TRADECORTEX_TRACING", &c.TracingEnabled)

	setString("TRADECORTEX_EMBEDDING_PROVIDER", &c.EmbeddingProvider)
	setString("TRADECORTEX_EMBEDDING_MODEL", &c.EmbeddingModel)
	setString("TRADECORTEX_EMBEDDING_BACKEND_URL", &c.EmbeddingBackendURL)

	setBool("EINO_DEBUG_ENABLED", &c.EinoDebugEnabled)
	setInt("EINO_DEBUG_PORT", &c.EinoDebugPort)

	setString("LONGPORT_APP_KEY", &c.LongportAppKey)
	setString("LONGPORT_APP_SECRET", &c.LongportAppSecret)
	setString("LONGPORT_ACCESS_TOKEN", &c.LongportAccessToken)

	setString("DEEPSEEK_API_KEY", &c.DeepSeekAPIKey)
	setString("OPENAI_API_KEY", &c.OpenAIAPIKey)
	setString("GOOGLE_API_KEY", &c.GoogleAPIKey)
	setString("FINNHUB_API_KEY", &c.FinnhubAPIKey)
	setString("REDDIT_USER_AGENT", &c.RedditUserAgent)
}

// LoadFile reads a JSON or YAML config file on top of the defaults rooted at
// the file's directory. Environment overrides are applied afterwards.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfigWithRoot(filepath.Dir(path))
	if err := loadConfigFromFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.loadFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return unmarshalConfig(path, data, cfg)
}

// Validate checks required fields and known enum values.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ResultsDir) == "" {
		errs = append(errs, errors.New("results_dir is required"))
	}
	if strings.TrimSpace(c.DataCacheDir) == "" {
		errs = append(errs, errors.New("data_cache_dir is required"))
	}
	switch c.LLMProvider {
	case "deepseek", "openai", "ollama", "openrouter":
	default:
		errs = append(errs, fmt.Errorf("unsupported llm_provider %q", c.LLMProvider))
	}
	if c.DeepThinkLLM == "" || c.QuickThinkLLM == "" {
		errs = append(errs, errors.New("deep_think_llm and quick_think_llm are required"))
	}
	if c.MaxDebateRounds < 1 {
		errs = append(errs, errors.New("max_debate_rounds must be at least 1"))
	}
	if c.MaxRiskDiscussRounds < 1 {
		errs = append(errs, errors.New("max_risk_rounds must be at least 1"))
	}
	if c.MaxRecurLimit < 1 {
		errs = append(errs, errors.New("max_recursion_limit must be positive"))
	}
	for _, a := range c.SelectedAnalysts {
		if !isKnownAnalyst(a) {
			errs = append(errs, fmt.Errorf("unknown analyst %q", a))
		}
	}
	switch c.EmbeddingProvider {
	case "", "local", "openai", "genai":
	default:
		errs = append(errs, fmt.Errorf("unsupported embedding_provider %q", c.EmbeddingProvider))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Analysts returns the selected analysts in pipeline order, defaulting to all.
func (c *Config) Analysts() []string {
	if len(c.SelectedAnalysts) == 0 {
		return append([]string(nil), AllAnalysts...)
	}
	selected := make(map[string]bool, len(c.SelectedAnalysts))
	for _, a := range c.SelectedAnalysts {
		selected[strings.ToLower(strings.TrimSpace(a))] = true
	}
	var out []string
	for _, a := range AllAnalysts {
		if selected[a] {
			out = append(out, a)
		}
	}
	return out
}

// APIKey returns the key for the configured LLM provider.
func (c *Config) APIKey() string {
	switch c.LLMProvider {
	case "openai", "openrouter":
		return c.OpenAIAPIKey
	case "ollama":
		return "ollama"
	default:
		return c.DeepSeekAPIKey
	}
}

func (c *Config) Clone() *Config {
	cp := *c
	cp.SelectedAnalysts = append([]string(nil), c.SelectedAnalysts...)
	return &cp
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ProjectDir, c.ResultsDir, c.DataDir, c.DataCacheDir}
	if c.DatabasePath != "" {
		dirs = append(dirs, filepath.Dir(c.DatabasePath))
	}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}

func isKnownAnalyst(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, a := range AllAnalysts {
		if a == name {
			return true
		}
	}
	return false
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
