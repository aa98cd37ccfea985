package llm

import (
	"strings"
	"time"

	"github.com/yungbote/eventforge/internal/pkg/logger"
	"github.com/yungbote/eventforge/internal/utils"
)

const DefaultTimeout = 30 * time.Second

type Config struct {
	Provider      string
	BaseURL       string
	Model         string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	CacheTTL      time.Duration
}

type providerDefaults struct {
	baseURL string
	model   string
}

// Known OpenAI-compatible chat completion providers.
var providers = map[string]providerDefaults{
	"openai":   {baseURL: "https://api.openai.com/v1", model: "gpt-4o-mini"},
	"deepseek": {baseURL: "https://api.deepseek.com/v1", model: "deepseek-chat"},
	"qwen":     {baseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1", model: "qwen-plus"},
	"moonshot": {baseURL: "https://api.moonshot.cn/v1", model: "moonshot-v1-8k"},
	"ollama":   {baseURL: "http://localhost:11434/v1", model: "llama3.1"},
}

// ConfigFromEnv reads LLM_* variables. LLM_API_KEY falls back to OPENAI_API_KEY.
func ConfigFromEnv(log *logger.Logger) Config {
	provider := strings.ToLower(utils.GetEnv("LLM_PROVIDER", "openai", log))
	if provider == "dashscope" {
		provider = "qwen"
	}
	def, ok := providers[provider]
	if !ok {
		def = providers["openai"]
	}
	apiKey := utils.GetEnv("LLM_API_KEY", "", log)
	if apiKey == "" {
		apiKey = utils.GetEnv("OPENAI_API_KEY", "", log)
	}
	return Config{
		Provider:      provider,
		BaseURL:       strings.TrimRight(utils.GetEnv("LLM_BASE_URL", def.baseURL, log), "/"),
		Model:         utils.GetEnv("LLM_MODEL", def.model, log),
		APIKey:        apiKey,
		Timeout:       utils.GetEnvAsDuration("LLM_TIMEOUT", DefaultTimeout, log),
		RatePerSecond: utils.GetEnvAsFloat("LLM_RATE_PER_SECOND", 2, log),
		Burst:         utils.GetEnvAsInt("LLM_BURST", 3, log),
		CacheTTL:      utils.GetEnvAsDuration("LLM_CACHE_TTL", 6*time.Hour, log),
	}
}

func (c Config) withDefaults() Config {
	if c.Provider == "" {
		c.Provider = "openai"
	}
	def, ok := providers[c.Provider]
	if !ok {
		def = providers["openai"]
	}
	if c.BaseURL == "" {
		c.BaseURL = def.baseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Model == "" {
		c.Model = def.model
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	c.APIKey = strings.TrimSpace(c.APIKey)
	return c
}
