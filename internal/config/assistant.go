package config

import (
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AssistantConfig tunes the AI-assistant proxy. It lives in a YAML file so
// model and limit changes do not require a restart.
type AssistantConfig struct {
	Model           string  `mapstructure:"model"`
	SystemPrompt    string  `mapstructure:"systemPrompt"`
	MaxTokens       int     `mapstructure:"maxTokens"`
	Temperature     float64 `mapstructure:"temperature"`
	HistoryMessages int     `mapstructure:"historyMessages"`
	RateLimitPerMin int     `mapstructure:"rateLimitPerMin"`
	RateLimitBurst  int     `mapstructure:"rateLimitBurst"`
}

func DefaultAssistantConfig() AssistantConfig {
	return AssistantConfig{
		Model:           "gpt-4o-mini",
		SystemPrompt:    "You are a basketball coaching assistant. Answer with concrete, practical drills and plans.",
		MaxTokens:       1024,
		Temperature:     0.4,
		HistoryMessages: 20,
		RateLimitPerMin: 10,
		RateLimitBurst:  3,
	}
}

type AssistantConfigHolder struct {
	current atomic.Value // holds AssistantConfig
}

func NewAssistantConfigHolder() (*AssistantConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("assistant")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/courtside/config") // Volume-mounted config
	v.AddConfigPath("/etc/courtside")            // System config
	v.AddConfigPath(".")                         // Current directory (dev mode)

	v.SetEnvPrefix("COURTSIDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	holder := &AssistantConfigHolder{}
	holder.store(load(v))

	if fileFound {
		v.OnConfigChange(func(_ fsnotify.Event) {
			if err := v.ReadInConfig(); err != nil {
				return
			}
			holder.store(load(v))
		})
		v.WatchConfig()
	}

	return holder, nil
}

func (h *AssistantConfigHolder) Current() AssistantConfig {
	if cfg, ok := h.current.Load().(AssistantConfig); ok {
		return cfg
	}
	return DefaultAssistantConfig()
}

func (h *AssistantConfigHolder) store(cfg AssistantConfig) {
	h.current.Store(cfg)
}

func load(v *viper.Viper) AssistantConfig {
	cfg := DefaultAssistantConfig()

	var parsed AssistantConfig
	if err := v.UnmarshalKey("assistant", &parsed); err != nil {
		return cfg
	}

	if strings.TrimSpace(parsed.Model) != "" {
		cfg.Model = strings.TrimSpace(parsed.Model)
	}
	if strings.TrimSpace(parsed.SystemPrompt) != "" {
		cfg.SystemPrompt = parsed.SystemPrompt
	}
	if parsed.MaxTokens > 0 {
		cfg.MaxTokens = parsed.MaxTokens
	}
	if parsed.Temperature > 0 {
		cfg.Temperature = parsed.Temperature
	}
	if parsed.HistoryMessages > 0 {
		cfg.HistoryMessages = parsed.HistoryMessages
	}
	if parsed.RateLimitPerMin > 0 {
		cfg.RateLimitPerMin = parsed.RateLimitPerMin
	}
	if parsed.RateLimitBurst > 0 {
		cfg.RateLimitBurst = parsed.RateLimitBurst
	}

	return cfg
}
