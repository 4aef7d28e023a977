package core

import (
	"fmt"
	"strings"
)

type WebhookConfig struct {
	// Secret is the shared signing key for inbound notifications. Injected
	// through configuration; the validator never reads ambient state.
	Secret string `koanf:"secret" mapstructure:"secret"`
	// CategoryHeader names the header carrying the event category.
	CategoryHeader string `koanf:"category_header" mapstructure:"category_header"`
	// SignatureHeader names the header carrying the scheme-prefixed digest.
	SignatureHeader string `koanf:"signature_header" mapstructure:"signature_header"`
}

type TrackerConfig struct {
	APIBaseURL string `koanf:"api_base_url" mapstructure:"api_base_url"`
	UserAgent  string `koanf:"user_agent" mapstructure:"user_agent"`
}

type Config struct {
	ServiceName string        `koanf:"service_name" mapstructure:"service_name"`
	Webhook     WebhookConfig `koanf:"webhook" mapstructure:"webhook"`
	Tracker     TrackerConfig `koanf:"tracker" mapstructure:"tracker"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "issue-metrics",
		Webhook: WebhookConfig{
			CategoryHeader:  "X-GitHub-Event",
			SignatureHeader: "X-Hub-Signature",
		},
		Tracker: TrackerConfig{
			APIBaseURL: "https://api.github.com",
			UserAgent:  "issue-metrics-monitor",
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Webhook.CategoryHeader) == "" {
		return fmt.Errorf("core: webhook.category_header is required")
	}
	if strings.TrimSpace(c.Webhook.SignatureHeader) == "" {
		return fmt.Errorf("core: webhook.signature_header is required")
	}
	return nil
}
