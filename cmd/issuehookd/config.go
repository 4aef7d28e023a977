package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-issue-metrics/core"
)

const envPrefix = "ISSUEHOOKD_"

// resolveConfig layers defaults < environment < flags through the shared
// options stack.
func resolveConfig(ctx context.Context, flags *rootFlags) (core.Config, error) {
	defaults := core.DefaultConfig()

	provider := core.NewCfgxConfigProvider(core.NewStaticRawConfigLoader(envConfigValues()))
	loaded, err := provider.Load(ctx, defaults)
	if err != nil {
		return core.Config{}, fmt.Errorf("load configuration: %w", err)
	}

	runtime := core.Config{
		ServiceName: flags.serviceName,
		Webhook: core.WebhookConfig{
			Secret:          flags.webhookSecret,
			CategoryHeader:  flags.categoryHeader,
			SignatureHeader: flags.signatureHeader,
		},
		Tracker: core.TrackerConfig{
			APIBaseURL: flags.trackerBaseURL,
			UserAgent:  flags.trackerAgent,
		},
	}

	resolved, err := core.GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
	if err != nil {
		return core.Config{}, fmt.Errorf("resolve configuration: %w", err)
	}
	return resolved, nil
}

// envConfigValues maps ISSUEHOOKD_* variables onto the config tree. Only set
// variables contribute, so defaults survive an empty environment.
func envConfigValues() map[string]any {
	values := map[string]any{}
	webhook := map[string]any{}
	tracker := map[string]any{}

	if v, ok := envValue("SERVICE_NAME"); ok {
		values["service_name"] = v
	}
	if v, ok := envValue("WEBHOOK_SECRET"); ok {
		webhook["secret"] = v
	}
	if v, ok := envValue("WEBHOOK_CATEGORY_HEADER"); ok {
		webhook["category_header"] = v
	}
	if v, ok := envValue("WEBHOOK_SIGNATURE_HEADER"); ok {
		webhook["signature_header"] = v
	}
	if v, ok := envValue("TRACKER_API_BASE_URL"); ok {
		tracker["api_base_url"] = v
	}
	if v, ok := envValue("TRACKER_USER_AGENT"); ok {
		tracker["user_agent"] = v
	}

	if len(webhook) > 0 {
		values["webhook"] = webhook
	}
	if len(tracker) > 0 {
		values["tracker"] = tracker
	}
	return values
}

func envValue(suffix string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(envPrefix + suffix))
	return value, value != ""
}

// envOrFlag prefers the flag value, then the environment, then the fallback.
// Used for binary-local settings that live outside the shared config tree.
func envOrFlag(flagValue, suffix, fallback string) string {
	if trimmed := strings.TrimSpace(flagValue); trimmed != "" {
		return trimmed
	}
	if value, ok := envValue(suffix); ok {
		return value
	}
	return fallback
}
