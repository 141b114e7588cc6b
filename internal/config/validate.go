package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
//
// Missing Twilio credentials are reported as issues with path
// "twilio" so callers can disable the integration instead of aborting;
// a missing OpenAI key is reported under "openai.apiKey" and is fatal for
// the conversation engine.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	if cfg.OpenAI.APIKey == "" {
		issues = append(issues, ValidationIssue{
			Path:    "openai.apiKey",
			Message: "missing API key (set openai.apiKey or OPENAI_API_KEY)",
		})
	}

	if cfg.Twilio.AccountSID == "" || cfg.Twilio.AuthToken == "" {
		issues = append(issues, ValidationIssue{
			Path:    "twilio",
			Message: "credentials incomplete; outbound telephony actions disabled",
		})
	}

	seen := map[string]bool{}
	for i, t := range cfg.Tenants {
		path := fmt.Sprintf("tenants[%d]", i)
		if t.ID == "" {
			issues = append(issues, ValidationIssue{Path: path + ".id", Message: "tenant id is required"})
		}
		if seen[t.ID] {
			issues = append(issues, ValidationIssue{Path: path + ".id", Message: "duplicate tenant id: " + t.ID})
		}
		seen[t.ID] = true
		if t.Name == "" {
			issues = append(issues, ValidationIssue{Path: path + ".name", Message: "tenant name is required"})
		}
	}

	if cfg.Call.MaxPollAttempts < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "call.maxPollAttempts",
			Message: "must be at least 1",
		})
	}

	return issues
}

// Fatal reports whether any issue prevents the conversation engine from
// starting at all (as opposed to disabling one integration).
func Fatal(issues []ValidationIssue) bool {
	for _, is := range issues {
		if is.Path != "twilio" {
			return true
		}
	}
	return false
}
