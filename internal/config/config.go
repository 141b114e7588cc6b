// Package config loads and validates the frontdesk YAML configuration.
package config

import (
	"fmt"
	"strings"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			Port: 8080,
			Bind: "0.0.0.0",
		},
		OpenAI: OpenAIConfig{
			BaseURL:   "https://api.openai.com/v1",
			ChatModel: "gpt-4o-mini",
			TTSModel:  "tts-1",
			TTSVoice:  "fable",
			STTModel:  "whisper-1",
			MaxTokens: 80,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Call: CallConfig{
			MaxPollAttempts: 12,
			PollPauseSec:    2,
			SlotMinutes:     30,
			LogRetention:    5000,
		},
	}
}

// Tenant returns the tenant with the given ID, or nil.
func (c *Config) Tenant(id string) *TenantConfig {
	for i := range c.Tenants {
		if c.Tenants[i].ID == id {
			return &c.Tenants[i]
		}
	}
	return nil
}

// TenantByNumber resolves a tenant by the callee number, matching on
// normalized digits so provider formatting differences don't matter.
// Falls back to the sole tenant when exactly one is configured.
func (c *Config) TenantByNumber(number string) *TenantConfig {
	want := normalizeDigits(number)
	for i := range c.Tenants {
		if want != "" && normalizeDigits(c.Tenants[i].Number) == want {
			return &c.Tenants[i]
		}
	}
	if len(c.Tenants) == 1 {
		return &c.Tenants[0]
	}
	return nil
}

// Transfer resolves a staff member by name. Matching is case-insensitive and
// substring-tolerant in both directions, since callers rarely say the exact
// configured name ("Smith" should find "Dr. Smith").
func (t *TenantConfig) Transfer(name string) *StaffMember {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}
	for i := range t.Staff {
		have := strings.ToLower(t.Staff[i].Name)
		if strings.Contains(have, needle) || strings.Contains(needle, have) {
			return &t.Staff[i]
		}
	}
	return nil
}

func normalizeDigits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
