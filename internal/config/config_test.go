package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Gateway.Port)
	assert.Equal(t, "fable", cfg.OpenAI.TTSVoice)
	assert.Equal(t, 12, cfg.Call.MaxPollAttempts)
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
gateway:
  port: 9090
tenants:
  - id: salon
    number: "+15559876543"
    name: Shear Genius
    hours: "Mon-Fri 9-5"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Gateway.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.ChatModel)
	require.Len(t, cfg.Tenants, 1)
	assert.Equal(t, "Shear Genius", cfg.Tenants[0].Name)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_FD_KEY", "sk-secret")
	path := writeConfig(t, `
openai:
  apiKey: ${TEST_FD_KEY}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", cfg.OpenAI.APIKey)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "gateway: [not a map")
	_, err := Load(path)
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestTenantByNumber(t *testing.T) {
	cfg := Config{Tenants: []TenantConfig{
		{ID: "salon", Number: "+1 (555) 111-2222", Name: "Salon"},
		{ID: "clinic", Number: "+15553334444", Name: "Clinic"},
	}}

	got := cfg.TenantByNumber("15551112222")
	require.NotNil(t, got)
	assert.Equal(t, "salon", got.ID)

	assert.Nil(t, cfg.TenantByNumber("+19990000000"))
}

func TestTenantByNumberSoleTenantFallback(t *testing.T) {
	cfg := Config{Tenants: []TenantConfig{{ID: "only", Number: "+15551112222", Name: "Only"}}}
	got := cfg.TenantByNumber("+10000000000")
	require.NotNil(t, got)
	assert.Equal(t, "only", got.ID)
}

func TestTransferMatching(t *testing.T) {
	tenant := TenantConfig{Staff: []StaffMember{
		{Name: "Dr. Smith", Number: "+15550001111"},
		{Name: "Maria Lopez", Number: "+15550002222"},
	}}

	got := tenant.Transfer("smith")
	require.NotNil(t, got)
	assert.Equal(t, "+15550001111", got.Number)

	got = tenant.Transfer("Maria Lopez please")
	require.NotNil(t, got)
	assert.Equal(t, "+15550002222", got.Number)

	assert.Nil(t, tenant.Transfer("nobody"))
	assert.Nil(t, tenant.Transfer(""))
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.OpenAI.APIKey = "sk-x"
	cfg.Twilio = TwilioConfig{AccountSID: "AC1", AuthToken: "tok"}
	cfg.Tenants = []TenantConfig{{ID: "a", Name: "A"}}
	assert.Nil(t, Validate(&cfg))
}

func TestValidateMissingTwilioIsNotFatal(t *testing.T) {
	cfg := Defaults()
	cfg.OpenAI.APIKey = "sk-x"
	issues := Validate(&cfg)
	require.NotEmpty(t, issues)
	assert.False(t, Fatal(issues))
}

func TestValidateMissingOpenAIKeyIsFatal(t *testing.T) {
	cfg := Defaults()
	cfg.Twilio = TwilioConfig{AccountSID: "AC1", AuthToken: "tok"}
	issues := Validate(&cfg)
	assert.True(t, Fatal(issues))
}

func TestValidateDuplicateTenants(t *testing.T) {
	cfg := Defaults()
	cfg.OpenAI.APIKey = "sk-x"
	cfg.Twilio = TwilioConfig{AccountSID: "AC1", AuthToken: "tok"}
	cfg.Tenants = []TenantConfig{{ID: "a", Name: "A"}, {ID: "a", Name: "B"}}
	issues := Validate(&cfg)
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0].String(), "duplicate")
}
