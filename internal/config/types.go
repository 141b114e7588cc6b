package config

// Config is the root configuration for frontdesk.
type Config struct {
	Gateway   GatewayConfig  `yaml:"gateway,omitempty"`
	OpenAI    OpenAIConfig   `yaml:"openai,omitempty"`
	Twilio    TwilioConfig   `yaml:"twilio,omitempty"`
	Store     StoreConfig    `yaml:"store,omitempty"`
	Logging   LoggingConfig  `yaml:"logging,omitempty"`
	Call      CallConfig     `yaml:"call,omitempty"`
	Tenants   []TenantConfig `yaml:"tenants,omitempty"`
}

// GatewayConfig controls the webhook HTTP server.
type GatewayConfig struct {
	Port       int    `yaml:"port,omitempty"`
	Bind       string `yaml:"bind,omitempty"` // listen host, default 0.0.0.0
	PublicURL  string `yaml:"publicUrl,omitempty"` // externally reachable base URL for TwiML callbacks
	CORSOrigins []string `yaml:"corsOrigins,omitempty"`
}

// OpenAIConfig configures the language-model and speech services.
type OpenAIConfig struct {
	APIKey     string `yaml:"apiKey,omitempty"` // supports ${ENV_VAR}
	BaseURL    string `yaml:"baseUrl,omitempty"`
	ChatModel  string `yaml:"chatModel,omitempty"`
	TTSModel   string `yaml:"ttsModel,omitempty"`
	TTSVoice   string `yaml:"ttsVoice,omitempty"`
	STTModel   string `yaml:"sttModel,omitempty"`
	MaxTokens  int    `yaml:"maxTokens,omitempty"` // phone replies stay brief
}

// TwilioConfig configures the telephony provider. When AccountSID or
// AuthToken are empty, telephony REST actions (SMS send, recording download)
// are disabled while the rest of the service keeps running.
type TwilioConfig struct {
	AccountSID string `yaml:"accountSid,omitempty"` // supports ${ENV_VAR}
	AuthToken  string `yaml:"authToken,omitempty"`  // supports ${ENV_VAR}
	FromNumber string `yaml:"fromNumber,omitempty"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"` // SQLite path, ":memory:" for ephemeral
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
}

// CallConfig tunes the conversation protocol.
type CallConfig struct {
	MaxPollAttempts int `yaml:"maxPollAttempts,omitempty"` // filler/redirect retries before giving up
	PollPauseSec    int `yaml:"pollPauseSec,omitempty"`
	SlotMinutes     int `yaml:"slotMinutes,omitempty"` // default appointment duration
	LogRetention    int `yaml:"logRetention,omitempty"` // max call log entries kept
}

// TenantConfig is one business served by the receptionist, resolved by the
// Twilio number callers dial.
type TenantConfig struct {
	ID          string        `yaml:"id"`
	Number      string        `yaml:"number"` // the callee number that maps to this tenant
	Name        string        `yaml:"name"`
	Hours       string        `yaml:"hours,omitempty"`
	Email       string        `yaml:"email,omitempty"`
	Address     string        `yaml:"address,omitempty"`
	Services    []string      `yaml:"services,omitempty"`
	Greeting    string        `yaml:"greeting,omitempty"`
	FallbackNumber string     `yaml:"fallbackNumber,omitempty"` // human to forward to on trouble
	Staff       []StaffMember `yaml:"staff,omitempty"`
}

// StaffMember is a transfer target the model may name in a TRANSFER_TO
// directive.
type StaffMember struct {
	Name   string `yaml:"name"`
	Number string `yaml:"number"`
	Role   string `yaml:"role,omitempty"`
}
