// Package config provides the configuration schema and loader for the
// sample command line tools.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// EngineKind selects the recognition engine implementation.
type EngineKind string

const (
	// EngineCloud uses the streaming translation service.
	EngineCloud EngineKind = "cloud"

	// EngineLocal uses the embedded whisper.cpp engine.
	EngineLocal EngineKind = "local"

	// EngineMock uses the scripted test engine; useful for trying the
	// samples without credentials or a model file.
	EngineMock EngineKind = "mock"
)

// IsValid reports whether k is a recognised engine kind.
func (k EngineKind) IsValid() bool {
	switch k {
	case EngineCloud, EngineLocal, EngineMock:
		return true
	}
	return false
}

// Config is the root configuration structure, typically loaded from a YAML
// file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls verbosity. Defaults to "info".
	LogLevel LogLevel `yaml:"log_level"`

	Engine EngineConfig `yaml:"engine"`
	Speech SpeechConfig `yaml:"speech"`

	// Intents are the phrase patterns registered with the intent sample.
	Intents []IntentConfig `yaml:"intents"`
}

// EngineConfig selects and configures the recognition engine.
type EngineConfig struct {
	// Kind selects the engine implementation.
	Kind EngineKind `yaml:"kind"`

	// Cloud configures the service engine. Required when Kind is "cloud".
	Cloud CloudConfig `yaml:"cloud"`

	// Local configures the embedded engine. Required when Kind is "local".
	Local LocalConfig `yaml:"local"`
}

// CloudConfig holds the service connection settings.
type CloudConfig struct {
	// Region is the service region used to derive the default endpoint
	// (e.g., "westus").
	Region string `yaml:"region"`

	// SubscriptionKey authenticates against the service. Either this or
	// AuthorizationToken must be set.
	SubscriptionKey string `yaml:"subscription_key"`

	// AuthorizationToken is a Bearer token used instead of the key.
	AuthorizationToken string `yaml:"authorization_token"`

	// Endpoint overrides the region-derived service endpoint.
	Endpoint string `yaml:"endpoint"`
}

// LocalConfig holds the embedded engine settings.
type LocalConfig struct {
	// ModelPath is the path to the whisper.cpp model file.
	ModelPath string `yaml:"model_path"`

	// SilenceThresholdMs sets the run of trailing silence (ms) that
	// delimits an utterance. 0 uses the engine default.
	SilenceThresholdMs int `yaml:"silence_threshold_ms"`
}

// SpeechConfig holds the recognition and translation settings shared by all
// samples.
type SpeechConfig struct {
	// Language is the source language code (e.g., "en-US").
	Language string `yaml:"language"`

	// TargetLanguages lists translation target codes (e.g., ["de", "fr"]).
	TargetLanguages []string `yaml:"target_languages"`

	// Voice selects the synthesis voice for translated text. Empty disables
	// synthesis.
	Voice string `yaml:"voice"`
}

// IntentConfig registers one phrase pattern with an intent identifier.
type IntentConfig struct {
	// Phrase is the pattern matched against recognized text.
	Phrase string `yaml:"phrase"`

	// ID is the intent identifier reported on a match.
	ID string `yaml:"id"`
}
