package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = LogInfo
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	switch {
	case cfg.Engine.Kind == "":
		errs = append(errs, errors.New("engine.kind is required; valid values: cloud, local, mock"))
	case !cfg.Engine.Kind.IsValid():
		errs = append(errs, fmt.Errorf("engine.kind %q is invalid; valid values: cloud, local, mock", cfg.Engine.Kind))
	case cfg.Engine.Kind == EngineCloud:
		cloud := cfg.Engine.Cloud
		if cloud.SubscriptionKey == "" && cloud.AuthorizationToken == "" {
			errs = append(errs, errors.New("engine.cloud needs a subscription_key or authorization_token"))
		}
		if cloud.Region == "" && cloud.Endpoint == "" {
			errs = append(errs, errors.New("engine.cloud needs a region or endpoint"))
		}
	case cfg.Engine.Kind == EngineLocal:
		if cfg.Engine.Local.ModelPath == "" {
			errs = append(errs, errors.New("engine.local.model_path is required"))
		}
		if cfg.Engine.Local.SilenceThresholdMs < 0 {
			errs = append(errs, fmt.Errorf("engine.local.silence_threshold_ms %d must not be negative", cfg.Engine.Local.SilenceThresholdMs))
		}
	}

	if cfg.Speech.Language == "" {
		errs = append(errs, errors.New("speech.language is required"))
	}
	for i, target := range cfg.Speech.TargetLanguages {
		if target == "" {
			errs = append(errs, fmt.Errorf("speech.target_languages[%d] must not be empty", i))
		}
	}

	for i, in := range cfg.Intents {
		prefix := fmt.Sprintf("intents[%d]", i)
		if in.Phrase == "" {
			errs = append(errs, fmt.Errorf("%s.phrase is required", prefix))
		}
		if in.ID == "" {
			errs = append(errs, fmt.Errorf("%s.id is required", prefix))
		}
	}

	// Warnings only, not failures.
	if cfg.Speech.Voice != "" && len(cfg.Speech.TargetLanguages) == 0 {
		slog.Warn("speech.voice is set without target languages; synthesis needs a translation target")
	}
	if cfg.Engine.Kind == EngineLocal && len(cfg.Speech.TargetLanguages) > 0 {
		slog.Warn("the local engine recognizes but does not translate; target languages will have no effect")
	}

	return errors.Join(errs...)
}
