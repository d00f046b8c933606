package speech_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine"
	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/speech"
)

func TestNewSpeechConfigFromSubscription_StoresKeyAndRegion(t *testing.T) {
	cfg, err := speech.NewSpeechConfigFromSubscription("secret-key", "westus")
	if err != nil {
		t.Fatalf("NewSpeechConfigFromSubscription: %v", err)
	}
	if got := cfg.SubscriptionKey(); got != "secret-key" {
		t.Errorf("SubscriptionKey() = %q, want %q", got, "secret-key")
	}
	if got := cfg.Region(); got != "westus" {
		t.Errorf("Region() = %q, want %q", got, "westus")
	}
}

func TestNewSpeechConfigFromSubscription_EmptyArguments_Error(t *testing.T) {
	if _, err := speech.NewSpeechConfigFromSubscription("", "westus"); err == nil {
		t.Error("empty subscription key: expected error, got nil")
	}
	if _, err := speech.NewSpeechConfigFromSubscription("secret-key", ""); err == nil {
		t.Error("empty region: expected error, got nil")
	}
}

func TestNewSpeechConfigFromEndpoint_AllowsEmptyKey(t *testing.T) {
	cfg, err := speech.NewSpeechConfigFromEndpoint("wss://example.invalid/v1", "")
	if err != nil {
		t.Fatalf("NewSpeechConfigFromEndpoint: %v", err)
	}
	if got := cfg.Properties().Get(engine.PropertyEndpoint); got != "wss://example.invalid/v1" {
		t.Errorf("endpoint property = %q, want %q", got, "wss://example.invalid/v1")
	}
	if got := cfg.SubscriptionKey(); got != "" {
		t.Errorf("SubscriptionKey() = %q, want empty", got)
	}
}

func TestSpeechConfig_SetAuthorizationToken_EmptyRejected(t *testing.T) {
	cfg, err := speech.NewSpeechConfigFromSubscription("secret-key", "westus")
	if err != nil {
		t.Fatalf("NewSpeechConfigFromSubscription: %v", err)
	}
	if err := cfg.SetAuthorizationToken(""); !errors.Is(err, speech.ErrEmptyAuthorizationToken) {
		t.Fatalf("SetAuthorizationToken(\"\") = %v, want ErrEmptyAuthorizationToken", err)
	}
	if got := cfg.AuthorizationToken(); got != "" {
		t.Errorf("AuthorizationToken() = %q after rejected set, want empty", got)
	}

	if err := cfg.SetAuthorizationToken("bearer-123"); err != nil {
		t.Fatalf("SetAuthorizationToken: %v", err)
	}
	if got := cfg.AuthorizationToken(); got != "bearer-123" {
		t.Errorf("AuthorizationToken() = %q, want %q", got, "bearer-123")
	}
}

func TestSpeechConfig_SpeechRecognitionLanguage_RoundTrip(t *testing.T) {
	cfg, err := speech.NewSpeechConfigFromSubscription("secret-key", "westus")
	if err != nil {
		t.Fatalf("NewSpeechConfigFromSubscription: %v", err)
	}
	cfg.SetSpeechRecognitionLanguage("en-US")
	if got := cfg.SpeechRecognitionLanguage(); got != "en-US" {
		t.Errorf("SpeechRecognitionLanguage() = %q, want %q", got, "en-US")
	}
}

func TestSpeechTranslationConfig_TargetLanguages_OrderedAndDeduplicated(t *testing.T) {
	cfg, err := speech.NewSpeechTranslationConfigFromSubscription("secret-key", "westus")
	if err != nil {
		t.Fatalf("NewSpeechTranslationConfigFromSubscription: %v", err)
	}
	cfg.AddTargetLanguage("de")
	cfg.AddTargetLanguage("fr")
	cfg.AddTargetLanguage("es")
	cfg.AddTargetLanguage("fr")

	want := []string{"de", "fr", "es"}
	if got := cfg.TargetLanguages(); !reflect.DeepEqual(got, want) {
		t.Errorf("TargetLanguages() = %v, want %v", got, want)
	}
	if got := cfg.Properties().Get(engine.PropertyTargetLanguages); got != "de,fr,es" {
		t.Errorf("stored target list = %q, want %q", got, "de,fr,es")
	}
}

func TestSpeechTranslationConfig_TargetLanguages_EmptySplitsLiterally(t *testing.T) {
	cfg, err := speech.NewSpeechTranslationConfigFromSubscription("secret-key", "westus")
	if err != nil {
		t.Fatalf("NewSpeechTranslationConfigFromSubscription: %v", err)
	}
	// The comma-joined property is split literally, so no targets yields a
	// single empty element rather than an empty slice.
	if got := cfg.TargetLanguages(); !reflect.DeepEqual(got, []string{""}) {
		t.Errorf("TargetLanguages() = %#v, want [\"\"]", got)
	}
}

func TestSpeechTranslationConfig_VoiceName_RoundTrip(t *testing.T) {
	cfg, err := speech.NewSpeechTranslationConfigFromSubscription("secret-key", "westus")
	if err != nil {
		t.Fatalf("NewSpeechTranslationConfigFromSubscription: %v", err)
	}
	cfg.SetVoiceName("de-DE-Hedda")
	if got := cfg.VoiceName(); got != "de-DE-Hedda" {
		t.Errorf("VoiceName() = %q, want %q", got, "de-DE-Hedda")
	}
}
