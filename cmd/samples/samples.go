package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tommy200519/cognitive-services-speech-sdk/internal/config"
	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/audio"
	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine"
	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/speech"
)

// continuousTimeout bounds the continuous part of the translation sample in
// case the engine never reports end of stream.
const continuousTimeout = 60 * time.Second

// defaultIntents is used when no intents are configured.
var defaultIntents = []config.IntentConfig{
	{Phrase: "turn off the light", ID: "HomeAutomation.TurnOff"},
	{Phrase: "turn on the light", ID: "HomeAutomation.TurnOn"},
	{Phrase: "play some music", ID: "Media.Play"},
}

// translationConfig builds the SDK translation config from the sample
// configuration. The local and mock engines ignore the credentials, so
// placeholders keep a single construction path.
func translationConfig(cfg *config.Config) (*speech.SpeechTranslationConfig, error) {
	key, region := cfg.Engine.Cloud.SubscriptionKey, cfg.Engine.Cloud.Region
	if key == "" {
		key = "local"
	}
	if region == "" {
		region = "local"
	}

	var (
		sc  *speech.SpeechTranslationConfig
		err error
	)
	if endpoint := cfg.Engine.Cloud.Endpoint; endpoint != "" {
		sc, err = speech.NewSpeechTranslationConfigFromEndpoint(endpoint, key)
	} else {
		sc, err = speech.NewSpeechTranslationConfigFromSubscription(key, region)
	}
	if err != nil {
		return nil, err
	}
	if token := cfg.Engine.Cloud.AuthorizationToken; token != "" {
		if err := sc.SetAuthorizationToken(token); err != nil {
			return nil, err
		}
	}

	sc.SetSpeechRecognitionLanguage(cfg.Speech.Language)
	for _, target := range cfg.Speech.TargetLanguages {
		sc.AddTargetLanguage(target)
	}
	if cfg.Speech.Voice != "" {
		sc.SetVoiceName(cfg.Speech.Voice)
	}
	return sc, nil
}

// runTranslationSample recognizes one utterance from the WAV file, printing
// interim hypotheses, the final translations and any synthesized audio
// chunk sizes, then drains the rest of the file in continuous mode.
func runTranslationSample(ctx context.Context, eng engine.Engine, cfg *config.Config, wavPath string) error {
	fmt.Println("== translation sample ==")

	sc, err := translationConfig(cfg)
	if err != nil {
		return err
	}
	source, err := audio.FromWavFile(wavPath)
	if err != nil {
		return err
	}
	defer source.Close()

	recognizer, err := speech.NewTranslationRecognizer(eng, sc, source)
	if err != nil {
		return err
	}
	defer func() {
		if err := recognizer.Close(); err != nil {
			slog.Warn("closing translation recognizer failed", "err", err)
		}
	}()

	ended := make(chan struct{}, 1)
	recognizer.SessionStarted.Connect(func(e speech.SessionEventArgs) {
		fmt.Printf("session started (%s)\n", e.SessionID)
	})
	recognizer.SessionStopped.Connect(func(e speech.SessionEventArgs) {
		fmt.Printf("session stopped (%s)\n", e.SessionID)
	})
	recognizer.Recognizing.Connect(func(e speech.TranslationRecognitionEventArgs) {
		fmt.Printf("recognizing: %s\n", e.Result.Text)
	})
	recognizer.Recognized.Connect(func(e speech.TranslationRecognitionEventArgs) {
		fmt.Printf("recognized: %s\n", e.Result.Text)
		for lang, text := range e.Result.Translations {
			fmt.Printf("  [%s] %s\n", lang, text)
		}
	})
	recognizer.Synthesizing.Connect(func(e speech.TranslationSynthesisEventArgs) {
		if e.Result.Reason == engine.ReasonSynthesizingAudio {
			fmt.Printf("synthesizing: %d bytes of audio\n", len(e.Result.Audio))
		}
	})
	recognizer.Canceled.Connect(func(e speech.TranslationRecognitionCanceledEventArgs) {
		fmt.Printf("canceled: %s\n", e.Cancellation.Reason)
		select {
		case ended <- struct{}{}:
		default:
		}
	})

	outcome := <-recognizer.RecognizeOnceAsync(ctx)
	if outcome.Error != nil {
		return fmt.Errorf("recognize once: %w", outcome.Error)
	}
	fmt.Printf("recognize-once result: %s\n", outcome.Result.Text)
	for lang, text := range outcome.Result.Translations {
		fmt.Printf("  [%s] %s\n", lang, text)
	}

	// The mock engine never dispatches events on its own, so the continuous
	// part would only wait out the timeout.
	if cfg.Engine.Kind == config.EngineMock {
		return nil
	}

	// Drain the remaining audio continuously until the engine reports end
	// of stream.
	if err := <-recognizer.StartContinuousRecognitionAsync(ctx); err != nil {
		return fmt.Errorf("start continuous: %w", err)
	}
	select {
	case <-ended:
	case <-time.After(continuousTimeout):
		slog.Warn("continuous recognition timed out before end of stream")
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := <-recognizer.StopContinuousRecognitionAsync(ctx); err != nil {
		return fmt.Errorf("stop continuous: %w", err)
	}
	return nil
}

// runIntentSample recognizes one utterance and matches it against the
// configured intent phrases.
func runIntentSample(ctx context.Context, eng engine.Engine, cfg *config.Config, wavPath string) error {
	fmt.Println("== intent sample ==")

	sc, err := translationConfig(cfg)
	if err != nil {
		return err
	}
	source, err := audio.FromWavFile(wavPath)
	if err != nil {
		return err
	}
	defer source.Close()

	recognizer, err := speech.NewIntentRecognizer(eng, &sc.SpeechConfig, source)
	if err != nil {
		return err
	}
	defer func() {
		if err := recognizer.Close(); err != nil {
			slog.Warn("closing intent recognizer failed", "err", err)
		}
	}()

	intents := cfg.Intents
	if len(intents) == 0 {
		intents = defaultIntents
	}
	for _, in := range intents {
		if err := recognizer.AddIntent(in.Phrase, in.ID); err != nil {
			return fmt.Errorf("add intent %q: %w", in.ID, err)
		}
	}

	outcome := <-recognizer.RecognizeOnceAsync(ctx)
	if outcome.Error != nil {
		return fmt.Errorf("recognize intent: %w", outcome.Error)
	}
	switch outcome.Result.Reason {
	case engine.ReasonRecognizedIntent:
		fmt.Printf("intent: %s (text: %q)\n", outcome.Result.IntentID, outcome.Result.Text)
	case engine.ReasonNoMatch:
		fmt.Println("no speech could be recognized")
	default:
		fmt.Printf("no intent matched (text: %q)\n", outcome.Result.Text)
	}
	return nil
}
