package speech

import (
	"time"

	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine"
)

// TranslationRecognitionResult is a recognition outcome: the recognized
// source-language text plus its translations. Results are immutable values.
type TranslationRecognitionResult struct {
	// ID uniquely identifies this result within its session.
	ID string

	// Reason describes how the result was produced.
	Reason engine.Reason

	// Text is the recognized text in the source language.
	Text string

	// Translations maps target language codes to translated text.
	Translations map[string]string

	// Offset is the position of the recognized audio within the session;
	// Duration is its length.
	Offset   time.Duration
	Duration time.Duration
}

func newTranslationRecognitionResult(res engine.Result) TranslationRecognitionResult {
	return TranslationRecognitionResult{
		ID:           res.ID,
		Reason:       res.Reason,
		Text:         res.Text,
		Translations: res.Translations,
		Offset:       res.Offset,
		Duration:     res.Duration,
	}
}

// CancellationDetails explains why a recognition was canceled.
type CancellationDetails struct {
	// Reason distinguishes error cancellations from end-of-stream.
	Reason engine.CancellationReason

	// Code is the engine status code for error cancellations.
	Code engine.Status

	// Details is a human-readable description.
	Details string
}

func newCancellationDetails(c *engine.Cancellation) CancellationDetails {
	if c == nil {
		return CancellationDetails{Reason: engine.CancelledEndOfStream}
	}
	return CancellationDetails{Reason: c.Reason, Code: c.Code, Details: c.Details}
}

// TranslationSynthesisResult is a chunk of synthesized translation audio.
type TranslationSynthesisResult struct {
	// Reason is ReasonSynthesizingAudio for a data chunk and
	// ReasonSynthesizingAudioCompleted for the end-of-stream marker.
	Reason engine.Reason

	// Audio is the synthesized audio chunk; empty on the completion marker.
	Audio []byte
}

// TranslationRecognitionOutcome is the completion value of
// [TranslationRecognizer.RecognizeOnceAsync]. Exactly one of Result and
// Error is meaningful.
type TranslationRecognitionOutcome struct {
	Result TranslationRecognitionResult
	Error  error
}
