package speech_test

import (
	"testing"

	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine"
	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/speech"
)

func TestSessionEventArgs_String(t *testing.T) {
	args := speech.SessionEventArgs{SessionID: "sess-1"}
	if got, want := args.String(), "SessionId: sess-1"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestTranslationRecognitionEventArgs_String(t *testing.T) {
	args := speech.TranslationRecognitionEventArgs{
		RecognitionEventArgs: speech.RecognitionEventArgs{
			SessionEventArgs: speech.SessionEventArgs{SessionID: "sess-1"},
		},
		Result: speech.TranslationRecognitionResult{
			ID:     "res-7",
			Reason: engine.ReasonTranslatedSpeech,
			Text:   "hello world",
		},
	}
	want := "SessionId: sess-1, ResultId: res-7, Reason: TranslatedSpeech, Text: hello world"
	if got := args.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestTranslationRecognitionCanceledEventArgs_String(t *testing.T) {
	args := speech.TranslationRecognitionCanceledEventArgs{
		RecognitionEventArgs: speech.RecognitionEventArgs{
			SessionEventArgs: speech.SessionEventArgs{SessionID: "sess-1"},
		},
		Cancellation: speech.CancellationDetails{
			Reason:  engine.CancelledError,
			Code:    engine.StatusConnectionFailure,
			Details: "connection reset",
		},
	}
	want := "SessionId: sess-1, Reason: Error, Code: ConnectionFailure, Details: connection reset"
	if got := args.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestTranslationSynthesisEventArgs_String(t *testing.T) {
	args := speech.TranslationSynthesisEventArgs{
		SessionEventArgs: speech.SessionEventArgs{SessionID: "sess-1"},
		Result: speech.TranslationSynthesisResult{
			Reason: engine.ReasonSynthesizingAudio,
			Audio:  []byte{1, 2, 3, 4},
		},
	}
	want := "SessionId: sess-1, Reason: SynthesizingAudio, Audio: 4 bytes"
	if got := args.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestIntentRecognitionEventArgs_String(t *testing.T) {
	args := speech.IntentRecognitionEventArgs{
		RecognitionEventArgs: speech.RecognitionEventArgs{
			SessionEventArgs: speech.SessionEventArgs{SessionID: "sess-1"},
		},
		Result: speech.IntentRecognitionResult{
			ID:       "res-9",
			Reason:   engine.ReasonRecognizedIntent,
			IntentID: "lights.off",
			Text:     "turn off the light",
		},
	}
	want := "SessionId: sess-1, ResultId: res-9, Reason: RecognizedIntent, IntentId: lights.off, Text: turn off the light"
	if got := args.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
