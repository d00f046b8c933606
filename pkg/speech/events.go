package speech

import (
	"fmt"
	"time"

	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine"
)

// SessionEventArgs is the payload of session start and stop events.
type SessionEventArgs struct {
	// SessionID identifies the recognition session.
	SessionID string
}

// String returns a diagnostic form of the event.
func (e SessionEventArgs) String() string {
	return fmt.Sprintf("SessionId: %s", e.SessionID)
}

// RecognitionEventArgs is the payload of speech start and end detection
// events, and the base of the result-bearing event payloads.
type RecognitionEventArgs struct {
	SessionEventArgs

	// Offset is the audio position the event refers to.
	Offset time.Duration
}

// TranslationRecognitionEventArgs is the payload of recognizing and
// recognized events. Values are immutable; constructed once per engine
// callback.
type TranslationRecognitionEventArgs struct {
	RecognitionEventArgs

	// Result is the interim or final recognition result.
	Result TranslationRecognitionResult
}

// String returns a diagnostic form pairing the session with the result.
func (e TranslationRecognitionEventArgs) String() string {
	return fmt.Sprintf("SessionId: %s, ResultId: %s, Reason: %s, Text: %s",
		e.SessionID, e.Result.ID, e.Result.Reason, e.Result.Text)
}

// TranslationRecognitionCanceledEventArgs is the payload of canceled
// events.
type TranslationRecognitionCanceledEventArgs struct {
	RecognitionEventArgs

	// Cancellation explains why recognition was canceled.
	Cancellation CancellationDetails
}

// String returns a diagnostic form of the cancellation.
func (e TranslationRecognitionCanceledEventArgs) String() string {
	return fmt.Sprintf("SessionId: %s, Reason: %s, Code: %s, Details: %s",
		e.SessionID, e.Cancellation.Reason, e.Cancellation.Code, e.Cancellation.Details)
}

// TranslationSynthesisEventArgs is the payload of synthesizing events.
type TranslationSynthesisEventArgs struct {
	SessionEventArgs

	// Result carries the synthesized audio chunk.
	Result TranslationSynthesisResult
}

// String returns a diagnostic form of the synthesis chunk.
func (e TranslationSynthesisEventArgs) String() string {
	return fmt.Sprintf("SessionId: %s, Reason: %s, Audio: %d bytes",
		e.SessionID, e.Result.Reason, len(e.Result.Audio))
}

func newRecognitionEventArgs(ev engine.Event) RecognitionEventArgs {
	return RecognitionEventArgs{
		SessionEventArgs: SessionEventArgs{SessionID: ev.SessionID},
		Offset:           ev.Offset,
	}
}

func newTranslationRecognitionEventArgs(ev engine.Event) TranslationRecognitionEventArgs {
	return TranslationRecognitionEventArgs{
		RecognitionEventArgs: newRecognitionEventArgs(ev),
		Result:               newTranslationRecognitionResult(ev.Result),
	}
}

func newTranslationRecognitionCanceledEventArgs(ev engine.Event) TranslationRecognitionCanceledEventArgs {
	return TranslationRecognitionCanceledEventArgs{
		RecognitionEventArgs: newRecognitionEventArgs(ev),
		Cancellation:         newCancellationDetails(ev.Result.Cancellation),
	}
}

func newTranslationSynthesisEventArgs(ev engine.Event) TranslationSynthesisEventArgs {
	return TranslationSynthesisEventArgs{
		SessionEventArgs: SessionEventArgs{SessionID: ev.SessionID},
		Result: TranslationSynthesisResult{
			Reason: ev.Result.Reason,
			Audio:  ev.Audio,
		},
	}
}
