// Package engine defines the boundary between the speech SDK façade and a
// recognition engine. An engine owns all substantive work — audio decoding,
// recognition, translation, synthesis — and exposes it through opaque
// recognizer handles: a factory creates a handle, per-event callbacks are
// installed against it, and blocking operations drive it.
//
// Engines run their own goroutines. Once a start operation succeeds, the
// installed callbacks fire at arbitrary times, concurrently with the
// caller's goroutine, until the matching stop operation completes. Callbacks
// receive the opaque context token that was supplied at installation time;
// they must not assume the token still resolves to a live owner.
//
// Implementations live in the subpackages: cloud (streaming WebSocket
// service), local (embedded whisper.cpp), and mock (scripted test double).
package engine

import (
	"context"
	"time"

	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/audio"
)

// Handle identifies a recognizer instance owned by an engine. NilHandle is
// never issued.
type Handle uint64

// NilHandle is the invalid recognizer handle.
const NilHandle Handle = 0

// Kind enumerates the event callbacks a recognizer handle supports.
type Kind int

const (
	EventRecognizing Kind = iota
	EventRecognized
	EventCanceled
	EventSynthesizing
	EventSessionStarted
	EventSessionStopped
	EventSpeechStartDetected
	EventSpeechEndDetected
)

// Kinds lists every event kind, in installation order.
var Kinds = []Kind{
	EventRecognizing,
	EventRecognized,
	EventCanceled,
	EventSynthesizing,
	EventSessionStarted,
	EventSessionStopped,
	EventSpeechStartDetected,
	EventSpeechEndDetected,
}

// String returns the lowercase event name used in logs and metric attributes.
func (k Kind) String() string {
	switch k {
	case EventRecognizing:
		return "recognizing"
	case EventRecognized:
		return "recognized"
	case EventCanceled:
		return "canceled"
	case EventSynthesizing:
		return "synthesizing"
	case EventSessionStarted:
		return "session_started"
	case EventSessionStopped:
		return "session_stopped"
	case EventSpeechStartDetected:
		return "speech_start_detected"
	case EventSpeechEndDetected:
		return "speech_end_detected"
	}
	return "unknown"
}

// Callback is invoked by an engine on one of its own goroutines. The token
// is the opaque context value supplied to SetHandler. Callbacks must not
// panic into the engine; the SDK wraps all dispatch in a panic guard.
type Callback func(h Handle, ev Event, token uint64)

// Reason describes why a result was produced.
type Reason int

const (
	// ReasonNoMatch indicates speech could not be recognized.
	ReasonNoMatch Reason = iota

	// ReasonTranslatingSpeech is an interim hypothesis with partial translations.
	ReasonTranslatingSpeech

	// ReasonTranslatedSpeech is a final recognition with translations.
	ReasonTranslatedSpeech

	// ReasonRecognizedSpeech is a final recognition without translations
	// (engines that do not translate, e.g. the local engine).
	ReasonRecognizedSpeech

	// ReasonRecognizedKeyword is a final recognition triggered by a keyword
	// model match.
	ReasonRecognizedKeyword

	// ReasonRecognizedIntent is a final recognition paired with an intent.
	ReasonRecognizedIntent

	// ReasonSynthesizingAudio carries a chunk of synthesized translation audio.
	ReasonSynthesizingAudio

	// ReasonSynthesizingAudioCompleted marks the end of a synthesis stream.
	ReasonSynthesizingAudioCompleted

	// ReasonCanceled indicates the recognition was canceled; see the
	// result's Cancellation for detail.
	ReasonCanceled
)

// String returns the diagnostic name of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNoMatch:
		return "NoMatch"
	case ReasonTranslatingSpeech:
		return "TranslatingSpeech"
	case ReasonTranslatedSpeech:
		return "TranslatedSpeech"
	case ReasonRecognizedSpeech:
		return "RecognizedSpeech"
	case ReasonRecognizedKeyword:
		return "RecognizedKeyword"
	case ReasonRecognizedIntent:
		return "RecognizedIntent"
	case ReasonSynthesizingAudio:
		return "SynthesizingAudio"
	case ReasonSynthesizingAudioCompleted:
		return "SynthesizingAudioCompleted"
	case ReasonCanceled:
		return "Canceled"
	}
	return "Unknown"
}

// CancellationReason distinguishes error cancellations from ordinary
// end-of-stream cancellations.
type CancellationReason int

const (
	CancelledError CancellationReason = iota
	CancelledEndOfStream
)

// String returns the diagnostic name of the cancellation reason.
func (r CancellationReason) String() string {
	if r == CancelledEndOfStream {
		return "EndOfStream"
	}
	return "Error"
}

// Cancellation carries detail for a ReasonCanceled result.
type Cancellation struct {
	Reason  CancellationReason
	Code    Status
	Details string
}

// Result is a recognition outcome produced by an engine.
type Result struct {
	// ID uniquely identifies this result within its session.
	ID string

	Reason Reason

	// Text is the recognized text in the source language.
	Text string

	// Translations maps target language codes to translated text. Nil when
	// the engine does not translate or the result is not final.
	Translations map[string]string

	// Offset is the position of the recognized audio within the session;
	// Duration is its length.
	Offset   time.Duration
	Duration time.Duration

	// Cancellation is set when Reason is ReasonCanceled.
	Cancellation *Cancellation
}

// Event is the payload handed to an installed Callback.
type Event struct {
	// SessionID identifies the recognition session the event belongs to.
	SessionID string

	// Offset is the audio position the event refers to, when applicable.
	Offset time.Duration

	// Result carries the recognition result for recognizing, recognized and
	// canceled events.
	Result Result

	// Audio carries a synthesized audio chunk for synthesizing events. A
	// nil or empty Audio with ReasonSynthesizingAudioCompleted marks the
	// end of the synthesis stream.
	Audio []byte
}

// RecognizerConfig is the input to an engine's recognizer factory. The
// property map carries all service configuration (credentials, languages,
// voice); the audio source may be nil when the engine provides a default
// input.
type RecognizerConfig struct {
	Properties map[PropertyID]string
	Source     *audio.Config
}

// Engine is the handle-based recognition engine boundary.
//
// CreateRecognizer, SetHandler, PropertyBag and CloseRecognizer manage the
// lifetime of a recognizer handle. The remaining operations block until the
// engine completes them; the SDK schedules them onto worker goroutines.
type Engine interface {
	// CreateRecognizer allocates a recognizer for the given configuration.
	// A failure returns NilHandle and a *Error carrying the engine status.
	CreateRecognizer(cfg RecognizerConfig) (Handle, error)

	// SetHandler installs cb for the given event kind on h, passing token
	// back on every invocation. A nil cb uninstalls the handler.
	SetHandler(h Handle, kind Kind, cb Callback, token uint64) error

	// PropertyBag returns the property bag owned by h. The bag becomes
	// unusable once h is closed.
	PropertyBag(h Handle) (PropertyBag, error)

	// RecognizeOnce recognizes a single utterance and blocks until the
	// engine delimits it (trailing silence or the engine's utterance cap).
	RecognizeOnce(ctx context.Context, h Handle) (Result, error)

	// StartContinuous begins continuous recognition; events fire on engine
	// goroutines until StopContinuous completes.
	StartContinuous(ctx context.Context, h Handle) error

	// StopContinuous requests the engine stop continuous recognition. It is
	// cooperative: in-flight utterances finish on engine-defined terms.
	StopContinuous(ctx context.Context, h Handle) error

	// StartKeyword begins keyword-triggered recognition for the given
	// keyword phrases.
	StartKeyword(ctx context.Context, h Handle, phrases []string) error

	// StopKeyword requests the engine stop keyword recognition.
	StopKeyword(ctx context.Context, h Handle) error

	// CloseRecognizer releases h and everything owned by it. Installed
	// callbacks never fire after CloseRecognizer returns.
	CloseRecognizer(h Handle) error
}
