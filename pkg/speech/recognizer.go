// Package speech provides an event-driven client surface over a speech
// recognition and translation engine.
//
// The central type is [TranslationRecognizer]: it owns an engine recognizer
// handle, exposes asynchronous recognize-once, continuous and keyword
// operations, and re-publishes engine callbacks as multicast events. The
// engine itself — audio decoding, recognition, translation, synthesis — is
// pluggable behind the [engine.Engine] boundary; implementations live in
// pkg/engine's subpackages.
//
// Engine callbacks arrive on engine goroutines at arbitrary times after a
// start operation. The SDK never lets a subscriber panic unwind into the
// engine, and a recognizer that has begun closing silently drops late
// callbacks instead of touching torn-down state.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tommy200519/cognitive-services-speech-sdk/internal/boundary"
	"github.com/tommy200519/cognitive-services-speech-sdk/internal/handle"
	"github.com/tommy200519/cognitive-services-speech-sdk/internal/observe"
	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/audio"
	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine"
)

// ErrRecognizerClosed is returned by operations invoked after Close.
var ErrRecognizerClosed = errors.New("speech: recognizer is closed")

// recognizers maps callback context tokens to live TranslationRecognizer
// instances. Engine callbacks carry the token; a token whose recognizer has
// been closed resolves to not-found and the callback is dropped.
var recognizers = handle.NewRegistry[*TranslationRecognizer]()

// TranslationRecognizer recognizes speech and translates it into one or
// more target languages.
//
// The event Signal fields may be subscribed at any time before Close. All
// events fire on engine goroutines; handlers must not block for long and
// must not call Close from within themselves.
type TranslationRecognizer struct {
	// Recognizing fires with interim hypotheses during an utterance.
	Recognizing Signal[TranslationRecognitionEventArgs]

	// Recognized fires once per utterance with the final result.
	Recognized Signal[TranslationRecognitionEventArgs]

	// Canceled fires when recognition is canceled by error or end of stream.
	Canceled Signal[TranslationRecognitionCanceledEventArgs]

	// Synthesizing fires with chunks of synthesized translation audio when
	// a voice is configured and the engine supports synthesis.
	Synthesizing Signal[TranslationSynthesisEventArgs]

	// SessionStarted and SessionStopped delimit a recognition session.
	SessionStarted Signal[SessionEventArgs]
	SessionStopped Signal[SessionEventArgs]

	// SpeechStartDetected and SpeechEndDetected report utterance boundaries
	// located by the engine.
	SpeechStartDetected Signal[RecognitionEventArgs]
	SpeechEndDetected   Signal[RecognitionEventArgs]

	// Properties is the recognizer's property bag, owned by the engine
	// handle. It becomes inaccessible once the recognizer is closed.
	Properties *PropertyCollection

	eng    engine.Engine
	handle engine.Handle
	token  handle.Token

	lifecycle
	metrics *observe.Metrics
}

// NewTranslationRecognizer creates a recognizer from a translation config
// and an optional audio source (nil selects the engine's default input).
//
// On success all event callbacks are installed with the engine before the
// constructor returns. On failure no callbacks remain installed.
func NewTranslationRecognizer(eng engine.Engine, config *SpeechTranslationConfig, audioConfig *audio.Config) (*TranslationRecognizer, error) {
	if eng == nil {
		return nil, fmt.Errorf("speech: engine must not be nil")
	}
	if config == nil {
		return nil, fmt.Errorf("speech: config must not be nil")
	}

	h, err := eng.CreateRecognizer(engine.RecognizerConfig{
		Properties: config.snapshot(),
		Source:     audioConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("speech: create recognizer: %w", err)
	}
	if h == engine.NilHandle {
		return nil, fmt.Errorf("speech: create recognizer: %w",
			engine.Errorf("create recognizer", engine.StatusInvalidHandle, "factory returned a nil handle"))
	}

	r := &TranslationRecognizer{
		eng:     eng,
		handle:  h,
		metrics: observe.DefaultMetrics(),
	}
	r.token = recognizers.Register(r)

	rollback := func() {
		for _, kind := range engine.Kinds {
			_ = eng.SetHandler(h, kind, nil, 0)
		}
		recognizers.Release(r.token)
		_ = eng.CloseRecognizer(h)
	}

	for kind, cb := range translationTrampolines {
		if err := eng.SetHandler(h, kind, cb, uint64(r.token)); err != nil {
			rollback()
			return nil, fmt.Errorf("speech: install %s callback: %w", kind, err)
		}
	}

	bag, err := eng.PropertyBag(h)
	if err != nil {
		rollback()
		return nil, fmt.Errorf("speech: fetch property bag: %w", err)
	}
	r.Properties = &PropertyCollection{bag: bag}

	r.metrics.ActiveRecognizers.Add(context.Background(), 1)
	return r, nil
}

// SpeechRecognitionLanguage returns the source language the recognizer was
// created with.
func (r *TranslationRecognizer) SpeechRecognitionLanguage() string {
	return r.Properties.Get(engine.PropertyRecognitionLanguage)
}

// TargetLanguages returns the translation target language codes. The stored
// comma-joined list is split literally: with no targets configured the
// result is [""]. See [SpeechTranslationConfig.TargetLanguages].
func (r *TranslationRecognizer) TargetLanguages() []string {
	return splitTargetLanguages(r.Properties.Get(engine.PropertyTargetLanguages))
}

// VoiceName returns the synthesis voice the recognizer was created with.
func (r *TranslationRecognizer) VoiceName() string {
	return r.Properties.Get(engine.PropertyVoiceName)
}

// AuthorizationToken returns the current bearer token.
func (r *TranslationRecognizer) AuthorizationToken() string {
	return r.Properties.Get(engine.PropertyAuthorizationToken)
}

// SetAuthorizationToken replaces the bearer token used on the next service
// connection. An empty token is rejected without touching the property bag.
func (r *TranslationRecognizer) SetAuthorizationToken(token string) error {
	if token == "" {
		return ErrEmptyAuthorizationToken
	}
	if r.closing.Load() {
		return ErrRecognizerClosed
	}
	return r.Properties.Set(engine.PropertyAuthorizationToken, token)
}

// RecognizeOnceAsync recognizes a single utterance. It returns immediately;
// the channel yields exactly one outcome once the engine has delimited the
// utterance (trailing silence or the engine's utterance cap, typically
// around 15 seconds of audio).
func (r *TranslationRecognizer) RecognizeOnceAsync(ctx context.Context) <-chan TranslationRecognitionOutcome {
	out := make(chan TranslationRecognitionOutcome, 1)
	var res engine.Result
	errCh := r.runAsync(ctx, "recognize once", r.metrics, func(ctx context.Context) error {
		var err error
		res, err = r.eng.RecognizeOnce(ctx, r.handle)
		return err
	})
	go func() {
		defer close(out)
		if err := <-errCh; err != nil {
			out <- TranslationRecognitionOutcome{Error: err}
			return
		}
		out <- TranslationRecognitionOutcome{Result: newTranslationRecognitionResult(res)}
	}()
	return out
}

// StartContinuousRecognitionAsync starts continuous recognition. Events
// fire on engine goroutines until [TranslationRecognizer.StopContinuousRecognitionAsync]
// completes.
func (r *TranslationRecognizer) StartContinuousRecognitionAsync(ctx context.Context) <-chan error {
	return r.runAsync(ctx, "start continuous recognition", r.metrics, func(ctx context.Context) error {
		return r.eng.StartContinuous(ctx, r.handle)
	})
}

// StopContinuousRecognitionAsync asks the engine to stop continuous
// recognition. The request is cooperative: an in-flight utterance finishes
// on the engine's terms.
func (r *TranslationRecognizer) StopContinuousRecognitionAsync(ctx context.Context) <-chan error {
	return r.runAsync(ctx, "stop continuous recognition", r.metrics, func(ctx context.Context) error {
		return r.eng.StopContinuous(ctx, r.handle)
	})
}

// StartKeywordRecognitionAsync starts keyword-triggered recognition using
// the given model.
func (r *TranslationRecognizer) StartKeywordRecognitionAsync(ctx context.Context, model *KeywordRecognitionModel) <-chan error {
	if model == nil {
		out := make(chan error, 1)
		out <- fmt.Errorf("speech: start keyword recognition: model must not be nil")
		close(out)
		return out
	}
	return r.runAsync(ctx, "start keyword recognition", r.metrics, func(ctx context.Context) error {
		return r.eng.StartKeyword(ctx, r.handle, model.Phrases())
	})
}

// StopKeywordRecognitionAsync asks the engine to stop keyword recognition.
func (r *TranslationRecognizer) StopKeywordRecognitionAsync(ctx context.Context) <-chan error {
	return r.runAsync(ctx, "stop keyword recognition", r.metrics, func(ctx context.Context) error {
		return r.eng.StopKeyword(ctx, r.handle)
	})
}

// Close releases the recognizer. It is idempotent; a second call performs
// no further engine calls and returns the first call's result.
//
// Teardown order matters: the closing flag is set first so that engine
// callbacks still in flight drop out instead of touching a half-released
// recognizer; then the property bag is closed, the engine callbacks are
// uninstalled best-effort, the subscriber lists are cleared, and finally
// the handle itself is released.
func (r *TranslationRecognizer) Close() error {
	r.closeOnce.Do(func() {
		r.closing.Store(true)

		if r.Properties != nil {
			if err := r.Properties.close(); err != nil {
				slog.Warn("closing recognizer property bag failed", "error", err)
			}
		}
		for _, kind := range engine.Kinds {
			if err := r.eng.SetHandler(r.handle, kind, nil, 0); err != nil {
				slog.Warn("unregistering recognizer callback failed", "event", kind.String(), "error", err)
			}
		}
		r.clearSignals()
		recognizers.Release(r.token)
		r.metrics.ActiveRecognizers.Add(context.Background(), -1)

		if err := r.eng.CloseRecognizer(r.handle); err != nil {
			r.closeErr = fmt.Errorf("speech: close recognizer: %w", err)
		}
	})
	return r.closeErr
}

func (r *TranslationRecognizer) clearSignals() {
	r.Recognizing.clear()
	r.Recognized.clear()
	r.Canceled.clear()
	r.Synthesizing.clear()
	r.SessionStarted.clear()
	r.SessionStopped.clear()
	r.SpeechStartDetected.clear()
	r.SpeechEndDetected.clear()
}

// ---- trampolines -----------------------------------------------------------

// translationTrampolines are the stable dispatch functions installed with
// the engine at construction time, one per event kind. Each resolves its
// recognizer from the context token and drops the event when the token is
// stale or the recognizer is closing; dispatch itself runs behind a panic
// guard so no failure ever reaches the engine goroutine.
var translationTrampolines = map[engine.Kind]engine.Callback{
	engine.EventRecognizing:         fireRecognizing,
	engine.EventRecognized:          fireRecognized,
	engine.EventCanceled:            fireCanceled,
	engine.EventSynthesizing:        fireSynthesizing,
	engine.EventSessionStarted:      fireSessionStarted,
	engine.EventSessionStopped:      fireSessionStopped,
	engine.EventSpeechStartDetected: fireSpeechStartDetected,
	engine.EventSpeechEndDetected:   fireSpeechEndDetected,
}

// resolveTranslationRecognizer maps a callback context token back to its
// recognizer. Dropped dispatches are counted, never reported to the caller:
// there is no caller frame on an engine goroutine.
func resolveTranslationRecognizer(kind engine.Kind, token uint64) (*TranslationRecognizer, bool) {
	r, ok := recognizers.Resolve(handle.Token(token))
	if !ok {
		observe.DefaultMetrics().RecordCallbackFailure(context.Background(), kind.String(), "stale_token")
		return nil, false
	}
	if r.closing.Load() {
		r.metrics.RecordCallbackFailure(context.Background(), kind.String(), "closing")
		return nil, false
	}
	return r, true
}

func fireRecognizing(_ engine.Handle, ev engine.Event, token uint64) {
	r, ok := resolveTranslationRecognizer(engine.EventRecognizing, token)
	if !ok {
		return
	}
	boundary.Protect("recognizing", func() {
		if !r.Recognizing.hasSubscribers() {
			return
		}
		r.metrics.RecordDispatch(context.Background(), "recognizing")
		r.Recognizing.emit(newTranslationRecognitionEventArgs(ev))
	})
}

func fireRecognized(_ engine.Handle, ev engine.Event, token uint64) {
	r, ok := resolveTranslationRecognizer(engine.EventRecognized, token)
	if !ok {
		return
	}
	boundary.Protect("recognized", func() {
		if !r.Recognized.hasSubscribers() {
			return
		}
		r.metrics.RecordDispatch(context.Background(), "recognized")
		r.Recognized.emit(newTranslationRecognitionEventArgs(ev))
	})
}

func fireCanceled(_ engine.Handle, ev engine.Event, token uint64) {
	r, ok := resolveTranslationRecognizer(engine.EventCanceled, token)
	if !ok {
		return
	}
	boundary.Protect("canceled", func() {
		if !r.Canceled.hasSubscribers() {
			return
		}
		r.metrics.RecordDispatch(context.Background(), "canceled")
		r.Canceled.emit(newTranslationRecognitionCanceledEventArgs(ev))
	})
}

func fireSynthesizing(_ engine.Handle, ev engine.Event, token uint64) {
	r, ok := resolveTranslationRecognizer(engine.EventSynthesizing, token)
	if !ok {
		return
	}
	boundary.Protect("synthesizing", func() {
		if !r.Synthesizing.hasSubscribers() {
			return
		}
		r.metrics.RecordDispatch(context.Background(), "synthesizing")
		r.Synthesizing.emit(newTranslationSynthesisEventArgs(ev))
	})
}

func fireSessionStarted(_ engine.Handle, ev engine.Event, token uint64) {
	r, ok := resolveTranslationRecognizer(engine.EventSessionStarted, token)
	if !ok {
		return
	}
	boundary.Protect("session_started", func() {
		r.SessionStarted.emit(SessionEventArgs{SessionID: ev.SessionID})
	})
}

func fireSessionStopped(_ engine.Handle, ev engine.Event, token uint64) {
	r, ok := resolveTranslationRecognizer(engine.EventSessionStopped, token)
	if !ok {
		return
	}
	boundary.Protect("session_stopped", func() {
		r.SessionStopped.emit(SessionEventArgs{SessionID: ev.SessionID})
	})
}

func fireSpeechStartDetected(_ engine.Handle, ev engine.Event, token uint64) {
	r, ok := resolveTranslationRecognizer(engine.EventSpeechStartDetected, token)
	if !ok {
		return
	}
	boundary.Protect("speech_start_detected", func() {
		r.SpeechStartDetected.emit(newRecognitionEventArgs(ev))
	})
}

func fireSpeechEndDetected(_ engine.Handle, ev engine.Event, token uint64) {
	r, ok := resolveTranslationRecognizer(engine.EventSpeechEndDetected, token)
	if !ok {
		return
	}
	boundary.Protect("speech_end_detected", func() {
		r.SpeechEndDetected.emit(newRecognitionEventArgs(ev))
	})
}
