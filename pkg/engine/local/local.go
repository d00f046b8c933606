// Package local implements an embedded [engine.Engine] backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a)
// and headers (whisper.h) must be available at link time via LIBRARY_PATH
// and C_INCLUDE_PATH.
//
// The model is loaded once and shared by every recognizer handle; each
// inference runs on a fresh whisper context, which is how the bindings
// support concurrency. whisper.cpp is a batch transcriber, so streaming is
// simulated: an energy-based silence detector cuts the audio source into
// utterances and each completed utterance is transcribed as one batch.
//
// The local engine recognizes but does not translate: final results carry
// ReasonRecognizedSpeech and no translations, and no synthesis events fire.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/google/uuid"

	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/audio"
	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine"
)

const (
	defaultSilenceWindow = 500 * time.Millisecond
	defaultMaxUtterance  = 15 * time.Second

	// chunkLen is the wall-clock size of one read from the audio source.
	chunkLen = 100 * time.Millisecond

	// defaultCloseWait bounds how long CloseRecognizer waits for the
	// session goroutine. A source read that never returns cannot be
	// interrupted, so the goroutine is abandoned after this long.
	defaultCloseWait = 2 * time.Second
)

// Compile-time interface assertion.
var _ engine.Engine = (*Engine)(nil)

// Option is a functional option for configuring the local Engine.
type Option func(*Engine)

// WithSilenceWindow sets the run of trailing silence that delimits an
// utterance. Default: 500ms.
func WithSilenceWindow(d time.Duration) Option {
	return func(e *Engine) { e.silenceWindow = d }
}

// WithMaxUtterance caps a single utterance before a forced cut. Default: 15s.
func WithMaxUtterance(d time.Duration) Option {
	return func(e *Engine) { e.maxUtterance = d }
}

// Engine is a whisper.cpp-backed [engine.Engine].
type Engine struct {
	model         whisperlib.Model
	silenceWindow time.Duration
	maxUtterance  time.Duration
	closeWait     time.Duration

	mu         sync.Mutex
	nextHandle engine.Handle
	recs       map[engine.Handle]*recognizer
}

// New loads the whisper model from modelPath and returns an engine sharing
// it across all recognizers. The caller must Close the engine when done.
func New(modelPath string, opts ...Option) (*Engine, error) {
	if modelPath == "" {
		return nil, engine.Errorf("load model", engine.StatusInvalidArgument, "model path must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, engine.Errorf("load model", engine.StatusRuntimeError, "load %q: %v", modelPath, err)
	}
	e := &Engine{
		model:         model,
		silenceWindow: defaultSilenceWindow,
		maxUtterance:  defaultMaxUtterance,
		closeWait:     defaultCloseWait,
		recs:          make(map[engine.Handle]*recognizer),
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Close releases the shared model. Recognizer handles must be closed first.
func (e *Engine) Close() error {
	if e.model != nil {
		return e.model.Close()
	}
	return nil
}

type recognizer struct {
	mu       sync.Mutex
	bag      *engine.MemoryBag
	source   *audio.Config
	language string
	handlers map[engine.Kind]installedHandler
	keywords []string

	cancel context.CancelFunc
	done   chan struct{}
}

type installedHandler struct {
	cb    engine.Callback
	token uint64
}

// CreateRecognizer implements [engine.Engine]. The local engine needs an
// audio source; credentials are ignored.
func (e *Engine) CreateRecognizer(cfg engine.RecognizerConfig) (engine.Handle, error) {
	if cfg.Source == nil {
		return engine.NilHandle, engine.Errorf("create recognizer", engine.StatusInvalidArgument,
			"an audio source is required")
	}

	bag := engine.NewMemoryBag()
	for id, v := range cfg.Properties {
		_ = bag.Set(id, v)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextHandle++
	h := e.nextHandle
	e.recs[h] = &recognizer{
		bag:      bag,
		source:   cfg.Source,
		language: shortLanguage(cfg.Properties[engine.PropertyRecognitionLanguage]),
		handlers: make(map[engine.Kind]installedHandler),
	}
	return h, nil
}

// SetHandler implements [engine.Engine].
func (e *Engine) SetHandler(h engine.Handle, kind engine.Kind, cb engine.Callback, token uint64) error {
	rec, err := e.recognizer("set handler", h)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if cb == nil {
		delete(rec.handlers, kind)
		return nil
	}
	rec.handlers[kind] = installedHandler{cb: cb, token: token}
	return nil
}

// PropertyBag implements [engine.Engine].
func (e *Engine) PropertyBag(h engine.Handle) (engine.PropertyBag, error) {
	rec, err := e.recognizer("property bag", h)
	if err != nil {
		return nil, err
	}
	return rec.bag, nil
}

// RecognizeOnce implements [engine.Engine]. It reads the audio source until
// the silence detector delimits an utterance, transcribes it, and returns
// the result. A source with no speech yields ReasonNoMatch.
func (e *Engine) RecognizeOnce(ctx context.Context, h engine.Handle) (engine.Result, error) {
	rec, err := e.recognizer("recognize once", h)
	if err != nil {
		return engine.Result{}, err
	}

	seg := newSegmenter(rec.source.BytesPerSecond(), e.silenceWindow, e.maxUtterance)
	chunk := make([]byte, chunkBytes(rec.source))
	for {
		if err := ctx.Err(); err != nil {
			return engine.Result{}, err
		}
		n, rerr := rec.source.Read(chunk)
		var utt *utterance
		if n > 0 {
			_, utt = seg.push(chunk[:n])
		}
		if utt == nil && rerr != nil {
			if !errors.Is(rerr, io.EOF) {
				return engine.Result{}, engine.Errorf("recognize once", engine.StatusRuntimeError, "read audio: %v", rerr)
			}
			utt = seg.flush()
			if utt == nil {
				return engine.Result{Reason: engine.ReasonNoMatch}, nil
			}
		}
		if utt == nil {
			continue
		}
		return e.transcribe(rec, utt)
	}
}

// StartContinuous implements [engine.Engine].
func (e *Engine) StartContinuous(ctx context.Context, h engine.Handle) error {
	return e.start(ctx, "start continuous", h, nil)
}

// StopContinuous implements [engine.Engine].
func (e *Engine) StopContinuous(ctx context.Context, h engine.Handle) error {
	return e.stop(ctx, "stop continuous", h)
}

// StartKeyword implements [engine.Engine]. Keyword matching is textual:
// transcribed utterances containing one of the phrases are dispatched as
// ReasonRecognizedKeyword, everything else is dropped.
func (e *Engine) StartKeyword(ctx context.Context, h engine.Handle, phrases []string) error {
	if len(phrases) == 0 {
		return engine.Errorf("start keyword", engine.StatusInvalidArgument, "at least one keyword phrase is required")
	}
	return e.start(ctx, "start keyword", h, phrases)
}

// StopKeyword implements [engine.Engine].
func (e *Engine) StopKeyword(ctx context.Context, h engine.Handle) error {
	return e.stop(ctx, "stop keyword", h)
}

// CloseRecognizer implements [engine.Engine].
func (e *Engine) CloseRecognizer(h engine.Handle) error {
	e.mu.Lock()
	rec, ok := e.recs[h]
	delete(e.recs, h)
	e.mu.Unlock()
	if !ok {
		return engine.Errorf("close recognizer", engine.StatusInvalidHandle, "unknown handle %d", h)
	}

	rec.mu.Lock()
	cancel, done := rec.cancel, rec.done
	rec.cancel, rec.done = nil, nil
	rec.handlers = make(map[engine.Kind]installedHandler)
	rec.mu.Unlock()
	if cancel != nil {
		cancel()
		// Bounded: the session goroutine may be stuck in a source read
		// that never returns. Its handlers are already cleared, so an
		// abandoned goroutine can no longer dispatch.
		select {
		case <-done:
		case <-time.After(e.closeWait):
			slog.Warn("recognition session did not stop before the teardown bound, abandoning",
				"handle", h)
		}
	}
	return rec.bag.Close()
}

func (e *Engine) recognizer(op string, h engine.Handle) (*recognizer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.recs[h]
	if !ok {
		return nil, engine.Errorf(op, engine.StatusInvalidHandle, "unknown handle %d", h)
	}
	return rec, nil
}

func (e *Engine) start(ctx context.Context, op string, h engine.Handle, keywords []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec, err := e.recognizer(op, h)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.done != nil {
		return engine.Errorf(op, engine.StatusInvalidArgument, "recognition is already running")
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	rec.cancel = cancel
	rec.done = make(chan struct{})
	rec.keywords = keywords

	go e.run(runCtx, h, rec, rec.done)
	return nil
}

func (e *Engine) stop(ctx context.Context, op string, h engine.Handle) error {
	rec, err := e.recognizer(op, h)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	cancel, done := rec.cancel, rec.done
	rec.cancel, rec.done = nil, nil
	rec.keywords = nil
	rec.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the session goroutine driving continuous and keyword recognition.
func (e *Engine) run(ctx context.Context, h engine.Handle, rec *recognizer, done chan struct{}) {
	defer close(done)

	sessionID := uuid.NewString()
	rec.dispatch(h, engine.EventSessionStarted, engine.Event{SessionID: sessionID})
	defer rec.dispatch(h, engine.EventSessionStopped, engine.Event{SessionID: sessionID})

	seg := newSegmenter(rec.source.BytesPerSecond(), e.silenceWindow, e.maxUtterance)
	chunk := make([]byte, chunkBytes(rec.source))
	for {
		if ctx.Err() != nil {
			if utt := seg.flush(); utt != nil {
				e.emitUtterance(h, rec, sessionID, utt)
			}
			return
		}

		n, rerr := rec.source.Read(chunk)
		if n > 0 {
			started, utt := seg.push(chunk[:n])
			if started {
				rec.dispatch(h, engine.EventSpeechStartDetected, engine.Event{
					SessionID: sessionID, Offset: seg.speechStart,
				})
			}
			if utt != nil {
				rec.dispatch(h, engine.EventSpeechEndDetected, engine.Event{
					SessionID: sessionID, Offset: utt.offset + utt.duration,
				})
				e.emitUtterance(h, rec, sessionID, utt)
			}
		}
		if rerr != nil {
			if utt := seg.flush(); utt != nil {
				e.emitUtterance(h, rec, sessionID, utt)
			}
			cancellation := &engine.Cancellation{Reason: engine.CancelledEndOfStream}
			if !errors.Is(rerr, io.EOF) {
				cancellation = &engine.Cancellation{
					Reason:  engine.CancelledError,
					Code:    engine.StatusRuntimeError,
					Details: fmt.Sprintf("read audio: %v", rerr),
				}
			}
			rec.dispatch(h, engine.EventCanceled, engine.Event{
				SessionID: sessionID,
				Result:    engine.Result{Reason: engine.ReasonCanceled, Cancellation: cancellation},
			})
			return
		}
	}
}

// emitUtterance transcribes one utterance and dispatches it as a final
// result, applying the keyword gate when active.
func (e *Engine) emitUtterance(h engine.Handle, rec *recognizer, sessionID string, utt *utterance) {
	res, err := e.transcribe(rec, utt)
	if err != nil {
		slog.Error("local inference failed", "error", err)
		return
	}
	if res.Reason == engine.ReasonNoMatch || res.Text == "" {
		return
	}

	rec.mu.Lock()
	keywords := rec.keywords
	rec.mu.Unlock()
	if len(keywords) > 0 {
		text := strings.ToLower(res.Text)
		matched := false
		for _, kw := range keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				matched = true
				break
			}
		}
		if !matched {
			return
		}
		res.Reason = engine.ReasonRecognizedKeyword
	}

	rec.dispatch(h, engine.EventRecognized, engine.Event{
		SessionID: sessionID,
		Offset:    res.Offset,
		Result:    res,
	})
}

// transcribe runs one batch inference on a fresh whisper context. Contexts
// are not safe for concurrent use; the shared model is.
func (e *Engine) transcribe(rec *recognizer, utt *utterance) (engine.Result, error) {
	samples := pcmToFloat32Mono(utt.pcm, rec.source.Channels)

	wctx, err := e.model.NewContext()
	if err != nil {
		return engine.Result{}, engine.Errorf("transcribe", engine.StatusRuntimeError, "create context: %v", err)
	}
	if rec.language != "" {
		if err := wctx.SetLanguage(rec.language); err != nil {
			slog.Warn("setting inference language failed, using model default",
				"language", rec.language, "error", err)
		}
	}
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return engine.Result{}, engine.Errorf("transcribe", engine.StatusRuntimeError, "process audio: %v", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return engine.Result{}, engine.Errorf("transcribe", engine.StatusRuntimeError, "read segment: %v", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	text := strings.Join(parts, " ")
	if text == "" {
		return engine.Result{Reason: engine.ReasonNoMatch}, nil
	}
	return engine.Result{
		ID:       uuid.NewString(),
		Reason:   engine.ReasonRecognizedSpeech,
		Text:     text,
		Offset:   utt.offset,
		Duration: utt.duration,
	}, nil
}

// dispatch invokes the handler installed for kind, if any.
func (r *recognizer) dispatch(h engine.Handle, kind engine.Kind, ev engine.Event) {
	r.mu.Lock()
	inst, ok := r.handlers[kind]
	r.mu.Unlock()
	if !ok {
		return
	}
	inst.cb(h, ev, inst.token)
}

func chunkBytes(src *audio.Config) int {
	n := src.BytesPerSecond() * int(chunkLen.Milliseconds()) / 1000
	if n <= 0 {
		n = 3200
	}
	return n
}

// shortLanguage reduces a BCP-47 code to the bare language whisper.cpp
// expects ("en-US" to "en").
func shortLanguage(code string) string {
	if i := strings.IndexByte(code, '-'); i > 0 {
		return code[:i]
	}
	return code
}
