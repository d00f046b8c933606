// Package mock provides an in-memory scripted implementation of
// [engine.Engine] for use in unit tests.
//
// The mock records every method call and allows the test to configure return
// values via exported fields. It is safe for concurrent use. Tests drive
// event dispatch explicitly with [Engine.FireEvent], which invokes the
// callback installed for the event kind with the token it was installed with.
//
// Example:
//
//	e := &mock.Engine{
//	    RecognizeResult: engine.Result{
//	        Reason: engine.ReasonTranslatedSpeech,
//	        Text:   "guten tag",
//	    },
//	}
//	h, err := e.CreateRecognizer(cfg)
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine"
)

// Compile-time interface assertion.
var _ engine.Engine = (*Engine)(nil)

// CreateCall records the arguments of a single [Engine.CreateRecognizer] call.
type CreateCall struct {
	// Config is the recognizer configuration passed to CreateRecognizer.
	Config engine.RecognizerConfig
}

// SetHandlerCall records the arguments of a single [Engine.SetHandler] call.
type SetHandlerCall struct {
	Handle engine.Handle
	Kind   engine.Kind
	// Installed is false when the call uninstalled the handler (nil callback).
	Installed bool
	Token     uint64
}

// StartKeywordCall records the arguments of a single [Engine.StartKeyword] call.
type StartKeywordCall struct {
	Handle  engine.Handle
	Phrases []string
}

type installed struct {
	cb    engine.Callback
	token uint64
}

// Engine is a scripted mock implementation of [engine.Engine].
// All exported *Result, *Err and *Delay fields control behavior.
// All exported *Calls fields accumulate invocation records.
type Engine struct {
	mu sync.Mutex

	// CreateErr is returned by [Engine.CreateRecognizer]; when set, no
	// handle is issued.
	CreateErr error

	// SetHandlerErr is returned by [Engine.SetHandler]. SetHandlerErrKind
	// restricts the failure to one event kind; with the zero value
	// (EventRecognizing) the error applies to every kind.
	SetHandlerErr     error
	SetHandlerErrKind engine.Kind

	// PropertyBagErr is returned by [Engine.PropertyBag].
	PropertyBagErr error

	// RecognizeResult and RecognizeErr control [Engine.RecognizeOnce].
	// RecognizeDelay makes the call block that long first, honoring
	// context cancellation.
	RecognizeResult engine.Result
	RecognizeErr    error
	RecognizeDelay  time.Duration

	// StartContinuousErr, StopContinuousErr, StartKeywordErr and
	// StopKeywordErr control the corresponding operations.
	StartContinuousErr error
	StopContinuousErr  error
	StartKeywordErr    error
	StopKeywordErr     error

	// CloseErr is returned by [Engine.CloseRecognizer].
	CloseErr error

	// CreateCalls records all CreateRecognizer invocations.
	CreateCalls []CreateCall

	// SetHandlerCalls records all SetHandler invocations, including
	// uninstalls.
	SetHandlerCalls []SetHandlerCall

	// StartKeywordCalls records all StartKeyword invocations.
	StartKeywordCalls []StartKeywordCall

	// CallCountRecognizeOnce, CallCountStartContinuous,
	// CallCountStopContinuous, CallCountStopKeyword and CallCountClose
	// record invocation counts of the remaining operations.
	CallCountRecognizeOnce   int
	CallCountStartContinuous int
	CallCountStopContinuous  int
	CallCountStopKeyword     int
	CallCountClose           int

	nextHandle engine.Handle
	handlers   map[engine.Handle]map[engine.Kind]installed
	bags       map[engine.Handle]*engine.MemoryBag
}

// CreateRecognizer implements [engine.Engine]. Handles are issued
// sequentially starting at 1; the property bag is seeded from the
// configuration's property map.
func (e *Engine) CreateRecognizer(cfg engine.RecognizerConfig) (engine.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CreateCalls = append(e.CreateCalls, CreateCall{Config: cfg})
	if e.CreateErr != nil {
		return engine.NilHandle, e.CreateErr
	}
	e.nextHandle++
	h := e.nextHandle
	if e.handlers == nil {
		e.handlers = make(map[engine.Handle]map[engine.Kind]installed)
		e.bags = make(map[engine.Handle]*engine.MemoryBag)
	}
	e.handlers[h] = make(map[engine.Kind]installed)
	bag := engine.NewMemoryBag()
	for id, v := range cfg.Properties {
		_ = bag.Set(id, v)
	}
	e.bags[h] = bag
	return h, nil
}

// SetHandler implements [engine.Engine].
func (e *Engine) SetHandler(h engine.Handle, kind engine.Kind, cb engine.Callback, token uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.SetHandlerCalls = append(e.SetHandlerCalls, SetHandlerCall{
		Handle: h, Kind: kind, Installed: cb != nil, Token: token,
	})
	if e.SetHandlerErr != nil && (e.SetHandlerErrKind == engine.EventRecognizing || e.SetHandlerErrKind == kind) {
		return e.SetHandlerErr
	}
	m, ok := e.handlers[h]
	if !ok {
		return engine.Errorf("set handler", engine.StatusInvalidHandle, "unknown handle %d", h)
	}
	if cb == nil {
		delete(m, kind)
		return nil
	}
	m[kind] = installed{cb: cb, token: token}
	return nil
}

// PropertyBag implements [engine.Engine]. Returns the bag seeded at
// creation time.
func (e *Engine) PropertyBag(h engine.Handle) (engine.PropertyBag, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.PropertyBagErr != nil {
		return nil, e.PropertyBagErr
	}
	bag, ok := e.bags[h]
	if !ok {
		return nil, engine.Errorf("property bag", engine.StatusInvalidHandle, "unknown handle %d", h)
	}
	return bag, nil
}

// RecognizeOnce implements [engine.Engine]. Returns RecognizeResult and
// RecognizeErr, after RecognizeDelay if set.
func (e *Engine) RecognizeOnce(ctx context.Context, _ engine.Handle) (engine.Result, error) {
	e.mu.Lock()
	e.CallCountRecognizeOnce++
	res, err, delay := e.RecognizeResult, e.RecognizeErr, e.RecognizeDelay
	e.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return engine.Result{}, ctx.Err()
		}
	}
	return res, err
}

// StartContinuous implements [engine.Engine]. Returns StartContinuousErr.
func (e *Engine) StartContinuous(_ context.Context, _ engine.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CallCountStartContinuous++
	return e.StartContinuousErr
}

// StopContinuous implements [engine.Engine]. Returns StopContinuousErr.
func (e *Engine) StopContinuous(_ context.Context, _ engine.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CallCountStopContinuous++
	return e.StopContinuousErr
}

// StartKeyword implements [engine.Engine]. Returns StartKeywordErr.
func (e *Engine) StartKeyword(_ context.Context, h engine.Handle, phrases []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.StartKeywordCalls = append(e.StartKeywordCalls, StartKeywordCall{Handle: h, Phrases: phrases})
	return e.StartKeywordErr
}

// StopKeyword implements [engine.Engine]. Returns StopKeywordErr.
func (e *Engine) StopKeyword(_ context.Context, _ engine.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CallCountStopKeyword++
	return e.StopKeywordErr
}

// CloseRecognizer implements [engine.Engine]. Discards the handle's
// handlers so FireEvent no longer dispatches to it, and returns CloseErr.
func (e *Engine) CloseRecognizer(h engine.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CallCountClose++
	delete(e.handlers, h)
	delete(e.bags, h)
	return e.CloseErr
}

// FireEvent synchronously invokes the callback installed on h for kind,
// passing the token it was installed with. Returns false when no callback
// is installed. Use this in tests to simulate engine-side event dispatch.
func (e *Engine) FireEvent(h engine.Handle, kind engine.Kind, ev engine.Event) bool {
	e.mu.Lock()
	inst, ok := e.handlers[h][kind]
	e.mu.Unlock()
	if !ok {
		return false
	}
	inst.cb(h, ev, inst.token)
	return true
}

// InstalledKinds returns the event kinds that currently have a callback
// installed on h, for asserting wiring in tests.
func (e *Engine) InstalledKinds(h engine.Handle) []engine.Kind {
	e.mu.Lock()
	defer e.mu.Unlock()
	var kinds []engine.Kind
	for _, k := range engine.Kinds {
		if _, ok := e.handlers[h][k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
