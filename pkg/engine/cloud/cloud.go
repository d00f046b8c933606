// Package cloud implements the streaming speech translation service engine.
//
// Each recognizer handle maps to a service session over a WebSocket. Audio
// is streamed up in binary frames; the service answers with JSON text frames
// (hypotheses, final phrases, turn and speech boundary markers) and binary
// frames carrying synthesized translation audio. The engine re-publishes
// those frames as callbacks on the handles they belong to.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/audio"
	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine"
)

const (
	// endpointFormat derives the default endpoint from the configured region.
	endpointFormat = "wss://%s.s2s.speech.microsoft.com/speech/translation/cognitiveservices/v1"

	// defaultMaxUtterance caps a single recognize-once utterance. The
	// service delimits on trailing silence; this is the upper bound when it
	// never does.
	defaultMaxUtterance = 15 * time.Second

	// audioChunk is the wall-clock size of one uplink audio frame.
	audioChunk = 100 * time.Millisecond

	// defaultCloseWait bounds how long teardown waits for the session loops.
	// A source read that never returns cannot be interrupted, so the loops
	// are abandoned after this long.
	defaultCloseWait = 2 * time.Second
)

// Compile-time interface assertion.
var _ engine.Engine = (*Engine)(nil)

// Option is a functional option for configuring the cloud Engine.
type Option func(*Engine)

// WithMaxUtterance overrides the recognize-once utterance cap.
func WithMaxUtterance(d time.Duration) Option {
	return func(e *Engine) {
		e.maxUtterance = d
	}
}

// WithDialOptions replaces the WebSocket dial options used for every
// session, keeping the engine testable against local servers.
func WithDialOptions(opts *websocket.DialOptions) Option {
	return func(e *Engine) {
		e.dialOpts = opts
	}
}

// Engine is a cloud-backed [engine.Engine]. Safe for concurrent use; each
// handle owns at most one live service session at a time.
type Engine struct {
	maxUtterance time.Duration
	closeWait    time.Duration
	dialOpts     *websocket.DialOptions

	mu         sync.Mutex
	nextHandle engine.Handle
	recs       map[engine.Handle]*recognizer
}

// New creates a cloud engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxUtterance: defaultMaxUtterance,
		closeWait:    defaultCloseWait,
		recs:         make(map[engine.Handle]*recognizer),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

type recognizer struct {
	mu       sync.Mutex
	bag      *engine.MemoryBag
	source   *audio.Config
	handlers map[engine.Kind]installedHandler

	// sess is the live continuous or keyword session, nil between starts.
	sess *session

	// keywords gates final results while keyword recognition is active.
	keywords []string
}

type installedHandler struct {
	cb    engine.Callback
	token uint64
}

// CreateRecognizer implements [engine.Engine]. The configuration must carry
// either a subscription key or an authorization token, and either a region
// or an explicit endpoint.
func (e *Engine) CreateRecognizer(cfg engine.RecognizerConfig) (engine.Handle, error) {
	props := cfg.Properties
	if props[engine.PropertySubscriptionKey] == "" && props[engine.PropertyAuthorizationToken] == "" {
		return engine.NilHandle, engine.Errorf("create recognizer", engine.StatusAuthenticationFailure,
			"a subscription key or authorization token is required")
	}
	if props[engine.PropertyRegion] == "" && props[engine.PropertyEndpoint] == "" {
		return engine.NilHandle, engine.Errorf("create recognizer", engine.StatusInvalidArgument,
			"a region or endpoint is required")
	}
	if cfg.Source == nil {
		return engine.NilHandle, engine.Errorf("create recognizer", engine.StatusInvalidArgument,
			"an audio source is required")
	}

	bag := engine.NewMemoryBag()
	for id, v := range props {
		_ = bag.Set(id, v)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextHandle++
	h := e.nextHandle
	e.recs[h] = &recognizer{
		bag:      bag,
		source:   cfg.Source,
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

// RecognizeOnce implements [engine.Engine]. It opens a session, streams the
// audio source and blocks until the service delivers a final phrase, the
// utterance cap elapses, or ctx is canceled.
func (e *Engine) RecognizeOnce(ctx context.Context, h engine.Handle) (engine.Result, error) {
	rec, err := e.recognizer("recognize once", h)
	if err != nil {
		return engine.Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.maxUtterance)
	defer cancel()

	final := make(chan engine.Result, 1)
	sess, err := e.openSession(ctx, h, rec, func(res engine.Result) {
		select {
		case final <- res:
		default:
		}
	})
	if err != nil {
		return engine.Result{}, err
	}
	defer sess.close()

	select {
	case res := <-final:
		return res, nil
	case <-sess.done:
		// Session ended without a final phrase: the source ran out or the
		// connection dropped.
		if err := sess.err(); err != nil {
			return engine.Result{}, engine.Errorf("recognize once", engine.StatusConnectionFailure, "session failed: %v", err)
		}
		return engine.Result{Reason: engine.ReasonNoMatch}, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			// Utterance cap: report whatever arrives as NoMatch rather than
			// failing the call.
			return engine.Result{Reason: engine.ReasonNoMatch}, nil
		}
		return engine.Result{}, ctx.Err()
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

// StartKeyword implements [engine.Engine]. Keyword gating is client-side:
// the session runs like continuous recognition and only final phrases
// containing one of the keywords are dispatched, as ReasonRecognizedKeyword.
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
	sess := rec.sess
	rec.sess = nil
	rec.handlers = make(map[engine.Kind]installedHandler)
	rec.mu.Unlock()
	if sess != nil {
		sess.close()
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
	rec, err := e.recognizer(op, h)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	if rec.sess != nil {
		rec.mu.Unlock()
		return engine.Errorf(op, engine.StatusInvalidArgument, "recognition is already running")
	}
	rec.keywords = keywords
	rec.mu.Unlock()

	// Sessions outlive the start call; the caller's ctx only bounds the dial.
	sess, err := e.openSession(context.WithoutCancel(ctx), h, rec, nil)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	rec.sess = sess
	rec.mu.Unlock()
	return nil
}

func (e *Engine) stop(ctx context.Context, op string, h engine.Handle) error {
	rec, err := e.recognizer(op, h)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	sess := rec.sess
	rec.sess = nil
	rec.keywords = nil
	rec.mu.Unlock()
	if sess == nil {
		return nil
	}

	stopped := make(chan struct{})
	go func() {
		sess.close()
		close(stopped)
	}()
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ---- session ---------------------------------------------------------------

// session is one live WebSocket connection streaming a recognizer's audio.
type session struct {
	id     string
	conn   *websocket.Conn
	cancel context.CancelFunc
	group  *errgroup.Group
	wait   time.Duration

	done    chan struct{}
	once    sync.Once
	loopErr error
}

// openSession dials the service and starts the read and write loops.
// onFinal, when non-nil, observes every final phrase in addition to the
// installed callbacks.
func (e *Engine) openSession(ctx context.Context, h engine.Handle, rec *recognizer, onFinal func(engine.Result)) (*session, error) {
	wsURL, err := buildServiceURL(rec.bag)
	if err != nil {
		return nil, engine.Errorf("open session", engine.StatusInvalidArgument, "build service URL: %v", err)
	}

	dialOpts := e.dialOpts
	if dialOpts == nil {
		dialOpts = &websocket.DialOptions{}
	}
	opts := *dialOpts
	opts.HTTPHeader = authHeaders(rec.bag)

	conn, _, err := websocket.Dial(ctx, wsURL, &opts)
	if err != nil {
		return nil, engine.Errorf("open session", engine.StatusConnectionFailure, "dial %s: %v", wsURL, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	group, ctx := errgroup.WithContext(ctx)
	sess := &session{
		id:     uuid.NewString(),
		conn:   conn,
		cancel: cancel,
		group:  group,
		wait:   e.closeWait,
		done:   make(chan struct{}),
	}

	rec.dispatch(h, engine.EventSessionStarted, engine.Event{SessionID: sess.id})

	group.Go(func() error { return sess.readLoop(ctx, h, rec, onFinal) })
	group.Go(func() error { return sess.writeLoop(ctx, rec.source) })
	go func() {
		sess.loopErr = group.Wait()
		rec.dispatch(h, engine.EventSessionStopped, engine.Event{SessionID: sess.id})
		close(sess.done)
	}()

	return sess, nil
}

// close tears the session down. The connection is closed first so both
// loops unblock from any conn call; a read loop stuck on a source whose
// Read never returns cannot be interrupted, so the wait on the loops is
// bounded and they are abandoned with a log.
func (s *session) close() {
	s.once.Do(func() {
		s.cancel()
		s.conn.Close(websocket.StatusNormalClosure, "session closed")
		if !awaitDone(s.done, s.wait) {
			slog.Warn("session loops did not drain before the teardown bound, abandoning",
				"session", s.id)
		}
	})
}

// awaitDone waits for ch to close, bounded by d.
func awaitDone(ch <-chan struct{}, d time.Duration) bool {
	select {
	case <-ch:
		return true
	case <-time.After(d):
		return false
	}
}

// err returns the loop error once the session has ended. Context
// cancellation from close is not an error.
func (s *session) err() error {
	select {
	case <-s.done:
	default:
		return nil
	}
	if errors.Is(s.loopErr, context.Canceled) {
		return nil
	}
	return s.loopErr
}

// readLoop receives service frames and dispatches them as engine events.
func (s *session) readLoop(ctx context.Context, h engine.Handle, rec *recognizer, onFinal func(engine.Result)) error {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				rec.dispatch(h, engine.EventCanceled, engine.Event{
					SessionID: s.id,
					Result: engine.Result{
						Reason:       engine.ReasonCanceled,
						Cancellation: &engine.Cancellation{Reason: engine.CancelledEndOfStream},
					},
				})
				return nil
			}
			return err
		}

		if typ == websocket.MessageBinary {
			rec.dispatch(h, engine.EventSynthesizing, engine.Event{
				SessionID: s.id,
				Result:    engine.Result{Reason: engine.ReasonSynthesizingAudio},
				Audio:     data,
			})
			continue
		}

		msg, ok := decodeMessage(data)
		if !ok {
			continue
		}
		if msg.Path == pathTurnEnd {
			rec.dispatch(h, engine.EventCanceled, engine.Event{
				SessionID: s.id,
				Result: engine.Result{
					Reason:       engine.ReasonCanceled,
					Cancellation: &engine.Cancellation{Reason: engine.CancelledEndOfStream},
				},
			})
			return nil
		}

		kind, ev, ok := toEvent(msg, s.id)
		if !ok {
			continue
		}
		if kind == engine.EventRecognized {
			if ev.Result.ID == "" {
				ev.Result.ID = uuid.NewString()
			}
			if !rec.gateFinal(&ev.Result) {
				continue
			}
			if onFinal != nil && ev.Result.Reason != engine.ReasonNoMatch {
				onFinal(ev.Result)
			}
		}
		rec.dispatch(h, kind, ev)
	}
}

// writeLoop streams the audio source up in frames sized to audioChunk of
// audio, as fast as the source supplies them, then signals end of audio.
// A real-time source paces itself; a file source is accepted ahead of
// real time, which the service allows.
func (s *session) writeLoop(ctx context.Context, src *audio.Config) error {
	chunk := make([]byte, src.BytesPerSecond()*int(audioChunk.Milliseconds())/1000)
	for {
		n, err := src.Read(chunk)
		if n > 0 {
			if werr := s.conn.Write(ctx, websocket.MessageBinary, chunk[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return s.conn.Write(ctx, websocket.MessageText, encodeAudioDone())
			}
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
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

// gateFinal applies keyword gating to a final result. Without active
// keywords every final passes; with keywords only phrases containing one of
// them pass, rewritten as keyword recognitions.
func (r *recognizer) gateFinal(res *engine.Result) bool {
	r.mu.Lock()
	keywords := r.keywords
	r.mu.Unlock()
	if len(keywords) == 0 {
		return true
	}
	text := strings.ToLower(res.Text)
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			res.Reason = engine.ReasonRecognizedKeyword
			return true
		}
	}
	return false
}

// ---- URL and auth ----------------------------------------------------------

// buildServiceURL constructs the streaming endpoint URL from the
// recognizer's properties.
func buildServiceURL(bag *engine.MemoryBag) (string, error) {
	props := bag.Snapshot()

	endpoint := props[engine.PropertyEndpoint]
	if endpoint == "" {
		region := props[engine.PropertyRegion]
		if region == "" {
			return "", errors.New("no endpoint or region configured")
		}
		endpoint = fmt.Sprintf(endpointFormat, region)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if lang := props[engine.PropertyRecognitionLanguage]; lang != "" {
		q.Set("from", lang)
	}
	if targets := props[engine.PropertyTargetLanguages]; targets != "" {
		for _, to := range strings.Split(targets, ",") {
			q.Add("to", to)
		}
	}
	if voice := props[engine.PropertyVoiceName]; voice != "" {
		q.Set("voice", voice)
		q.Set("features", "texttospeech")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// authHeaders builds the authentication headers. An authorization token
// takes precedence over the subscription key.
func authHeaders(bag *engine.MemoryBag) http.Header {
	headers := http.Header{}
	if token := bag.Get(engine.PropertyAuthorizationToken); token != "" {
		headers.Set("Authorization", "Bearer "+token)
		return headers
	}
	if key := bag.Get(engine.PropertySubscriptionKey); key != "" {
		headers.Set("Ocp-Apim-Subscription-Key", key)
	}
	return headers
}
