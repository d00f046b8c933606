package speech

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/antzucaro/matchr"

	"github.com/tommy200519/cognitive-services-speech-sdk/internal/boundary"
	"github.com/tommy200519/cognitive-services-speech-sdk/internal/handle"
	"github.com/tommy200519/cognitive-services-speech-sdk/internal/observe"
	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/audio"
	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine"
)

const (
	// defaultIntentThreshold is the minimum Jaro-Winkler similarity for a
	// fuzzy phrase match.
	defaultIntentThreshold = 0.85

	// defaultPhoneticThreshold is the lower similarity bound applied when
	// the utterance and a phrase share a Double Metaphone code, so
	// sound-alike mis-recognitions still hit their intent.
	defaultPhoneticThreshold = 0.70
)

// IntentRecognitionResult is a recognition outcome paired with the matched
// intent, if any.
type IntentRecognitionResult struct {
	// ID uniquely identifies this result within its session.
	ID string

	// Reason is ReasonRecognizedIntent when an intent matched, otherwise
	// the underlying recognition reason.
	Reason engine.Reason

	// IntentID is the identifier of the matched intent; empty when no
	// registered phrase matched.
	IntentID string

	// Text is the recognized text.
	Text string

	// Offset and Duration locate the recognized audio in the session.
	Offset   time.Duration
	Duration time.Duration
}

// IntentRecognitionEventArgs is the payload of intent recognized events.
type IntentRecognitionEventArgs struct {
	RecognitionEventArgs

	// Result is the recognition result with its matched intent.
	Result IntentRecognitionResult
}

// String returns a diagnostic form including the matched intent.
func (e IntentRecognitionEventArgs) String() string {
	return fmt.Sprintf("SessionId: %s, ResultId: %s, Reason: %s, IntentId: %s, Text: %s",
		e.SessionID, e.Result.ID, e.Result.Reason, e.Result.IntentID, e.Result.Text)
}

// IntentRecognitionCanceledEventArgs is the payload of intent canceled
// events.
type IntentRecognitionCanceledEventArgs struct {
	RecognitionEventArgs

	// Cancellation explains why recognition was canceled.
	Cancellation CancellationDetails
}

// String returns a diagnostic form of the cancellation.
func (e IntentRecognitionCanceledEventArgs) String() string {
	return fmt.Sprintf("SessionId: %s, Reason: %s, Code: %s, Details: %s",
		e.SessionID, e.Cancellation.Reason, e.Cancellation.Code, e.Cancellation.Details)
}

// IntentRecognitionOutcome is the completion value of
// [IntentRecognizer.RecognizeOnceAsync].
type IntentRecognitionOutcome struct {
	Result IntentRecognitionResult
	Error  error
}

// intentRecognizers maps callback context tokens to live IntentRecognizer
// instances, mirroring the translation recognizer registry.
var intentRecognizers = handle.NewRegistry[*IntentRecognizer]()

// IntentOption is a functional option for configuring an IntentRecognizer.
type IntentOption func(*IntentRecognizer)

// WithIntentMatchThreshold sets the minimum Jaro-Winkler similarity
// required for a fuzzy phrase match. Default: 0.85.
func WithIntentMatchThreshold(threshold float64) IntentOption {
	return func(r *IntentRecognizer) { r.threshold = threshold }
}

// WithPhoneticMatchThreshold sets the minimum Jaro-Winkler similarity
// required when the utterance phonetically overlaps a phrase. Default: 0.70.
func WithPhoneticMatchThreshold(threshold float64) IntentOption {
	return func(r *IntentRecognizer) { r.phoneticThreshold = threshold }
}

// IntentRecognizer recognizes speech and derives the speaker's intent by
// matching the recognized text against registered pattern phrases. Matching
// is client-side and proceeds in stages: exact phrase containment first,
// then fuzzy Jaro-Winkler similarity over word windows, and finally a
// phonetic pass using Double Metaphone codes with a relaxed similarity
// bound, so close mis-recognitions ("turn of the light") and sound-alikes
// still hit their intent.
type IntentRecognizer struct {
	// Recognized fires once per utterance with the final result and its
	// matched intent.
	Recognized Signal[IntentRecognitionEventArgs]

	// Canceled fires when recognition is canceled by error or end of stream.
	Canceled Signal[IntentRecognitionCanceledEventArgs]

	// Properties is the recognizer's property bag, owned by the engine
	// handle.
	Properties *PropertyCollection

	eng    engine.Engine
	handle engine.Handle
	token  handle.Token

	threshold         float64
	phoneticThreshold float64

	// intentsMu guards intents: AddIntent runs on the caller's goroutine
	// while engine callbacks and async completions read the table.
	intentsMu sync.Mutex
	intents   []intentEntry

	lifecycle
	metrics *observe.Metrics
}

type intentEntry struct {
	id     string
	phrase string
	words  []string
	codes  map[string]struct{}
}

// NewIntentRecognizer creates an intent recognizer from a speech config and
// an optional audio source (nil selects the engine's default input).
func NewIntentRecognizer(eng engine.Engine, config *SpeechConfig, audioConfig *audio.Config, opts ...IntentOption) (*IntentRecognizer, error) {
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
		return nil, fmt.Errorf("speech: create intent recognizer: %w", err)
	}
	if h == engine.NilHandle {
		return nil, fmt.Errorf("speech: create intent recognizer: %w",
			engine.Errorf("create recognizer", engine.StatusInvalidHandle, "factory returned a nil handle"))
	}

	r := &IntentRecognizer{
		eng:               eng,
		handle:            h,
		threshold:         defaultIntentThreshold,
		phoneticThreshold: defaultPhoneticThreshold,
		metrics:           observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(r)
	}
	r.token = intentRecognizers.Register(r)

	rollback := func() {
		for _, kind := range intentTrampolineKinds {
			_ = eng.SetHandler(h, kind, nil, 0)
		}
		intentRecognizers.Release(r.token)
		_ = eng.CloseRecognizer(h)
	}

	for _, kind := range intentTrampolineKinds {
		if err := eng.SetHandler(h, kind, intentTrampolines[kind], uint64(r.token)); err != nil {
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

// AddIntent registers a pattern phrase for the given intent identifier.
// Recognized text containing or closely resembling the phrase produces a
// result with that intent.
func (r *IntentRecognizer) AddIntent(phrase, intentID string) error {
	if phrase == "" || intentID == "" {
		return fmt.Errorf("speech: intent phrase and id must not be empty")
	}
	norm := normalizeUtterance(phrase)
	words := strings.Fields(norm)
	entry := intentEntry{
		id:     intentID,
		phrase: norm,
		words:  words,
		codes:  codesForTokens(words),
	}
	r.intentsMu.Lock()
	r.intents = append(r.intents, entry)
	r.intentsMu.Unlock()
	return nil
}

// RecognizeOnceAsync recognizes a single utterance and matches it against
// the registered intents. The channel yields exactly one outcome.
func (r *IntentRecognizer) RecognizeOnceAsync(ctx context.Context) <-chan IntentRecognitionOutcome {
	out := make(chan IntentRecognitionOutcome, 1)
	var res engine.Result
	errCh := r.runAsync(ctx, "recognize intent once", r.metrics, func(ctx context.Context) error {
		var err error
		res, err = r.eng.RecognizeOnce(ctx, r.handle)
		return err
	})
	go func() {
		defer close(out)
		if err := <-errCh; err != nil {
			out <- IntentRecognitionOutcome{Error: err}
			return
		}
		out <- IntentRecognitionOutcome{Result: r.newIntentResult(res)}
	}()
	return out
}

// Close releases the recognizer. Idempotent; see
// [TranslationRecognizer.Close] for the teardown ordering contract.
func (r *IntentRecognizer) Close() error {
	r.closeOnce.Do(func() {
		r.closing.Store(true)

		if r.Properties != nil {
			if err := r.Properties.close(); err != nil {
				slog.Warn("closing intent recognizer property bag failed", "error", err)
			}
		}
		for _, kind := range intentTrampolineKinds {
			if err := r.eng.SetHandler(r.handle, kind, nil, 0); err != nil {
				slog.Warn("unregistering intent callback failed", "event", kind.String(), "error", err)
			}
		}
		r.Recognized.clear()
		r.Canceled.clear()
		intentRecognizers.Release(r.token)
		r.metrics.ActiveRecognizers.Add(context.Background(), -1)

		if err := r.eng.CloseRecognizer(r.handle); err != nil {
			r.closeErr = fmt.Errorf("speech: close intent recognizer: %w", err)
		}
	})
	return r.closeErr
}

// newIntentResult pairs a recognition result with its best intent match.
func (r *IntentRecognizer) newIntentResult(res engine.Result) IntentRecognitionResult {
	out := IntentRecognitionResult{
		ID:       res.ID,
		Reason:   res.Reason,
		Text:     res.Text,
		Offset:   res.Offset,
		Duration: res.Duration,
	}
	if id, ok := r.matchIntent(res.Text); ok {
		out.IntentID = id
		out.Reason = engine.ReasonRecognizedIntent
	}
	return out
}

// matchIntent returns the intent whose phrase best matches text. Exact
// containment wins immediately. Otherwise the best Jaro-Winkler score over
// same-length word windows decides, subject to the fuzzy threshold, or to
// the relaxed phonetic threshold when the utterance shares a Double
// Metaphone code with the phrase.
func (r *IntentRecognizer) matchIntent(text string) (string, bool) {
	norm := normalizeUtterance(text)
	if norm == "" {
		return "", false
	}
	words := strings.Fields(norm)
	codes := codesForTokens(words)

	// Snapshot: entries are append-only, so a stale header is safe to range.
	r.intentsMu.Lock()
	intents := r.intents
	r.intentsMu.Unlock()

	var fuzzyID, phoneticID string
	fuzzyBest, phoneticBest := 0.0, 0.0
	for _, in := range intents {
		if strings.Contains(norm, in.phrase) {
			return in.id, true
		}
		score := windowScore(words, in)
		if score >= r.threshold && score > fuzzyBest {
			fuzzyID, fuzzyBest = in.id, score
		}
		if score >= r.phoneticThreshold && score > phoneticBest && codesOverlap(codes, in.codes) {
			phoneticID, phoneticBest = in.id, score
		}
	}
	if fuzzyID != "" {
		return fuzzyID, true
	}
	if phoneticID != "" {
		return phoneticID, true
	}
	return "", false
}

// codesForTokens returns the union of Double Metaphone codes for the given
// tokens. Empty codes are excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// windowScore slides a window of the phrase's word count over the utterance
// and returns the best Jaro-Winkler similarity.
func windowScore(words []string, in intentEntry) float64 {
	n := len(in.words)
	if n == 0 || len(words) < n {
		return matchr.JaroWinkler(strings.Join(words, " "), in.phrase, false)
	}
	best := 0.0
	for i := 0; i+n <= len(words); i++ {
		window := strings.Join(words[i:i+n], " ")
		if s := matchr.JaroWinkler(window, in.phrase, false); s > best {
			best = s
		}
	}
	return best
}

// normalizeUtterance lowercases text and strips everything but letters,
// digits and spaces, collapsing runs of whitespace.
func normalizeUtterance(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127:
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// ---- intent trampolines ----------------------------------------------------

// intentTrampolineKinds lists the engine events an intent recognizer
// installs handlers for.
var intentTrampolineKinds = []engine.Kind{engine.EventRecognized, engine.EventCanceled}

var intentTrampolines = map[engine.Kind]engine.Callback{
	engine.EventRecognized: fireIntentRecognized,
	engine.EventCanceled:   fireIntentCanceled,
}

func resolveIntentRecognizer(kind engine.Kind, token uint64) (*IntentRecognizer, bool) {
	r, ok := intentRecognizers.Resolve(handle.Token(token))
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

func fireIntentRecognized(_ engine.Handle, ev engine.Event, token uint64) {
	r, ok := resolveIntentRecognizer(engine.EventRecognized, token)
	if !ok {
		return
	}
	boundary.Protect("intent_recognized", func() {
		if !r.Recognized.hasSubscribers() {
			return
		}
		r.metrics.RecordDispatch(context.Background(), "intent_recognized")
		r.Recognized.emit(IntentRecognitionEventArgs{
			RecognitionEventArgs: newRecognitionEventArgs(ev),
			Result:               r.newIntentResult(ev.Result),
		})
	})
}

func fireIntentCanceled(_ engine.Handle, ev engine.Event, token uint64) {
	r, ok := resolveIntentRecognizer(engine.EventCanceled, token)
	if !ok {
		return
	}
	boundary.Protect("intent_canceled", func() {
		if !r.Canceled.hasSubscribers() {
			return
		}
		r.metrics.RecordDispatch(context.Background(), "intent_canceled")
		r.Canceled.emit(IntentRecognitionCanceledEventArgs{
			RecognitionEventArgs: newRecognitionEventArgs(ev),
			Cancellation:         newCancellationDetails(ev.Result.Cancellation),
		})
	})
}
