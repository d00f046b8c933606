package cloud

import (
	"encoding/json"
	"time"

	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine"
)

// Message paths of the streaming translation protocol. The service sends
// text frames carrying a JSON envelope with a "path" discriminator; binary
// frames carry synthesized audio.
const (
	pathTurnStart           = "turn.start"
	pathTurnEnd             = "turn.end"
	pathSpeechStartDetected = "speech.startDetected"
	pathSpeechEndDetected   = "speech.endDetected"
	pathSpeechHypothesis    = "speech.hypothesis"
	pathTranslationPhrase   = "translation.phrase"
	pathSynthesisEnd        = "translation.synthesis.end"

	// pathAudioDone is sent by the client after the last audio chunk so the
	// service can flush its final results.
	pathAudioDone = "audio.done"
)

// Recognition statuses carried on translation.phrase messages.
const (
	statusSuccess        = "Success"
	statusNoMatch        = "NoMatch"
	statusInitialSilence = "InitialSilenceTimeout"
	statusError          = "Error"
)

// wireMessage is the JSON envelope of a text frame. Offsets and durations
// are in ticks of 100 nanoseconds, matching the service protocol.
type wireMessage struct {
	Path      string `json:"path"`
	SessionID string `json:"sessionId,omitempty"`

	ID                string            `json:"id,omitempty"`
	RecognitionStatus string            `json:"recognitionStatus,omitempty"`
	Text              string            `json:"text,omitempty"`
	Translations      map[string]string `json:"translations,omitempty"`
	Offset            int64             `json:"offset,omitempty"`
	Duration          int64             `json:"duration,omitempty"`
}

// ticksToDuration converts protocol ticks (100 ns units) to a Duration.
func ticksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks) * 100 * time.Nanosecond
}

// decodeMessage parses a text frame into its envelope. Unknown or malformed
// frames report ok=false and are skipped by the read loop.
func decodeMessage(data []byte) (wireMessage, bool) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return wireMessage{}, false
	}
	if msg.Path == "" {
		return wireMessage{}, false
	}
	return msg, true
}

// toEvent maps a decoded envelope to the engine event it should dispatch.
// Messages that do not dispatch (turn.start, synthesis.end markers handled
// elsewhere) report ok=false.
func toEvent(msg wireMessage, sessionID string) (engine.Kind, engine.Event, bool) {
	ev := engine.Event{
		SessionID: sessionID,
		Offset:    ticksToDuration(msg.Offset),
	}
	switch msg.Path {
	case pathTurnStart:
		// Turn boundaries do not dispatch; SessionStarted fires when the
		// connection opens and turn.end ends the read loop.
		return 0, engine.Event{}, false
	case pathSpeechStartDetected:
		return engine.EventSpeechStartDetected, ev, true
	case pathSpeechEndDetected:
		return engine.EventSpeechEndDetected, ev, true
	case pathSpeechHypothesis:
		ev.Result = engine.Result{
			ID:           msg.ID,
			Reason:       engine.ReasonTranslatingSpeech,
			Text:         msg.Text,
			Translations: msg.Translations,
			Offset:       ticksToDuration(msg.Offset),
			Duration:     ticksToDuration(msg.Duration),
		}
		return engine.EventRecognizing, ev, true
	case pathTranslationPhrase:
		ev.Result = phraseResult(msg)
		if ev.Result.Reason == engine.ReasonCanceled {
			return engine.EventCanceled, ev, true
		}
		return engine.EventRecognized, ev, true
	case pathSynthesisEnd:
		ev.Result = engine.Result{Reason: engine.ReasonSynthesizingAudioCompleted}
		return engine.EventSynthesizing, ev, true
	}
	return 0, engine.Event{}, false
}

// phraseResult converts a translation.phrase message into a final result.
func phraseResult(msg wireMessage) engine.Result {
	res := engine.Result{
		ID:           msg.ID,
		Text:         msg.Text,
		Translations: msg.Translations,
		Offset:       ticksToDuration(msg.Offset),
		Duration:     ticksToDuration(msg.Duration),
	}
	switch msg.RecognitionStatus {
	case statusSuccess:
		res.Reason = engine.ReasonTranslatedSpeech
	case statusError:
		res.Reason = engine.ReasonCanceled
		res.Cancellation = &engine.Cancellation{
			Reason:  engine.CancelledError,
			Code:    engine.StatusRuntimeError,
			Details: "service reported a recognition error",
		}
	case statusNoMatch, statusInitialSilence:
		res.Reason = engine.ReasonNoMatch
	default:
		res.Reason = engine.ReasonNoMatch
	}
	return res
}

// encodeAudioDone builds the end-of-audio control frame.
func encodeAudioDone() []byte {
	b, _ := json.Marshal(wireMessage{Path: pathAudioDone})
	return b
}
