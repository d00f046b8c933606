package engine

import "sync"

// PropertyID enumerates the configuration properties a recognizer or config
// object carries in its property bag.
type PropertyID int

const (
	// PropertySubscriptionKey is the service subscription key.
	PropertySubscriptionKey PropertyID = iota + 1

	// PropertyRegion is the service region used to derive the default
	// endpoint (e.g. "westus").
	PropertyRegion

	// PropertyEndpoint overrides the default service endpoint.
	PropertyEndpoint

	// PropertyAuthorizationToken is a bearer token used instead of the
	// subscription key.
	PropertyAuthorizationToken

	// PropertyRecognitionLanguage is the source language code (e.g. "en-US").
	PropertyRecognitionLanguage

	// PropertyTargetLanguages is the comma-joined list of translation
	// target language codes (e.g. "de,fr,es").
	PropertyTargetLanguages

	// PropertyVoiceName selects the synthesis voice for translated text.
	PropertyVoiceName
)

// String returns the canonical property name.
func (id PropertyID) String() string {
	switch id {
	case PropertySubscriptionKey:
		return "SpeechServiceConnection_Key"
	case PropertyRegion:
		return "SpeechServiceConnection_Region"
	case PropertyEndpoint:
		return "SpeechServiceConnection_Endpoint"
	case PropertyAuthorizationToken:
		return "SpeechServiceAuthorization_Token"
	case PropertyRecognitionLanguage:
		return "SpeechServiceConnection_RecoLanguage"
	case PropertyTargetLanguages:
		return "SpeechServiceConnection_TranslationToLanguages"
	case PropertyVoiceName:
		return "SpeechServiceConnection_TranslationVoice"
	}
	return "Unknown"
}

// PropertyBag is a mapping from property identifiers to string values. bags
// returned by an engine are lifetime-bound to their recognizer handle and
// must not be used after Close.
type PropertyBag interface {
	// Get returns the value stored under id, or "" when unset or after the
	// bag has been closed.
	Get(id PropertyID) string

	// Set stores value under id. Setting on a closed bag returns a *Error
	// with StatusInvalidHandle.
	Set(id PropertyID, value string) error

	// Close releases the bag. Further Sets fail and Gets return "".
	Close() error
}

// MemoryBag is an in-process PropertyBag. It backs config objects and the
// engine implementations in this module. Safe for concurrent use.
type MemoryBag struct {
	mu     sync.RWMutex
	closed bool
	values map[PropertyID]string
}

// NewMemoryBag returns an empty MemoryBag.
func NewMemoryBag() *MemoryBag {
	return &MemoryBag{values: make(map[PropertyID]string)}
}

// Get returns the value stored under id, or "" when unset or closed.
func (b *MemoryBag) Get(id PropertyID) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ""
	}
	return b.values[id]
}

// Set stores value under id.
func (b *MemoryBag) Set(id PropertyID, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return Errorf("property bag set", StatusInvalidHandle, "bag is closed")
	}
	b.values[id] = value
	return nil
}

// Close releases the bag. Closing twice is a no-op.
func (b *MemoryBag) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.values = nil
	return nil
}

// Snapshot returns a copy of the current contents. Used by engines that
// seed a recognizer's bag from a RecognizerConfig.
func (b *MemoryBag) Snapshot() map[PropertyID]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[PropertyID]string, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

var _ PropertyBag = (*MemoryBag)(nil)
