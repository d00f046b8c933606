package speech

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine"
)

// ErrEmptyAuthorizationToken is returned when an empty authorization token
// is assigned to a config or recognizer.
var ErrEmptyAuthorizationToken = errors.New("speech: authorization token must not be empty")

// SpeechConfig carries the service and language configuration shared by all
// recognizer kinds. All values live in a property bag; the typed accessors
// below are conveniences over it.
//
// A config is read by the recognizer factory at construction time; changes
// made afterwards do not affect already-constructed recognizers.
type SpeechConfig struct {
	properties *PropertyCollection
}

// NewSpeechConfigFromSubscription creates a config from a service
// subscription key and region. Both must be non-empty.
func NewSpeechConfigFromSubscription(subscriptionKey, region string) (*SpeechConfig, error) {
	if subscriptionKey == "" {
		return nil, fmt.Errorf("speech: subscription key must not be empty")
	}
	if region == "" {
		return nil, fmt.Errorf("speech: region must not be empty")
	}
	c := newSpeechConfig()
	c.properties.Set(engine.PropertySubscriptionKey, subscriptionKey)
	c.properties.Set(engine.PropertyRegion, region)
	return c, nil
}

// NewSpeechConfigFromEndpoint creates a config from an explicit service
// endpoint. The subscription key may be empty when an authorization token
// is set before constructing a recognizer.
func NewSpeechConfigFromEndpoint(endpoint, subscriptionKey string) (*SpeechConfig, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("speech: endpoint must not be empty")
	}
	c := newSpeechConfig()
	c.properties.Set(engine.PropertyEndpoint, endpoint)
	if subscriptionKey != "" {
		c.properties.Set(engine.PropertySubscriptionKey, subscriptionKey)
	}
	return c, nil
}

func newSpeechConfig() *SpeechConfig {
	return &SpeechConfig{
		properties: &PropertyCollection{bag: engine.NewMemoryBag()},
	}
}

// Properties returns the config's property collection.
func (c *SpeechConfig) Properties() *PropertyCollection {
	return c.properties
}

// SetSpeechRecognitionLanguage sets the source language code (e.g. "en-US").
func (c *SpeechConfig) SetSpeechRecognitionLanguage(lang string) {
	c.properties.Set(engine.PropertyRecognitionLanguage, lang)
}

// SpeechRecognitionLanguage returns the source language code.
func (c *SpeechConfig) SpeechRecognitionLanguage() string {
	return c.properties.Get(engine.PropertyRecognitionLanguage)
}

// SetAuthorizationToken sets the bearer token used instead of the
// subscription key. An empty token is rejected without touching the
// property bag.
func (c *SpeechConfig) SetAuthorizationToken(token string) error {
	if token == "" {
		return ErrEmptyAuthorizationToken
	}
	return c.properties.Set(engine.PropertyAuthorizationToken, token)
}

// AuthorizationToken returns the configured bearer token.
func (c *SpeechConfig) AuthorizationToken() string {
	return c.properties.Get(engine.PropertyAuthorizationToken)
}

// SubscriptionKey returns the configured subscription key.
func (c *SpeechConfig) SubscriptionKey() string {
	return c.properties.Get(engine.PropertySubscriptionKey)
}

// Region returns the configured service region.
func (c *SpeechConfig) Region() string {
	return c.properties.Get(engine.PropertyRegion)
}

// snapshot copies the config's properties for handoff to an engine factory.
func (c *SpeechConfig) snapshot() map[engine.PropertyID]string {
	bag, ok := c.properties.bag.(*engine.MemoryBag)
	if !ok {
		return nil
	}
	return bag.Snapshot()
}

// SpeechTranslationConfig extends [SpeechConfig] with translation targets
// and a synthesis voice.
type SpeechTranslationConfig struct {
	SpeechConfig
}

// NewSpeechTranslationConfigFromSubscription creates a translation config
// from a service subscription key and region.
func NewSpeechTranslationConfigFromSubscription(subscriptionKey, region string) (*SpeechTranslationConfig, error) {
	base, err := NewSpeechConfigFromSubscription(subscriptionKey, region)
	if err != nil {
		return nil, err
	}
	return &SpeechTranslationConfig{SpeechConfig: *base}, nil
}

// NewSpeechTranslationConfigFromEndpoint creates a translation config from
// an explicit service endpoint.
func NewSpeechTranslationConfigFromEndpoint(endpoint, subscriptionKey string) (*SpeechTranslationConfig, error) {
	base, err := NewSpeechConfigFromEndpoint(endpoint, subscriptionKey)
	if err != nil {
		return nil, err
	}
	return &SpeechTranslationConfig{SpeechConfig: *base}, nil
}

// AddTargetLanguage appends lang to the translation target list. Adding a
// language twice is a no-op.
func (c *SpeechTranslationConfig) AddTargetLanguage(lang string) {
	current := c.properties.Get(engine.PropertyTargetLanguages)
	if current == "" {
		c.properties.Set(engine.PropertyTargetLanguages, lang)
		return
	}
	for _, existing := range strings.Split(current, ",") {
		if existing == lang {
			return
		}
	}
	c.properties.Set(engine.PropertyTargetLanguages, current+","+lang)
}

// TargetLanguages returns the translation target language codes in the
// order they were added.
//
// The list is stored comma-joined and split literally on read: when no
// target language has been added the result is [""], not an empty slice.
// This mirrors the stored-string contract of the service protocol.
func (c *SpeechTranslationConfig) TargetLanguages() []string {
	return splitTargetLanguages(c.properties.Get(engine.PropertyTargetLanguages))
}

// splitTargetLanguages splits the comma-joined target language property.
// The split is literal: "" yields [""].
func splitTargetLanguages(v string) []string {
	return strings.Split(v, ",")
}

// SetVoiceName selects the synthesis voice for translated text. Setting a
// voice enables translation synthesis on engines that support it.
func (c *SpeechTranslationConfig) SetVoiceName(voice string) {
	c.properties.Set(engine.PropertyVoiceName, voice)
}

// VoiceName returns the configured synthesis voice.
func (c *SpeechTranslationConfig) VoiceName() string {
	return c.properties.Get(engine.PropertyVoiceName)
}
