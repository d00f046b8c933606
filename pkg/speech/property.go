package speech

import "github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine"

// PropertyCollection is the SDK-facing view of a property bag. Config
// objects own an in-memory bag; recognizers expose the bag owned by their
// engine handle, which becomes inaccessible once the recognizer is closed.
type PropertyCollection struct {
	bag engine.PropertyBag
}

// Get returns the value stored under id, or "" when unset.
func (p *PropertyCollection) Get(id engine.PropertyID) string {
	return p.bag.Get(id)
}

// Set stores value under id.
func (p *PropertyCollection) Set(id engine.PropertyID, value string) error {
	return p.bag.Set(id, value)
}

// close releases the underlying bag. Called from recognizer and config
// teardown, never by SDK users directly.
func (p *PropertyCollection) close() error {
	return p.bag.Close()
}
