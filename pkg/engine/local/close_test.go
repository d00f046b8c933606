package local

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/audio"
	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine"
)

// blockedReader blocks every Read until unblock is closed, then reports EOF.
type blockedReader struct {
	unblock chan struct{}
}

func (r blockedReader) Read(p []byte) (int, error) {
	<-r.unblock
	return 0, io.EOF
}

func TestCloseRecognizer_SourceReadNeverReturns_Unblocks(t *testing.T) {
	unblock := make(chan struct{})
	t.Cleanup(func() { close(unblock) })
	src, err := audio.FromReader(blockedReader{unblock: unblock}, 16000, 1, 16)
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}

	// No inference happens before any audio arrives, so no model is needed.
	e := &Engine{
		silenceWindow: defaultSilenceWindow,
		maxUtterance:  defaultMaxUtterance,
		closeWait:     50 * time.Millisecond,
		recs:          make(map[engine.Handle]*recognizer),
	}
	h, err := e.CreateRecognizer(engine.RecognizerConfig{Source: src})
	if err != nil {
		t.Fatalf("CreateRecognizer: %v", err)
	}
	if err := e.StartContinuous(context.Background(), h); err != nil {
		t.Fatalf("StartContinuous: %v", err)
	}

	closed := make(chan error, 1)
	go func() { closed <- e.CloseRecognizer(h) }()
	select {
	case err := <-closed:
		if err != nil {
			t.Fatalf("CloseRecognizer: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("CloseRecognizer did not return while the source read was blocked")
	}
}
