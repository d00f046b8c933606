package engine_test

import (
	"errors"
	"testing"

	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine"
)

func TestMemoryBag_SetGetRoundTrip(t *testing.T) {
	bag := engine.NewMemoryBag()
	if err := bag.Set(engine.PropertyRegion, "westus"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := bag.Get(engine.PropertyRegion); got != "westus" {
		t.Fatalf("Get = %q, want %q", got, "westus")
	}
}

func TestMemoryBag_GetUnset_ReturnsEmpty(t *testing.T) {
	bag := engine.NewMemoryBag()
	if got := bag.Get(engine.PropertyVoiceName); got != "" {
		t.Fatalf("Get on unset property = %q, want empty", got)
	}
}

func TestMemoryBag_SetAfterClose_ReturnsInvalidHandle(t *testing.T) {
	bag := engine.NewMemoryBag()
	if err := bag.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	err := bag.Set(engine.PropertyRegion, "westus")
	if err == nil {
		t.Fatal("Set on closed bag succeeded")
	}
	var engErr *engine.Error
	if !errors.As(err, &engErr) {
		t.Fatalf("error type %T, want *engine.Error", err)
	}
	if engErr.Status != engine.StatusInvalidHandle {
		t.Fatalf("status = %v, want InvalidHandle", engErr.Status)
	}
}

func TestMemoryBag_GetAfterClose_ReturnsEmpty(t *testing.T) {
	bag := engine.NewMemoryBag()
	bag.Set(engine.PropertyRegion, "westus")
	bag.Close()

	if got := bag.Get(engine.PropertyRegion); got != "" {
		t.Fatalf("Get on closed bag = %q, want empty", got)
	}
}

func TestMemoryBag_CloseTwice_NoError(t *testing.T) {
	bag := engine.NewMemoryBag()
	if err := bag.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := bag.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestMemoryBag_Snapshot_IsACopy(t *testing.T) {
	bag := engine.NewMemoryBag()
	bag.Set(engine.PropertyRecognitionLanguage, "en-US")

	snap := bag.Snapshot()
	snap[engine.PropertyRecognitionLanguage] = "de-DE"

	if got := bag.Get(engine.PropertyRecognitionLanguage); got != "en-US" {
		t.Fatalf("mutating snapshot changed bag value to %q", got)
	}
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("socket closed")
	err := &engine.Error{Op: "start continuous", Status: engine.StatusConnectionFailure, Cause: cause}

	if !errors.Is(err, cause) {
		t.Fatal("errors.Is did not match the wrapped cause")
	}
}

func TestKind_String_CoversAllKinds(t *testing.T) {
	for _, k := range engine.Kinds {
		if k.String() == "unknown" {
			t.Fatalf("kind %d has no name", int(k))
		}
	}
}
