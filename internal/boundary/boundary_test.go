package boundary_test

import (
	"testing"

	"github.com/tommy200519/cognitive-services-speech-sdk/internal/boundary"
)

func TestProtect_RunsFunction(t *testing.T) {
	ran := false
	boundary.Protect("recognized", func() { ran = true })
	if !ran {
		t.Fatal("Protect did not run the function")
	}
}

func TestProtect_AbsorbsPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic escaped Protect: %v", r)
		}
	}()
	boundary.Protect("recognized", func() { panic("subscriber misbehaved") })
}

func TestProtect_AbsorbsNilMapWrite(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("runtime panic escaped Protect: %v", r)
		}
	}()
	boundary.Protect("canceled", func() {
		var m map[string]int
		m["boom"] = 1
	})
}
