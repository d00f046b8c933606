package handle_test

import (
	"sync"
	"testing"

	"github.com/tommy200519/cognitive-services-speech-sdk/internal/handle"
)

func TestRegister_IssuesDistinctNonZeroTokens(t *testing.T) {
	r := handle.NewRegistry[string]()
	a := r.Register("a")
	b := r.Register("b")

	if a == 0 || b == 0 {
		t.Fatalf("expected non-zero tokens, got %d and %d", a, b)
	}
	if a == b {
		t.Fatalf("expected distinct tokens, both were %d", a)
	}
}

func TestResolve_ReturnsRegisteredValue(t *testing.T) {
	r := handle.NewRegistry[string]()
	tok := r.Register("value")

	got, ok := r.Resolve(tok)
	if !ok {
		t.Fatal("Resolve reported not-found for a live token")
	}
	if got != "value" {
		t.Fatalf("Resolve = %q, want %q", got, "value")
	}
}

func TestResolve_ZeroToken_NotFound(t *testing.T) {
	r := handle.NewRegistry[string]()
	r.Register("value")

	if _, ok := r.Resolve(0); ok {
		t.Fatal("zero token resolved to a value")
	}
}

func TestResolve_ReleasedToken_NotFound(t *testing.T) {
	r := handle.NewRegistry[int]()
	tok := r.Register(7)

	if !r.Release(tok) {
		t.Fatal("Release reported no entry removed")
	}
	if _, ok := r.Resolve(tok); ok {
		t.Fatal("released token still resolves")
	}
}

func TestRelease_Twice_SecondIsNoOp(t *testing.T) {
	r := handle.NewRegistry[int]()
	tok := r.Register(7)

	r.Release(tok)
	if r.Release(tok) {
		t.Fatal("second Release reported an entry removed")
	}
}

func TestTokens_NotReusedAfterRelease(t *testing.T) {
	r := handle.NewRegistry[int]()
	first := r.Register(1)
	r.Release(first)

	second := r.Register(2)
	if second == first {
		t.Fatalf("token %d was reused after release", first)
	}
}

func TestRegistry_ConcurrentRegisterResolveRelease(t *testing.T) {
	r := handle.NewRegistry[int]()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok := r.Register(i)
			if _, ok := r.Resolve(tok); !ok {
				t.Error("freshly registered token did not resolve")
			}
			r.Release(tok)
		}()
	}
	wg.Wait()

	if n := r.Len(); n != 0 {
		t.Fatalf("expected empty registry, %d entries remain", n)
	}
}
