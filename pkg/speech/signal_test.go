package speech

import (
	"sync"
	"testing"
)

func TestSignal_EmitReachesAllSubscribersInOrder(t *testing.T) {
	var s Signal[int]
	var order []string

	s.Connect(func(v int) { order = append(order, "first") })
	s.Connect(func(v int) { order = append(order, "second") })

	s.emit(1)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("invocation order = %v", order)
	}
}

func TestSignal_EmitWithoutSubscribers_NoOp(t *testing.T) {
	var s Signal[string]
	s.emit("nothing listens") // must not panic
	if s.hasSubscribers() {
		t.Fatal("hasSubscribers reported true on empty signal")
	}
}

func TestSignal_Disconnect_StopsDelivery(t *testing.T) {
	var s Signal[int]
	calls := 0
	disconnect := s.Connect(func(v int) { calls++ })

	s.emit(1)
	disconnect()
	s.emit(2)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestSignal_DisconnectTwice_NoOp(t *testing.T) {
	var s Signal[int]
	disconnect := s.Connect(func(v int) {})
	other := s.Connect(func(v int) {})

	disconnect()
	disconnect()
	_ = other

	if !s.hasSubscribers() {
		t.Fatal("double disconnect removed an unrelated subscriber")
	}
}

func TestSignal_ConnectNil_NoOp(t *testing.T) {
	var s Signal[int]
	disconnect := s.Connect(nil)
	disconnect()
	if s.hasSubscribers() {
		t.Fatal("nil handler was registered")
	}
}

func TestSignal_DisconnectDuringEmit_DoesNotAffectSnapshot(t *testing.T) {
	var s Signal[int]
	var calls []string

	var disconnectSecond func()
	s.Connect(func(v int) {
		calls = append(calls, "first")
		disconnectSecond()
	})
	disconnectSecond = s.Connect(func(v int) {
		calls = append(calls, "second")
	})

	s.emit(1)

	// The snapshot taken before dispatch still contains the second handler.
	if len(calls) != 2 {
		t.Fatalf("calls = %v, want both handlers invoked", calls)
	}

	calls = nil
	s.emit(2)
	if len(calls) != 1 || calls[0] != "first" {
		t.Fatalf("calls after disconnect = %v, want [first]", calls)
	}
}

func TestSignal_ConcurrentConnectEmitDisconnect(t *testing.T) {
	var s Signal[int]
	var wg sync.WaitGroup

	for range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			disconnect := s.Connect(func(v int) {})
			disconnect()
		}()
		go func() {
			defer wg.Done()
			s.emit(1)
		}()
	}
	wg.Wait()
}

func TestSignal_Clear_RemovesAll(t *testing.T) {
	var s Signal[int]
	s.Connect(func(v int) {})
	s.Connect(func(v int) {})

	s.clear()

	if s.hasSubscribers() {
		t.Fatal("clear left subscribers connected")
	}
}
