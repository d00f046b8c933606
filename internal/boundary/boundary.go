// Package boundary guards the edge between engine goroutines and user
// callback code. Engines invoke event callbacks on their own goroutines; a
// panicking subscriber must never unwind into an engine's dispatch loop.
package boundary

import "log/slog"

// Protect runs fn and absorbs any panic, converting it into a logged
// diagnostic. The event name identifies the dispatch site in the log record.
// There is no caller frame to report a dispatch failure to, so logging is
// the only observable effect.
func Protect(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event dispatch failed", "event", event, "panic", r)
		}
	}()
	fn()
}
