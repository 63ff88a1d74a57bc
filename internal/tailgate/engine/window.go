package engine

import (
	"sort"
	"sync"
	"time"
)

const (
	MinWindowSeconds     = 1
	MaxWindowSeconds     = 60
	DefaultWindowSeconds = 10
)

// UnlockWindow holds recent unlock timestamps and matches them against a
// trailing window. The window duration is mutable at runtime, so the
// contents are evaluated lazily: every read prunes first.
//
// Methods that prune take the pruning clock separately from event times.
// Event times come from callers and may be skewed; only the server clock
// may move the prune cutoff.
//
// All methods are safe for concurrent use. MatchAndConsume runs as a single
// critical section so two concurrent checks can never spend the same unlock.
type UnlockWindow struct {
	mu       sync.Mutex
	duration time.Duration
	unlocks  []time.Time
}

// NewUnlockWindow returns an empty window. Seconds outside [1,60] fall back
// to DefaultWindowSeconds.
func NewUnlockWindow(seconds int) *UnlockWindow {
	if seconds < MinWindowSeconds || seconds > MaxWindowSeconds {
		seconds = DefaultWindowSeconds
	}
	return &UnlockWindow{duration: time.Duration(seconds) * time.Second}
}

// Seconds returns the current window duration in whole seconds.
func (w *UnlockWindow) Seconds() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return int(w.duration / time.Second)
}

// SetSeconds changes the window duration. The caller validates the range.
func (w *UnlockWindow) SetSeconds(seconds int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.duration = time.Duration(seconds) * time.Second
}

// Record appends the unlock stamped t and prunes against now.
func (w *UnlockWindow) Record(t, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.unlocks = append(w.unlocks, t.UTC())
	w.pruneLocked(now)
}

// Prune removes every timestamp strictly older than now - duration.
func (w *UnlockWindow) Prune(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked(now)
}

// Len returns the number of held timestamps without pruning.
func (w *UnlockWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.unlocks)
}

// Snapshot returns a copy of the held timestamps in arrival order.
func (w *UnlockWindow) Snapshot() []time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]time.Time, len(w.unlocks))
	copy(out, w.unlocks)
	return out
}

// MatchAndConsume prunes against now, then looks for at least required
// unlocks with 0 <= at-t <= duration, where at is the camera event's time. On success exactly required of the oldest matching
// unlocks are removed and true is returned. On failure nothing is removed.
//
// A required count of zero (or less) always matches and consumes nothing.
func (w *UnlockWindow) MatchAndConsume(now, at time.Time, required int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	if required <= 0 {
		return true
	}

	var eligible []int
	for i, t := range w.unlocks {
		age := at.Sub(t)
		if age >= 0 && age <= w.duration {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) < required {
		return false
	}

	// Arrival order is not timestamp order under clock skew; spend the
	// earliest timestamps first.
	sort.SliceStable(eligible, func(a, b int) bool {
		return w.unlocks[eligible[a]].Before(w.unlocks[eligible[b]])
	})

	spent := make(map[int]struct{}, required)
	for _, idx := range eligible[:required] {
		spent[idx] = struct{}{}
	}

	kept := w.unlocks[:0]
	for i, t := range w.unlocks {
		if _, ok := spent[i]; ok {
			continue
		}
		kept = append(kept, t)
	}
	w.unlocks = kept
	return true
}

func (w *UnlockWindow) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.duration)
	kept := w.unlocks[:0]
	for _, t := range w.unlocks {
		if !t.Before(cutoff) {
			kept = append(kept, t)
		}
	}
	// Clear the tail so dropped timestamps do not linger in the backing array.
	for i := len(kept); i < len(w.unlocks); i++ {
		w.unlocks[i] = time.Time{}
	}
	w.unlocks = kept
}
