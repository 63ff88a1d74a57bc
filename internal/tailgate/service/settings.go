package service

import (
	"errors"
	"strings"
	"sync"

	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/engine"
)

var (
	ErrWindowOutOfRange = errors.New("window must be between 1 and 60 seconds")
	ErrInvalidMode      = errors.New("invalid mode")
)

const (
	ModeTailgating   = "tailgating"
	ModeLineCrossing = "linecrossing"
)

// Settings is the operator-facing configuration surface. The window duration
// lives in the engine's UnlockWindow under that window's lock; the mode has a
// lock of its own.
type Settings struct {
	window *engine.UnlockWindow

	mu   sync.RWMutex
	mode string
}

func NewSettings(window *engine.UnlockWindow, mode string) *Settings {
	s := &Settings{window: window, mode: ModeTailgating}
	if normalized, ok := normalizeMode(mode); ok {
		s.mode = normalized
	}
	return s
}

// SetWindow changes the unlock window. Values outside [1,60] leave the
// window unchanged.
func (s *Settings) SetWindow(seconds int) error {
	if seconds < engine.MinWindowSeconds || seconds > engine.MaxWindowSeconds {
		return ErrWindowOutOfRange
	}
	s.window.SetSeconds(seconds)
	return nil
}

func (s *Settings) Window() int { return s.window.Seconds() }

// SetMode records the operating mode and returns its normalized form.
func (s *Settings) SetMode(mode string) (string, error) {
	normalized, ok := normalizeMode(mode)
	if !ok {
		return "", ErrInvalidMode
	}
	s.mu.Lock()
	s.mode = normalized
	s.mu.Unlock()
	return normalized, nil
}

func (s *Settings) Mode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func normalizeMode(mode string) (string, bool) {
	m := strings.ToLower(strings.TrimSpace(mode))
	if m == ModeTailgating || m == ModeLineCrossing {
		return m, true
	}
	return "", false
}
