package service

import (
	"strings"
	"time"

	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/engine"
)

// ClassifyAccess decides what an access-control description means for the
// correlator. It is a keyword heuristic over free text, not a protocol
// guarantee: "unlock" marks an unlock and "lock" marks a lock reset. The two
// are checked independently, so "Door Unlock" sets both.
func ClassifyAccess(desc string) (unlock, lock bool) {
	d := strings.ToLower(desc)
	return strings.Contains(d, "unlock"), strings.Contains(d, "lock")
}

// ClassifyCamera maps a camera EventType to the engine's kinds.
func ClassifyCamera(eventType string) engine.CameraKind {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "linecrossing":
		return engine.CameraLineCrossing
	case "tailgating":
		return engine.CameraTailgating
	default:
		return engine.CameraOther
	}
}

// parseOptionalTimestamp attempts to parse a caller-reported timestamp.
// Returns the zero time if the string is empty or unparseable, which makes
// the correlator stamp the event with its own clock.
func parseOptionalTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
