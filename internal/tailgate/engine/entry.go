package engine

import (
	"time"

	"github.com/google/uuid"
)

type SourceKind int

const (
	SourceAccess SourceKind = iota
	SourceCamera
)

func (k SourceKind) String() string {
	if k == SourceCamera {
		return "camera"
	}
	return "access"
}

type CameraKind int

const (
	// CameraOther is an event type the engine does not act on; it is only logged.
	CameraOther CameraKind = iota
	CameraLineCrossing
	CameraTailgating
)

func (k CameraKind) String() string {
	switch k {
	case CameraLineCrossing:
		return "linecrossing"
	case CameraTailgating:
		return "tailgating"
	default:
		return "other"
	}
}

type Verdict int

const (
	VerdictNone Verdict = iota
	VerdictUnknown
	VerdictTailgate
	VerdictNoTailgate
)

func (v Verdict) String() string {
	switch v {
	case VerdictUnknown:
		return "UNKNOWN"
	case VerdictTailgate:
		return "TAILGATE"
	case VerdictNoTailgate:
		return "NO TAILGATE"
	default:
		return ""
	}
}

// ParseVerdict is the inverse of String. Unrecognised text maps to VerdictNone.
func ParseVerdict(s string) Verdict {
	switch s {
	case "UNKNOWN":
		return VerdictUnknown
	case "TAILGATE":
		return VerdictTailgate
	case "NO TAILGATE":
		return VerdictNoTailgate
	default:
		return VerdictNone
	}
}

// Ticket identifies one EventLog entry. It is handed out by Append and is the
// only key accepted by UpdateVerdict.
type Ticket = uuid.UUID

// UnlockEvent is a single authorization signal from the access-control side.
type UnlockEvent struct {
	Time time.Time
}

// CameraEvent is a normalized occupancy event from a camera.
type CameraEvent struct {
	Kind          CameraKind
	Time          time.Time
	CameraID      string
	EventName     string
	Caption       string
	RequiredCount int
}

// AccessNotice is a normalized access-control event. Unlock and Lock are
// classified at the ingress boundary and may both be set.
type AccessNotice struct {
	Time        time.Time
	Portal      string
	Description string
	Unlock      bool
	Lock        bool
}

// LogEntry is one row of the recent-events log. Origin is the portal for
// access entries and the camera for camera entries; Name is the access
// description or the camera event name.
type LogEntry struct {
	ID      Ticket
	Time    time.Time
	Source  SourceKind
	Kind    CameraKind
	Origin  string
	Name    string
	Count   string
	Verdict Verdict
}
