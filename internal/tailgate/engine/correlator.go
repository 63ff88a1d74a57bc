package engine

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultRequiredCount is used when a camera caption carries no usable count.
const DefaultRequiredCount = 2

// Correlator matches door unlocks against camera occupancy events. It owns
// the unlock window, the people counter and the recent-events log; each has
// its own lock and no operation holds two of them at once.
type Correlator struct {
	window  *UnlockWindow
	counter *PeopleCounter
	log     *EventLog
	now     func() time.Time
}

type Option func(*Correlator)

// WithClock overrides the time source used for events without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *Correlator) { c.now = now }
}

// WithLogCapacity sets the size of the recent-events log.
func WithLogCapacity(n int) Option {
	return func(c *Correlator) { c.log = NewEventLog(n) }
}

func NewCorrelator(windowSeconds int, opts ...Option) *Correlator {
	c := &Correlator{
		window:  NewUnlockWindow(windowSeconds),
		counter: NewPeopleCounter(),
		log:     NewEventLog(DefaultLogCapacity),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Correlator) Window() *UnlockWindow   { return c.window }
func (c *Correlator) Counter() *PeopleCounter { return c.counter }
func (c *Correlator) Log() *EventLog          { return c.log }

// AccessResult is what OnAccess did.
type AccessResult struct {
	Entry       LogEntry
	PeopleCount int
}

// OnAccess logs an access notice, records it in the window when it is an
// unlock and applies the counter actions. Unlock runs before lock reset.
func (c *Correlator) OnAccess(n AccessNotice) AccessResult {
	at := c.stamp(n.Time)

	entry := LogEntry{
		ID:      uuid.New(),
		Time:    at,
		Source:  SourceAccess,
		Origin:  n.Portal,
		Name:    n.Description,
		Verdict: VerdictNone,
	}
	c.log.Append(entry)

	if n.Unlock {
		c.window.Record(at, c.now())
		c.counter.OnUnlock()
	}
	if n.Lock {
		c.counter.OnLockReset()
	}
	return AccessResult{Entry: entry, PeopleCount: c.counter.Snapshot()}
}

// CameraResult is what OnCamera did. Classified is set only for tailgating
// events; PeopleCount is meaningful only for line crossings.
type CameraResult struct {
	Entry       LogEntry
	Classified  bool
	Verdict     Verdict
	PeopleCount int
}

// OnCamera handles a camera event. Line crossings bump the counter.
// Tailgating events are logged with a provisional verdict, matched against
// the unlock window and then patched through the ticket from Append. The
// window is pruned by the correlator's clock, never by event timestamps.
func (c *Correlator) OnCamera(ev CameraEvent) CameraResult {
	at := c.stamp(ev.Time)

	entry := LogEntry{
		ID:      uuid.New(),
		Time:    at,
		Source:  SourceCamera,
		Kind:    ev.Kind,
		Origin:  ev.CameraID,
		Name:    ev.EventName,
		Count:   ev.Caption,
		Verdict: VerdictUnknown,
	}
	ticket := c.log.Append(entry)

	res := CameraResult{Entry: entry}
	switch ev.Kind {
	case CameraLineCrossing:
		res.PeopleCount = c.counter.OnLineCrossing()
	case CameraTailgating:
		verdict := VerdictTailgate
		if c.window.MatchAndConsume(c.now(), at, ev.RequiredCount) {
			verdict = VerdictNoTailgate
		}
		c.log.UpdateVerdict(ticket, verdict)
		res.Classified = true
		res.Verdict = verdict
		res.Entry.Verdict = verdict
	}
	return res
}

// Status is the read side shown to operators.
type Status struct {
	Events        []LogEntry
	PeopleCount   int
	WindowSeconds int
}

func (c *Correlator) Status(limit int, maxAge time.Duration) Status {
	return Status{
		Events:        c.log.Snapshot(c.now(), limit, maxAge),
		PeopleCount:   c.counter.Snapshot(),
		WindowSeconds: c.window.Seconds(),
	}
}

func (c *Correlator) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return c.now()
	}
	return t.UTC()
}

// ParseRequiredCount reads the number of people a camera saw from the first
// whitespace-separated token of its caption. Empty, non-numeric and negative
// values fall back to DefaultRequiredCount.
func ParseRequiredCount(caption string) int {
	fields := strings.Fields(caption)
	if len(fields) == 0 {
		return DefaultRequiredCount
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return DefaultRequiredCount
	}
	return n
}
