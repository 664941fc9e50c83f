// Package callsession tracks the lifecycle of a single voice call. The
// tracker is a pure state machine: it never touches the modem, it only
// interprets parsed call events and user actions. Time is injected so the
// 1-second duration refresh and the end countdown can be tested with a
// simulated clock.
package callsession

import "time"

// State is the call lifecycle position.
type State int

const (
	Idle State = iota
	Dialing
	Ringing  // incoming call, not yet answered
	Answered // incoming call accepted, waiting for the connect event
	Connected
	Ended
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dialing:
		return "dialing"
	case Ringing:
		return "ringing"
	case Answered:
		return "answered"
	case Connected:
		return "connected"
	case Ended:
		return "ended"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// endDisplay is how long the Ended/Failed banner stays up before the
// session auto-returns to idle.
const endDisplay = 10 * time.Second

// refreshEvery is the duration-display update interval while connected.
const refreshEvery = time.Second

// Event is a parsed call notification from the modem.
type Event int

const (
	EventRing Event = iota
	EventBegin
	EventEnd
	EventNoCarrier
	EventFailed
)

// TickAction tells the owning loop what a Tick crossed.
type TickAction int

const (
	TickNone    TickAction = iota
	TickRefresh            // 1-second boundary crossed, redraw duration
	TickReturn             // end countdown expired, session went Idle
)

// Tracker holds the state of at most one live call.
type Tracker struct {
	now func() time.Time

	state       State
	contactName string

	connectedAt time.Time
	nextRefresh time.Time
	returnAt    time.Time

	// duration is the call length in seconds, either computed from
	// connectedAt or reported by the modem at call end.
	duration int
}

// New creates an idle tracker. now is the clock; pass time.Now in
// production.
func New(now func() time.Time) *Tracker {
	return &Tracker{now: now}
}

func (t *Tracker) State() State        { return t.state }
func (t *Tracker) ContactName() string { return t.contactName }

// Active reports whether any session exists, including the ended/failed
// banner period. A ringing modem is only a new call when this is false.
func (t *Tracker) Active() bool { return t.state != Idle }

// Duration returns the elapsed call seconds: live while connected, frozen
// at the final value afterwards.
func (t *Tracker) Duration() int {
	if t.state == Connected {
		return int(t.now().Sub(t.connectedAt) / time.Second)
	}
	return t.duration
}

// StartDial begins an outbound session. The dial command itself is the
// caller's job; the tracker just records the attempt.
func (t *Tracker) StartDial(name string) {
	t.state = Dialing
	t.contactName = name
	t.duration = 0
}

// HandleEvent applies one modem call event. The return value reports
// whether the event changed the session (and a redraw is due).
func (t *Tracker) HandleEvent(ev Event) bool {
	switch ev {
	case EventRing:
		// RING repeats while ringing and can leak into a live call;
		// only an idle tracker treats it as a new incoming call.
		if t.Active() {
			return false
		}
		t.state = Ringing
		t.contactName = "Unknown Caller"
		t.duration = 0
		return true

	case EventBegin:
		if t.state != Dialing && t.state != Answered {
			return false
		}
		t.connect()
		return true

	case EventEnd, EventNoCarrier:
		switch t.state {
		case Connected, Dialing, Answered:
			t.duration = t.Duration()
			t.state = Ended
			t.returnAt = t.now().Add(endDisplay)
			return true
		}
		return false

	case EventFailed:
		if t.state != Dialing {
			return false
		}
		t.state = Failed
		t.returnAt = t.now().Add(endDisplay)
		return true
	}
	return false
}

// SetDuration records the modem-reported call length (VOICE CALL:
// END:000015), overriding the computed value.
func (t *Tracker) SetDuration(seconds int) {
	t.duration = seconds
}

// Answer accepts a ringing call. The connect event that follows ATA moves
// the session to Connected.
func (t *Tracker) Answer() bool {
	if t.state != Ringing {
		return false
	}
	t.state = Answered
	return true
}

// Reject declines a ringing call and returns the session to idle.
func (t *Tracker) Reject() bool {
	if t.state != Ringing {
		return false
	}
	t.reset()
	return true
}

// Hangup ends the session immediately, bypassing the end countdown.
func (t *Tracker) Hangup() {
	t.reset()
}

// Tick checks the scheduled deadlines. While connected it reports a
// refresh every time a 1-second boundary is crossed (deadline arithmetic,
// not per-iteration counting, so loop jitter cannot drift the display).
// While ended/failed it runs the countdown and resets to idle on expiry.
func (t *Tracker) Tick() TickAction {
	now := t.now()

	switch t.state {
	case Connected:
		if now.Before(t.nextRefresh) {
			return TickNone
		}
		t.nextRefresh = t.nextRefresh.Add(refreshEvery)
		return TickRefresh

	case Ended, Failed:
		if now.Before(t.returnAt) {
			return TickNone
		}
		t.reset()
		return TickReturn
	}
	return TickNone
}

func (t *Tracker) connect() {
	t.state = Connected
	t.connectedAt = t.now()
	t.nextRefresh = t.connectedAt.Add(refreshEvery)
	t.duration = 0
}

func (t *Tracker) reset() {
	t.state = Idle
	t.contactName = ""
	t.duration = 0
}
