package countdown

import (
	"fmt"
	"log"
	"time"
)

// Display texts.
const (
	CompletedText = "WARP COMPLETE"

	statusIdle      = "Set a target time and engage."
	statusCompleted = "Arrival at target time confirmed."
)

// Phase is the lifecycle state of the countdown.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseCompleted:
		return "completed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Handle identifies one scheduled tick loop. A tick carrying a handle that is
// no longer current belongs to a cancelled loop and must be dropped.
type Handle uint64

// Clock supplies the local wall clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// Alarm is the best-effort completion sound. Errors are logged, never surfaced.
type Alarm interface {
	Prime() error
	Play() error
}

// NopAlarm is a silent Alarm.
type NopAlarm struct{}

// Prime implements Alarm.
func (NopAlarm) Prime() error { return nil }

// Play implements Alarm.
func (NopAlarm) Play() error { return nil }

// Controller owns the countdown state. It is not safe for concurrent use;
// the UI event loop is its only caller.
type Controller struct {
	clock  Clock
	alarm  Alarm
	logf   func(format string, args ...any)
	offset time.Duration

	phase     Phase
	target    time.Time
	clockMode bool

	next      Handle
	tick      Handle
	clockTick Handle

	display     string
	idleDisplay string
}

// Option customises a Controller.
type Option func(*Controller)

// WithLogf replaces the logger used for best-effort failures.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(c *Controller) {
		if logf != nil {
			c.logf = logf
		}
	}
}

// NewController builds an idle controller. Nil collaborators fall back to
// the system clock and a silent alarm.
func NewController(clock Clock, alarm Alarm, opts ...Option) *Controller {
	if clock == nil {
		clock = SystemClock{}
	}
	if alarm == nil {
		alarm = NopAlarm{}
	}
	c := &Controller{
		clock:       clock,
		alarm:       alarm,
		logf:        log.Printf,
		display:     Placeholder,
		idleDisplay: Placeholder,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetOffset sets the correction added to the local clock.
func (c *Controller) SetOffset(d time.Duration) {
	c.offset = d
}

// Offset returns the current clock correction.
func (c *Controller) Offset() time.Duration {
	return c.offset
}

// Now returns the corrected current time.
func (c *Controller) Now() time.Time {
	return c.clock.Now().Add(c.offset)
}

// Start validates input, schedules the countdown and renders the first
// readout. The returned handle must accompany every Tick.
func (c *Controller) Start(input string) (Handle, error) {
	hour, minute, err := ParseTimeOfDay(input)
	if err != nil {
		return 0, err
	}
	now := c.Now()
	target := NextOccurrence(now, hour, minute)
	if !target.After(now) {
		return 0, fmt.Errorf("%w: %s", ErrSchedule, target.Format(time.RFC3339))
	}

	c.tick = 0
	c.clockTick = 0
	if err := c.alarm.Prime(); err != nil {
		c.logf("alarm prime failed: %v", err)
	}

	c.phase = PhaseRunning
	c.target = target
	c.tick = c.newHandle()
	c.render(now)
	return c.tick, nil
}

// Tick recomputes the readout for a running countdown. It reports whether
// the caller should schedule another tick with the same handle.
func (c *Controller) Tick(h Handle) bool {
	if h == 0 || h != c.tick || c.phase != PhaseRunning {
		return false
	}
	now := c.Now()
	if !c.target.After(now) {
		c.finish()
		return false
	}
	c.render(now)
	return true
}

func (c *Controller) finish() {
	c.tick = 0
	c.phase = PhaseCompleted
	c.display = CompletedText
	c.idleDisplay = CompletedText
	if err := c.alarm.Play(); err != nil {
		c.logf("alarm playback failed: %v", err)
	}
}

func (c *Controller) render(now time.Time) {
	if c.clockMode {
		c.display = FormatClock(now)
		return
	}
	c.display = FormatDuration(c.target.Sub(now))
}

// ToggleClock flips between countdown and clock display. While no countdown
// runs, the controller drives its own refresh loop: when started is true the
// caller must schedule ClockTick with the returned handle.
func (c *Controller) ToggleClock() (h Handle, started bool) {
	c.clockMode = !c.clockMode
	if c.phase == PhaseRunning {
		return 0, false
	}
	c.clockTick = 0
	if !c.clockMode {
		c.display = c.idleDisplay
		return 0, false
	}
	c.clockTick = c.newHandle()
	c.display = FormatClock(c.Now())
	return c.clockTick, true
}

// ClockTick refreshes the idle clock readout. It reports whether the caller
// should schedule another tick with the same handle.
func (c *Controller) ClockTick(h Handle) bool {
	if h == 0 || h != c.clockTick || !c.clockMode || c.phase == PhaseRunning {
		return false
	}
	c.display = FormatClock(c.Now())
	return true
}

// Stop cancels every loop and returns to idle.
func (c *Controller) Stop() {
	c.tick = 0
	c.clockTick = 0
	c.phase = PhaseIdle
	c.target = time.Time{}
	c.idleDisplay = Placeholder
	c.display = Placeholder
}

func (c *Controller) newHandle() Handle {
	c.next++
	return c.next
}

// Phase returns the lifecycle state.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Target returns the scheduled instant in the corrected time frame.
func (c *Controller) Target() time.Time {
	return c.target
}

// ClockMode reports whether the readout shows the wall clock.
func (c *Controller) ClockMode() bool {
	return c.clockMode
}

// Display returns the current readout.
func (c *Controller) Display() string {
	return c.display
}

// Status returns the status label for the current phase.
func (c *Controller) Status() string {
	return StatusText(c.phase)
}

// ButtonLabel returns the action label for the current phase.
func (c *Controller) ButtonLabel() string {
	return ButtonLabel(c.phase)
}

// ControlsVisible reports whether the input controls should be shown.
func (c *Controller) ControlsVisible() bool {
	return c.phase != PhaseRunning
}

// Enlarged reports whether the readout uses the large running layout.
func (c *Controller) Enlarged() bool {
	return c.phase == PhaseRunning
}

// StatusText maps a phase to its status label. Running hides the label.
func StatusText(p Phase) string {
	switch p {
	case PhaseRunning:
		return ""
	case PhaseCompleted:
		return statusCompleted
	default:
		return statusIdle
	}
}

// ButtonLabel maps a phase to the start button label.
func ButtonLabel(p Phase) string {
	switch p {
	case PhaseRunning:
		return "Restart"
	case PhaseCompleted:
		return "Start again"
	default:
		return "Start"
	}
}
