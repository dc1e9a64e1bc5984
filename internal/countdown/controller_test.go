package countdown

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestStartRejectsEmptyInput(t *testing.T) {
	c, _, alarm := newTestController()
	if _, err := c.Start(""); !errors.Is(err, ErrEmptyTarget) {
		t.Fatalf("expected ErrEmptyTarget, got %v", err)
	}
	if c.Phase() != PhaseIdle || c.Display() != Placeholder {
		t.Fatalf("expected untouched idle state, got %s %q", c.Phase(), c.Display())
	}
	if alarm.primed != 0 {
		t.Fatalf("expected no alarm priming on invalid input")
	}
}

func TestStartRendersImmediately(t *testing.T) {
	c, clk, alarm := newTestController()
	clk.now = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

	h, err := c.Start("11:30")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if h == 0 {
		t.Fatalf("expected a tick handle")
	}
	if c.Display() != "01:30:00" {
		t.Fatalf("unexpected display %q", c.Display())
	}
	if c.Phase() != PhaseRunning || c.ControlsVisible() || !c.Enlarged() || c.Status() != "" {
		t.Fatalf("expected running layout")
	}
	if alarm.primed != 1 {
		t.Fatalf("expected alarm primed once, got %d", alarm.primed)
	}
	if c.ButtonLabel() != "Restart" {
		t.Fatalf("unexpected label %q", c.ButtonLabel())
	}
}

func TestStartUsesOffset(t *testing.T) {
	c, clk, _ := newTestController()
	clk.now = time.Date(2026, 10, 14, 8, 59, 0, 0, time.UTC)
	c.SetOffset(2 * time.Minute)

	if _, err := c.Start("09:00"); err != nil {
		t.Fatalf("start: %v", err)
	}
	want := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	if !c.Target().Equal(want) {
		t.Fatalf("expected corrected now to roll target forward, got %v", c.Target())
	}
}

func TestCountdownCompletes(t *testing.T) {
	c, clk, alarm := newTestController()
	clk.now = time.Date(2026, 10, 14, 10, 0, 59, 0, time.UTC)

	h, err := c.Start("10:01")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if c.Display() != "00:00:01" {
		t.Fatalf("unexpected display %q", c.Display())
	}

	clk.now = clk.now.Add(time.Second)
	if c.Tick(h) {
		t.Fatalf("expected completion to stop ticking")
	}
	if c.Phase() != PhaseCompleted || c.Display() != CompletedText {
		t.Fatalf("expected completed state, got %s %q", c.Phase(), c.Display())
	}
	if alarm.played != 1 {
		t.Fatalf("expected alarm played once, got %d", alarm.played)
	}
	if !c.ControlsVisible() || c.Enlarged() {
		t.Fatalf("expected idle layout restored")
	}
	if c.ButtonLabel() != "Start again" || c.Status() == "" {
		t.Fatalf("unexpected completed labels %q %q", c.ButtonLabel(), c.Status())
	}

	clk.now = clk.now.Add(time.Second)
	if c.Tick(h) {
		t.Fatalf("expected stale handle after completion")
	}
	if alarm.played != 1 {
		t.Fatalf("expected alarm not replayed")
	}
}

func TestAlarmFailureIsLogged(t *testing.T) {
	var logs []string
	clk := &fakeClock{now: time.Date(2026, 10, 14, 10, 0, 59, 0, time.UTC)}
	alarm := &fakeAlarm{primeErr: errors.New("no device"), playErr: errors.New("no device")}
	c := NewController(clk, alarm, WithLogf(func(format string, args ...any) {
		logs = append(logs, fmt.Sprintf(format, args...))
	}))

	h, err := c.Start("10:01")
	if err != nil {
		t.Fatalf("expected start to ignore alarm failure, got %v", err)
	}
	clk.now = clk.now.Add(time.Second)
	c.Tick(h)
	if c.Phase() != PhaseCompleted {
		t.Fatalf("expected completion despite alarm failure")
	}
	if len(logs) != 2 || !strings.Contains(logs[0], "prime") || !strings.Contains(logs[1], "playback") {
		t.Fatalf("unexpected logs %v", logs)
	}
}

func TestRestartCancelsPreviousTicks(t *testing.T) {
	c, clk, _ := newTestController()
	clk.now = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

	first, err := c.Start("10:01")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	second, err := c.Start("12:00")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if first == second {
		t.Fatalf("expected a fresh handle")
	}
	clk.now = clk.now.Add(time.Second)
	if c.Tick(first) {
		t.Fatalf("expected old handle to be cancelled")
	}
	if !c.Tick(second) {
		t.Fatalf("expected new handle to keep ticking")
	}
	if c.Display() != "01:59:59" {
		t.Fatalf("unexpected display %q", c.Display())
	}
}

func TestStartAfterCompletionResets(t *testing.T) {
	c, clk, alarm := newTestController()
	clk.now = time.Date(2026, 10, 14, 10, 0, 59, 0, time.UTC)
	h, _ := c.Start("10:01")
	clk.now = clk.now.Add(time.Second)
	c.Tick(h)

	h2, err := c.Start("10:05")
	if err != nil {
		t.Fatalf("start again: %v", err)
	}
	if c.Phase() != PhaseRunning || c.Display() != "00:04:00" {
		t.Fatalf("expected fresh running countdown, got %s %q", c.Phase(), c.Display())
	}
	if c.Tick(h) {
		t.Fatalf("expected completed handle to stay dead")
	}
	if !c.Tick(h2) {
		t.Fatalf("expected new handle alive")
	}
	if alarm.primed != 2 {
		t.Fatalf("expected alarm primed per start, got %d", alarm.primed)
	}
}

func TestClockModeWhileRunning(t *testing.T) {
	c, clk, _ := newTestController()
	clk.now = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	h, _ := c.Start("11:00")

	if _, started := c.ToggleClock(); started {
		t.Fatalf("expected no separate loop while running")
	}
	clk.now = clk.now.Add(time.Second)
	c.Tick(h)
	if c.Display() != "10:00:01" {
		t.Fatalf("expected clock readout, got %q", c.Display())
	}

	c.ToggleClock()
	clk.now = clk.now.Add(time.Second)
	c.Tick(h)
	if c.Display() != "00:59:58" {
		t.Fatalf("expected countdown readout after double toggle, got %q", c.Display())
	}
}

func TestClockModeWhileIdle(t *testing.T) {
	c, clk, _ := newTestController()
	clk.now = time.Date(2026, 10, 14, 21, 15, 0, 0, time.UTC)
	c.SetOffset(3 * time.Second)

	h, started := c.ToggleClock()
	if !started || h == 0 {
		t.Fatalf("expected idle clock loop")
	}
	if c.Display() != "21:15:03" {
		t.Fatalf("expected corrected clock, got %q", c.Display())
	}
	clk.now = clk.now.Add(time.Second)
	if !c.ClockTick(h) || c.Display() != "21:15:04" {
		t.Fatalf("expected clock tick refresh, got %q", c.Display())
	}

	if _, started := c.ToggleClock(); started {
		t.Fatalf("expected loop to stop")
	}
	if c.Display() != Placeholder {
		t.Fatalf("expected placeholder, got %q", c.Display())
	}
	if c.ClockTick(h) {
		t.Fatalf("expected cancelled clock handle")
	}
}

func TestStartCancelsIdleClockLoop(t *testing.T) {
	c, clk, _ := newTestController()
	clk.now = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	clockHandle, _ := c.ToggleClock()

	if _, err := c.Start("10:30"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if c.ClockTick(clockHandle) {
		t.Fatalf("expected idle clock loop cancelled by start")
	}
	if c.Display() != "10:00:00" {
		t.Fatalf("expected clock-mode readout from the countdown, got %q", c.Display())
	}
}

func TestClockToggleAfterCompletionRestoresMessage(t *testing.T) {
	c, clk, _ := newTestController()
	clk.now = time.Date(2026, 10, 14, 10, 0, 59, 0, time.UTC)
	h, _ := c.Start("10:01")
	clk.now = clk.now.Add(time.Second)
	c.Tick(h)

	c.ToggleClock()
	c.ToggleClock()
	if c.Display() != CompletedText {
		t.Fatalf("expected completed message back, got %q", c.Display())
	}
}

func TestStop(t *testing.T) {
	c, clk, _ := newTestController()
	clk.now = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	h, _ := c.Start("10:30")
	c.Stop()
	if c.Tick(h) {
		t.Fatalf("expected stop to cancel ticking")
	}
	if c.Phase() != PhaseIdle || c.Display() != Placeholder || c.ButtonLabel() != "Start" {
		t.Fatalf("expected idle state after stop")
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseRunning.String() != "running" || Phase(9).String() != "phase(9)" {
		t.Fatalf("unexpected phase names")
	}
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

type fakeAlarm struct {
	primed   int
	played   int
	primeErr error
	playErr  error
}

func (f *fakeAlarm) Prime() error {
	f.primed++
	return f.primeErr
}

func (f *fakeAlarm) Play() error {
	f.played++
	return f.playErr
}

func newTestController() (*Controller, *fakeClock, *fakeAlarm) {
	clk := &fakeClock{now: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}
	alarm := &fakeAlarm{}
	c := NewController(clk, alarm, WithLogf(func(string, ...any) {}))
	return c, clk, alarm
}
