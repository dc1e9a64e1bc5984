// Package tui provides the Bubble Tea countdown interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/verte-zerg/warptimer/internal/countdown"
	"github.com/verte-zerg/warptimer/internal/model"
	"github.com/verte-zerg/warptimer/internal/starfield"
)

const (
	noticeDuration = 3000 * time.Millisecond
	tickInterval   = time.Second
	// inlineRows is the height used outside the alternate screen.
	inlineRows    = 14
	minPanelInner = 26
	panelPadX     = 2
)

// Alarm is the completion sound.
type Alarm interface {
	countdown.Alarm
	Stop()
}

// SyncFunc returns the offset to add to the local clock.
type SyncFunc func(ctx context.Context) (time.Duration, error)

// Deps carries the collaborators of a Model. Nil fields get defaults.
type Deps struct {
	Clock countdown.Clock
	Alarm Alarm
	Sync  SyncFunc
	Rand  *rand.Rand
	Logf  func(format string, args ...any)

	// Width and Height seed the surface before the first resize message.
	Width  int
	Height int
}

type frameMsg struct {
	gen int
	at  time.Time
}

type tickMsg struct {
	handle countdown.Handle
}

type clockTickMsg struct {
	handle countdown.Handle
}

type noticeHideMsg struct {
	id int
}

type syncMsg struct {
	offset time.Duration
	err    error
}

type notice struct {
	id      int
	text    string
	isError bool
}

// Model implements the Bubble Tea countdown UI.
type Model struct {
	config model.Config
	ctrl   *countdown.Controller
	alarm  Alarm
	sync   SyncFunc
	logf   func(format string, args ...any)

	engine *starfield.Engine
	canvas *starfield.Canvas

	input textinput.Model
	help  help.Model
	keys  keyMap

	width      int
	height     int
	fullscreen bool
	frameGen   int
	clockStart countdown.Handle

	notice   notice
	noticeID int
}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	readoutStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	bigStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	buttonStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6E6E6E")).
			Padding(0, panelPadX)
)

// NewModel constructs a countdown TUI model.
func NewModel(cfg model.Config, deps Deps) *Model {
	if deps.Clock == nil {
		deps.Clock = countdown.SystemClock{}
	}
	if deps.Alarm == nil {
		deps.Alarm = nopAlarm{}
	}
	if deps.Logf == nil {
		deps.Logf = log.Printf
	}
	if deps.Width <= 0 || deps.Height <= 0 {
		deps.Width, deps.Height = 80, 24
	}

	m := &Model{
		config:     cfg,
		ctrl:       countdown.NewController(deps.Clock, deps.Alarm, countdown.WithLogf(deps.Logf)),
		alarm:      deps.Alarm,
		sync:       deps.Sync,
		logf:       deps.Logf,
		help:       help.New(),
		keys:       defaultKeyMap(),
		width:      deps.Width,
		height:     deps.Height,
		fullscreen: true,
	}

	target := strings.TrimSpace(cfg.Target)
	if target == "" {
		target = countdown.DefaultTarget(m.ctrl.Now())
	}
	m.input = newTargetInput(target)

	params := starfield.DefaultParams()
	if cfg.Stars > 0 {
		params.Count = cfg.Stars
	}
	if cfg.FocalLength > 0 {
		params.FocalLength = cfg.FocalLength
		params.MaxDepth = cfg.FocalLength + 250
	}
	if cfg.BaseRadius > 0 {
		params.BaseRadius = cfg.BaseRadius
	}
	if cfg.Trail > 0 {
		params.TrailAlpha = cfg.Trail
	}
	m.canvas = starfield.NewCanvas(m.width, m.fieldRows())
	pw, ph := m.canvas.PixelSize()
	m.engine = starfield.NewEngine(params, pw, ph, deps.Rand)
	m.engine.SetVisible(!cfg.HideStars)

	if cfg.ClockMode {
		if h, started := m.ctrl.ToggleClock(); started {
			m.clockStart = h
		}
	}
	return m
}

func newTargetInput(value string) textinput.Model {
	input := textinput.New()
	input.Prompt = "Target "
	input.Placeholder = "HH:MM"
	input.CharLimit = 5
	input.Width = 5
	input.SetValue(value)
	input.Cursor.SetMode(cursor.CursorBlink)
	input.Focus()
	return input
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.syncCmd()}
	if m.engine.Visible() {
		cmds = append(cmds, m.frameCmd())
	}
	if m.clockStart != 0 {
		cmds = append(cmds, clockTickCmd(m.clockStart))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeSurface()
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.MouseMsg:
		return m, m.handleMouse(msg)
	case frameMsg:
		if msg.gen != m.frameGen || !m.engine.Visible() {
			return m, nil
		}
		m.engine.Advance(msg.at)
		m.engine.Render(m.canvas)
		return m, m.frameCmd()
	case tickMsg:
		if m.ctrl.Tick(msg.handle) {
			return m, tickCmd(msg.handle)
		}
		if m.ctrl.Phase() == countdown.PhaseCompleted && !m.input.Focused() {
			return m, m.input.Focus()
		}
		return m, nil
	case clockTickMsg:
		if m.ctrl.ClockTick(msg.handle) {
			return m, clockTickCmd(msg.handle)
		}
		return m, nil
	case noticeHideMsg:
		if msg.id == m.notice.id {
			m.notice = notice{}
		}
		return m, nil
	case syncMsg:
		if msg.err != nil {
			m.logf("time sync failed: %v", msg.err)
			return m, nil
		}
		m.ctrl.SetOffset(msg.offset)
		m.logf("time sync offset %v", msg.offset)
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		return tea.Quit
	case key.Matches(msg, m.keys.Start):
		return m.start()
	case key.Matches(msg, m.keys.Clock):
		return m.toggleClock()
	case key.Matches(msg, m.keys.Stars):
		return m.toggleStars()
	case key.Matches(msg, m.keys.Fullscreen):
		return m.toggleFullscreen()
	}
	if !m.ctrl.ControlsVisible() {
		return nil
	}
	if msg.Type == tea.KeyRunes && !isTimeRunes(msg.Runes) {
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func isTimeRunes(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsDigit(r) && r != ':' {
			return false
		}
	}
	return true
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return nil
	}
	_, panelAt, readoutAt := m.layoutPanel()
	switch {
	case readoutAt.contains(msg.X, msg.Y):
		return m.toggleClock()
	case panelAt.contains(msg.X, msg.Y):
		return nil
	case msg.Y < m.fieldRows():
		return m.toggleStars()
	}
	return nil
}

func (m *Model) start() tea.Cmd {
	m.alarm.Stop()
	h, err := m.ctrl.Start(m.input.Value())
	if err != nil {
		return m.showNotice(startErrorText(err), true)
	}
	m.input.Blur()
	return tickCmd(h)
}

func startErrorText(err error) string {
	switch {
	case errors.Is(err, countdown.ErrEmptyTarget):
		return "Please enter a target time."
	case errors.Is(err, countdown.ErrInvalidTarget):
		return "Target time must look like HH:MM."
	default:
		return "Could not schedule the target time. Check your input."
	}
}

func (m *Model) toggleClock() tea.Cmd {
	h, started := m.ctrl.ToggleClock()
	if !started {
		return nil
	}
	return clockTickCmd(h)
}

func (m *Model) toggleStars() tea.Cmd {
	visible := !m.engine.Visible()
	m.engine.SetVisible(visible)
	m.frameGen++
	if !visible {
		return nil
	}
	return m.frameCmd()
}

func (m *Model) toggleFullscreen() tea.Cmd {
	m.fullscreen = !m.fullscreen
	m.resizeSurface()
	if m.fullscreen {
		return tea.EnterAltScreen
	}
	return tea.ExitAltScreen
}

// showNotice replaces the current notice and restarts its hide timer.
func (m *Model) showNotice(text string, isError bool) tea.Cmd {
	m.noticeID++
	m.notice = notice{id: m.noticeID, text: text, isError: isError}
	id := m.noticeID
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return noticeHideMsg{id: id}
	})
}

func (m *Model) shutdown() {
	m.frameGen++
	m.ctrl.Stop()
	m.alarm.Stop()
}

func (m *Model) frameCmd() tea.Cmd {
	gen := m.frameGen
	return tea.Tick(m.config.FrameInterval(), func(t time.Time) tea.Msg {
		return frameMsg{gen: gen, at: t}
	})
}

func tickCmd(h countdown.Handle) tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{handle: h}
	})
}

func clockTickCmd(h countdown.Handle) tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return clockTickMsg{handle: h}
	})
}

func (m *Model) syncCmd() tea.Cmd {
	if m.sync == nil {
		return nil
	}
	sync := m.sync
	return func() tea.Msg {
		offset, err := sync(context.Background())
		return syncMsg{offset: offset, err: err}
	}
}

// fieldRows is the number of terminal rows given to the starfield. The last
// row of the view holds the footer.
func (m *Model) fieldRows() int {
	rows := m.height
	if !m.fullscreen && rows > inlineRows {
		rows = inlineRows
	}
	rows--
	if rows < 0 {
		return 0
	}
	return rows
}

func (m *Model) resizeSurface() {
	m.canvas.Resize(m.width, m.fieldRows())
	pw, ph := m.canvas.PixelSize()
	m.engine.Resize(pw, ph)
	m.help.Width = m.width
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	rows := m.fieldRows()
	panel, panelAt, _ := m.layoutPanel()
	lines := make([]string, 0, rows+1)
	for row := 0; row < rows; row++ {
		bg := m.backgroundRow(row)
		if i := row - panelAt.y; i >= 0 && i < len(panel) {
			lines = append(lines, spliceRow(bg, m.width, panel[i], panelAt))
			continue
		}
		lines = append(lines, bg(0, m.width))
	}
	lines = append(lines, fitLine(m.renderFooter(), m.width))
	return strings.Join(lines, "\n")
}

func (m *Model) backgroundRow(row int) func(from, to int) string {
	if !m.engine.Visible() {
		return blankCells
	}
	return func(from, to int) string {
		return m.canvas.RowSegment(row, from, to)
	}
}

// layoutPanel renders the panel and positions it, centred over the field.
// The readout rectangle is in screen coordinates.
func (m *Model) layoutPanel() (lines []string, at, readout rect) {
	inner, readoutRow, readoutLines := m.panelContent()
	innerWidth := minPanelInner
	for _, line := range inner {
		if w := lipgloss.Width(line); w > innerWidth {
			innerWidth = w
		}
	}
	if limit := m.width - 2 - 2*panelPadX; innerWidth > limit && limit > 0 {
		innerWidth = limit
	}
	for i, line := range inner {
		if lipgloss.Width(line) > innerWidth {
			line = ansi.Truncate(line, innerWidth, "")
		}
		inner[i] = lipgloss.PlaceHorizontal(innerWidth, lipgloss.Center, line)
	}
	lines = strings.Split(panelStyle.Render(strings.Join(inner, "\n")), "\n")

	at.w = lipgloss.Width(lines[0])
	at.h = len(lines)
	at.x = (m.width - at.w) / 2
	at.y = (m.fieldRows() - at.h) / 2
	if at.x < 0 {
		at.x = 0
	}
	if at.y < 0 {
		at.y = 0
	}

	readoutWidth := 0
	for _, line := range inner[readoutRow : readoutRow+readoutLines] {
		if w := lipgloss.Width(strings.TrimRight(ansi.Strip(line), " ")); w > readoutWidth {
			readoutWidth = w
		}
	}
	readoutWidth -= leadingSpaces(ansi.Strip(inner[readoutRow]))
	readout = rect{
		x: at.x + 1 + panelPadX + leadingSpaces(ansi.Strip(inner[readoutRow])),
		y: at.y + 1 + readoutRow,
		w: readoutWidth,
		h: readoutLines,
	}
	return lines, at, readout
}

func leadingSpaces(s string) int {
	return len(s) - len(strings.TrimLeft(s, " "))
}

// panelContent returns the unpadded panel lines and where the readout sits.
func (m *Model) panelContent() (lines []string, readoutRow, readoutLines int) {
	lines = append(lines, titleStyle.Render("WARP TIMER"), "")

	readoutRow = len(lines)
	display := m.ctrl.Display()
	if big, ok := bigText(display); ok && m.ctrl.Enlarged() && lipgloss.Width(big[0]) <= m.width-2-2*panelPadX {
		for _, row := range big {
			lines = append(lines, bigStyle.Render(row))
		}
	} else {
		lines = append(lines, readoutStyle.Render(display))
	}
	readoutLines = len(lines) - readoutRow

	if status := m.ctrl.Status(); status != "" {
		lines = append(lines, statusStyle.Render(status))
	}
	if m.ctrl.ControlsVisible() {
		button := buttonStyle.Render("[ " + m.ctrl.ButtonLabel() + " ]")
		lines = append(lines, "", m.input.View()+"  "+button)
	}
	if m.notice.text != "" {
		style := successStyle
		if m.notice.isError {
			style = errorStyle
		}
		lines = append(lines, "", style.Render(truncateLine(m.notice.text, m.width-2-2*panelPadX)))
	}
	return lines, readoutRow, readoutLines
}

func (m *Model) renderFooter() string {
	segments := []string{m.help.View(m.keys)}
	if m.ctrl.ClockMode() {
		segments = append(segments, footerStyle.Render("clock"))
	}
	if off := m.ctrl.Offset(); off != 0 {
		segments = append(segments, footerStyle.Render(fmt.Sprintf("offset %+.1fs", off.Seconds())))
	}
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, truncateFooter(strings.Join(segments, footerStyle.Render("  ·  ")), m.width))
}

func truncateFooter(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "...")
}

type nopAlarm struct{}

func (nopAlarm) Prime() error { return nil }
func (nopAlarm) Play() error  { return nil }
func (nopAlarm) Stop()        {}
