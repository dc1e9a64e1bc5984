package starfield

import (
	"math/rand"
	"time"
)

// Surface is the drawing target the engine renders onto.
type Surface interface {
	Fade(alpha float64)
	FillCircle(x, y, radius, alpha float64)
}

// Engine owns the star pool and advances it frame by frame.
type Engine struct {
	params  Params
	rnd     *rand.Rand
	stars   []Star
	width   float64
	height  float64
	visible bool

	lastFrame time.Time
}

// NewEngine allocates the pool for a viewport of width x height sub-pixels.
// A nil rnd is replaced by one seeded with the current time.
func NewEngine(params Params, width, height int, rnd *rand.Rand) *Engine {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if params.Count < 0 {
		params.Count = 0
	}
	e := &Engine{
		params:  params,
		rnd:     rnd,
		stars:   make([]Star, params.Count),
		width:   float64(width),
		height:  float64(height),
		visible: true,
	}
	for i := range e.stars {
		// Spread across the whole tunnel so the first frame is populated.
		e.stars[i].spawn(e.rnd, e.params, e.width, e.height, e.params.NearPlane)
		e.stars[i].project(e.params, e.width, e.height)
	}
	return e
}

// Params returns the tuning the engine was built with.
func (e *Engine) Params() Params {
	return e.params
}

// Size returns the viewport in sub-pixels.
func (e *Engine) Size() (width, height int) {
	return int(e.width), int(e.height)
}

// Stars returns a copy of the current pool.
func (e *Engine) Stars() []Star {
	out := make([]Star, len(e.stars))
	copy(out, e.stars)
	return out
}

// Visible reports whether the frame loop should run.
func (e *Engine) Visible() bool {
	return e.visible
}

// SetVisible toggles the animation. Turning it back on drops the delta
// baseline so the next frame does not catch up on the hidden interval.
func (e *Engine) SetVisible(visible bool) {
	if visible && !e.visible {
		e.lastFrame = time.Time{}
	}
	e.visible = visible
}

// Advance moves every star by the time elapsed since the previous call.
func (e *Engine) Advance(now time.Time) {
	var delta time.Duration
	if !e.lastFrame.IsZero() {
		delta = now.Sub(e.lastFrame)
		if delta < 0 {
			delta = 0
		}
	}
	e.lastFrame = now
	e.step(delta)
}

func (e *Engine) step(delta time.Duration) {
	frames := 0.0
	if e.params.ReferenceFrame > 0 {
		frames = float64(delta) / float64(e.params.ReferenceFrame)
	}
	for i := range e.stars {
		s := &e.stars[i]
		s.Depth -= s.Speed * frames
		if s.Depth > e.params.NearPlane {
			s.project(e.params, e.width, e.height)
		}
		if s.Depth <= e.params.NearPlane || s.offscreen(e.width, e.height) {
			e.respawn(s)
		}
	}
}

func (e *Engine) respawn(s *Star) {
	far := e.params.MaxDepth / 2
	if far < e.params.NearPlane {
		far = e.params.NearPlane
	}
	for attempt := 0; attempt < maxSpawnAttempts; attempt++ {
		s.spawn(e.rnd, e.params, e.width, e.height, far)
		s.project(e.params, e.width, e.height)
		if !s.offscreen(e.width, e.height) {
			return
		}
	}
}

// Resize re-projects the pool against new viewport dimensions. Depths are kept.
func (e *Engine) Resize(width, height int) {
	e.width = float64(width)
	e.height = float64(height)
	for i := range e.stars {
		e.stars[i].project(e.params, e.width, e.height)
	}
}

// Render paints a translucent black overlay for motion trails, then every star.
func (e *Engine) Render(surface Surface) {
	surface.Fade(e.params.TrailAlpha)
	for i := range e.stars {
		s := &e.stars[i]
		surface.FillCircle(s.ScreenX, s.ScreenY, s.Radius, s.Opacity)
	}
}
