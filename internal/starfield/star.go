// Package starfield implements the perspective-projected hyperspace background.
package starfield

import (
	"math"
	"math/rand"
	"time"
)

// Params configures the starfield simulation.
type Params struct {
	Count          int
	FocalLength    float64
	MaxDepth       float64
	NearPlane      float64
	MinSpeed       float64
	MaxSpeed       float64
	BaseRadius     float64
	MinRadius      float64
	TrailAlpha     float64
	ReferenceFrame time.Duration
}

// DefaultParams returns the stock hyperspace tuning.
func DefaultParams() Params {
	const focal = 500.0
	return Params{
		Count:          100,
		FocalLength:    focal,
		MaxDepth:       focal + 250,
		NearPlane:      1,
		MinSpeed:       2.0,
		MaxSpeed:       3.5,
		BaseRadius:     0.25,
		MinRadius:      0.1,
		TrailAlpha:     0.1,
		ReferenceFrame: 16 * time.Millisecond,
	}
}

// Star is one recycled particle slot.
type Star struct {
	X3D   float64
	Y3D   float64
	Depth float64
	Speed float64

	ScreenX float64
	ScreenY float64
	Radius  float64
	Opacity float64
}

// maxSpawnAttempts bounds the retries spent looking for an on-screen respawn.
const maxSpawnAttempts = 8

// spawn places the star at a fresh lateral position spanning twice the
// viewport. Depth is drawn from [minDepth, MaxDepth].
func (s *Star) spawn(rnd *rand.Rand, p Params, width, height, minDepth float64) {
	s.X3D = (rnd.Float64() - 0.5) * width * 2
	s.Y3D = (rnd.Float64() - 0.5) * height * 2
	s.Depth = minDepth + rnd.Float64()*(p.MaxDepth-minDepth)
	if s.Depth <= p.NearPlane {
		s.Depth = math.Nextafter(p.NearPlane, p.MaxDepth)
	}
	s.Speed = p.MinSpeed + rnd.Float64()*(p.MaxSpeed-p.MinSpeed)
}

func (s *Star) project(p Params, width, height float64) {
	scale := p.FocalLength / s.Depth
	s.ScreenX = s.X3D*scale + width/2
	s.ScreenY = s.Y3D*scale + height/2
	s.Radius = math.Max(p.MinRadius, p.BaseRadius*scale)
	s.Opacity = clamp01(1 - s.Depth/p.MaxDepth)
}

func (s *Star) offscreen(width, height float64) bool {
	return s.ScreenX < 0 || s.ScreenX > width || s.ScreenY < 0 || s.ScreenY > height
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
