// Package model defines shared data structures.
package model

import "time"

// Config defines the settings a countdown session runs with.
type Config struct {
	Target    string
	ClockMode bool

	Stars       int
	FocalLength float64
	BaseRadius  float64
	Trail       float64
	FPS         int
	HideStars   bool

	Sync        bool
	SyncURL     string
	SyncField   string
	SyncTimeout time.Duration

	Mute   bool
	Sound  string
	Volume float64
	Repeat int
}

// FrameInterval returns the animation frame period for the configured rate.
func (c Config) FrameInterval() time.Duration {
	if c.FPS <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.FPS)
}
