// Package alarm plays the countdown completion sound through the system speaker.
package alarm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
)

const sampleRate = beep.SampleRate(44100)

// ErrUnsupportedFormat is returned for sound files other than mp3 and wav.
var ErrUnsupportedFormat = errors.New("unsupported sound format")

// Options configures a Player.
type Options struct {
	// SoundPath is an optional mp3 or wav file; empty selects the built-in tone.
	SoundPath string
	Volume    float64
	Repeat    int
}

// Player is a best-effort alarm. All methods are safe to call when no audio
// device exists; failures are returned for the caller to log.
type Player struct {
	opts Options

	mu          sync.Mutex
	initialized bool
	primed      bool
	ctrl        *beep.Ctrl
	source      beep.StreamSeekCloser
	format      beep.Format
}

// New creates a Player. The speaker is opened lazily by Prime or Play.
// A zero Volume is silent.
func New(opts Options) *Player {
	return &Player{opts: opts}
}

func (p *Player) initLocked() error {
	if p.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("failed to open speaker: %w", err)
	}
	p.initialized = true
	return nil
}

// Prime opens the speaker and pushes a silent buffer through it, then
// pauses, so the later alarm starts without device warm-up. Only the first
// call touches the device.
func (p *Player) Prime() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.initLocked(); err != nil {
		return err
	}
	if p.primed {
		return nil
	}
	p.primed = true
	ctrl := &beep.Ctrl{Streamer: beep.Silence(sampleRate.N(10 * time.Millisecond))}
	speaker.Play(ctrl)
	speaker.Lock()
	ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Play starts the alarm, replacing any alarm still sounding.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.initLocked(); err != nil {
		return err
	}
	p.stopLocked()

	stream, err := p.streamLocked()
	if err != nil {
		return err
	}
	p.ctrl = &beep.Ctrl{Streamer: stream}
	speaker.Play(p.ctrl)
	return nil
}

func (p *Player) streamLocked() (beep.Streamer, error) {
	if p.opts.SoundPath == "" {
		return Pattern(sampleRate, p.opts.Repeat, p.opts.Volume)
	}
	if p.source == nil {
		source, format, err := openSound(p.opts.SoundPath)
		if err != nil {
			return nil, err
		}
		p.source = source
		p.format = format
	}
	var s beep.Streamer = p.loopLocked()
	if p.format.SampleRate != sampleRate {
		s = beep.Resample(4, p.format.SampleRate, sampleRate, s)
	}
	return newVolume(s, p.opts.Volume), nil
}

func (p *Player) loopLocked() beep.Streamer {
	repeat := p.opts.Repeat
	if repeat <= 0 {
		repeat = 1
	}
	return beep.Loop(repeat, p.source)
}

// Stop pauses the alarm and rewinds a file source to its start.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if !p.initialized {
		return
	}
	speaker.Lock()
	if p.ctrl != nil {
		p.ctrl.Paused = true
	}
	if p.source != nil {
		_ = p.source.Seek(0)
	}
	speaker.Unlock()
	p.ctrl = nil
}

// Close stops playback and releases the sound file.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	if p.initialized {
		speaker.Clear()
	}
	if p.source == nil {
		return nil
	}
	err := p.source.Close()
	p.source = nil
	return err
}

func openSound(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to open sound: %w", err)
	}
	var (
		source beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		source, format, err = mp3.Decode(f)
	case ".wav":
		source, format, err = wav.Decode(f)
	default:
		_ = f.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, fmt.Errorf("failed to decode sound: %w", err)
	}
	return source, format, nil
}

// Nop is a silent alarm used when audio is muted.
type Nop struct{}

func (Nop) Prime() error { return nil }
func (Nop) Play() error  { return nil }
func (Nop) Stop()        {}
func (Nop) Close() error { return nil }
