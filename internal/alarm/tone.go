package alarm

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
)

// One alarm cycle: two rising beeps followed by a pause.
const (
	lowFreq       = 880.0
	highFreq      = 1318.51
	beepDuration  = 150 * time.Millisecond
	beepGap       = 90 * time.Millisecond
	cyclePause    = 420 * time.Millisecond
	beepAttack    = 8 * time.Millisecond
	beepRelease   = 40 * time.Millisecond
	defaultRepeat = 4
)

// CycleDuration is the length of one alarm cycle.
const CycleDuration = 2*beepDuration + beepGap + cyclePause

// Pattern builds the synthesized alarm: repeat cycles of two sine beeps.
func Pattern(rate beep.SampleRate, repeat int, volume float64) (beep.Streamer, error) {
	if repeat <= 0 {
		repeat = defaultRepeat
	}
	parts := make([]beep.Streamer, 0, repeat*4)
	for i := 0; i < repeat; i++ {
		low, err := note(rate, lowFreq)
		if err != nil {
			return nil, err
		}
		high, err := note(rate, highFreq)
		if err != nil {
			return nil, err
		}
		parts = append(parts,
			low,
			beep.Silence(rate.N(beepGap)),
			high,
			beep.Silence(rate.N(cyclePause)),
		)
	}
	return newVolume(beep.Seq(parts...), volume), nil
}

func note(rate beep.SampleRate, freq float64) (beep.Streamer, error) {
	tone, err := generators.SineTone(rate, freq)
	if err != nil {
		return nil, err
	}
	return newEnvelope(beep.Take(rate.N(beepDuration), tone), beepDuration, beepAttack, beepRelease, rate), nil
}

// envelope applies a linear attack and release to avoid clicks.
type envelope struct {
	streamer       beep.Streamer
	position       int
	attackSamples  int
	releaseSamples int
	totalSamples   int
}

func newEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		streamer:       s,
		attackSamples:  rate.N(attack),
		releaseSamples: rate.N(release),
		totalSamples:   rate.N(duration),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	releaseStart := e.totalSamples - e.releaseSamples
	for i := 0; i < n; i++ {
		vol := 1.0
		if e.attackSamples > 0 && e.position < e.attackSamples {
			vol = float64(e.position) / float64(e.attackSamples)
		}
		if e.releaseSamples > 0 && e.position >= releaseStart {
			vol = math.Max(0, float64(e.totalSamples-e.position)/float64(e.releaseSamples))
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// newVolume maps a linear gain onto effects.Volume. Zero or less is silent,
// since log2(0) is -Inf.
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}
