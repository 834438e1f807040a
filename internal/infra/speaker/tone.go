package speaker

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/faiface/beep"
)

// toneAmplitude keeps the sine well below clipping.
const toneAmplitude = 0.2

// toneStreamer is a finite sine wave on both channels.
type toneStreamer struct {
	sampleRate beep.SampleRate
	freq       float64
	total      int
	pos        int
}

func newToneStreamer(sr beep.SampleRate, freq, seconds float64) *toneStreamer {
	return &toneStreamer{
		sampleRate: sr,
		freq:       freq,
		total:      int(math.Round(seconds * float64(sr))),
	}
}

func (t *toneStreamer) Stream(samples [][2]float64) (int, bool) {
	if t.pos >= t.total {
		return 0, false
	}
	n := 0
	for i := range samples {
		if t.pos >= t.total {
			break
		}
		v := toneAmplitude * math.Sin(2*math.Pi*t.freq*float64(t.pos)/float64(t.sampleRate))
		samples[i][0], samples[i][1] = v, v
		t.pos++
		n++
	}
	return n, true
}

func (t *toneStreamer) Err() error { return nil }

func (t *toneStreamer) Len() int { return t.total }

func (t *toneStreamer) Position() int { return t.pos }

func (t *toneStreamer) Seek(p int) error {
	if p < 0 || p > t.total {
		return errors.Newf("tone: seek position %d out of range [0, %d]", p, t.total)
	}
	t.pos = p
	return nil
}

func (t *toneStreamer) Close() error { return nil }
