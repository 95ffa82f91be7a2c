package audio

import (
	"math"
	"math/rand"
)

// SampleRate is the fixed rate for synthesis, mixdown, WAV export, and
// preview playback.
const SampleRate = 48000

// Waveform types
const (
	waveSine = iota
	waveSquare
	waveSaw
	waveTriangle
	waveNoise
)

// noiseSeed pins the noise oscillator so a cue renders the same samples on
// every run. Battles vary where cues land, never what they sound like.
const noiseSeed int64 = 0x6f7264

// floatBuffer is mono float64 samples at unity gain.
type floatBuffer []float64

// oscillator generates raw waveform samples.
func oscillator(waveType int, freq float64, samples int) floatBuffer {
	buf := make(floatBuffer, samples)
	var rng *rand.Rand
	if waveType == waveNoise {
		rng = rand.New(rand.NewSource(noiseSeed))
	}
	phase := 0.0
	phaseInc := freq / float64(SampleRate)

	for i := 0; i < samples; i++ {
		switch waveType {
		case waveSine:
			buf[i] = math.Sin(2 * math.Pi * phase)
		case waveSquare:
			if phase < 0.5 {
				buf[i] = 1.0
			} else {
				buf[i] = -1.0
			}
		case waveSaw:
			buf[i] = 2.0 * (phase - 0.5)
		case waveTriangle:
			buf[i] = 1.0 - 4.0*math.Abs(phase-0.5)
		case waveNoise:
			buf[i] = rng.Float64()*2 - 1
		}

		phase += phaseInc
		if phase >= 1.0 {
			phase -= 1.0
		}
	}
	return buf
}

// sweep generates a waveform whose frequency moves linearly from fromHz to
// toHz over the buffer.
func sweep(waveType int, fromHz, toHz float64, samples int) floatBuffer {
	buf := make(floatBuffer, samples)
	phase := 0.0
	for i := 0; i < samples; i++ {
		progress := float64(i) / float64(max(samples-1, 1))
		freq := fromHz + (toHz-fromHz)*progress
		switch waveType {
		case waveSquare:
			if phase-math.Floor(phase) < 0.5 {
				buf[i] = 1.0
			} else {
				buf[i] = -1.0
			}
		case waveSaw:
			buf[i] = 2.0 * (phase - math.Floor(phase) - 0.5)
		case waveTriangle:
			buf[i] = 1.0 - 4.0*math.Abs(phase-math.Floor(phase)-0.5)
		default:
			buf[i] = math.Sin(2 * math.Pi * phase)
		}
		phase += freq / float64(SampleRate)
	}
	return buf
}

// applyEnvelope applies a linear attack/release envelope in place.
func applyEnvelope(buf floatBuffer, attackSec, releaseSec float64) {
	total := len(buf)
	attackSamples := int(attackSec * float64(SampleRate))
	releaseSamples := int(releaseSec * float64(SampleRate))

	releaseStart := total - releaseSamples
	if releaseStart < attackSamples {
		releaseStart = attackSamples
	}

	for i := 0; i < total; i++ {
		vol := 1.0
		if i < attackSamples && attackSamples > 0 {
			vol = float64(i) / float64(attackSamples)
		} else if i >= releaseStart && releaseSamples > 0 {
			vol = float64(total-i) / float64(releaseSamples)
		}
		buf[i] *= vol
	}
}

// mixBuffers adds b into a (in place), extending a if needed.
func mixBuffers(a, b floatBuffer, bScale float64) floatBuffer {
	if len(b) > len(a) {
		extended := make(floatBuffer, len(b))
		copy(extended, a)
		a = extended
	}
	for i := range b {
		a[i] += b[i] * bScale
	}
	return a
}

// concatBuffers appends b to a.
func concatBuffers(a, b floatBuffer) floatBuffer {
	result := make(floatBuffer, len(a)+len(b))
	copy(result, a)
	copy(result[len(a):], b)
	return result
}

func scaleBuffer(buf floatBuffer, gain float64) floatBuffer {
	for i := range buf {
		buf[i] *= gain
	}
	return buf
}

// normalizeBuffer scales a buffer down when layered waveforms push its peak
// past unity. Quieter buffers are left alone.
func normalizeBuffer(buf floatBuffer) floatBuffer {
	peak := 0.0
	for _, v := range buf {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak > 1.0 {
		scaleBuffer(buf, 1.0/peak)
	}
	return buf
}

// durationToSamples converts a duration in seconds to a sample count.
func durationToSamples(d float64) int {
	return int(d * float64(SampleRate))
}
