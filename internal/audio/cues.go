package audio

import "orbduel/internal/sim"

// Cue synthesis. Each generator builds a short mono buffer at unity gain;
// per-cue loudness lives in cueGains so overrides inherit the same balance.

func generateBounceSound(pitch float64) floatBuffer {
	samples := durationToSamples(0.09)
	buf := oscillator(waveSine, pitch, samples)
	buf = mixBuffers(buf, oscillator(waveTriangle, pitch*2, samples/2), 0.35)
	applyEnvelope(buf, 0.002, 0.07)
	return buf
}

func generateHitSound() floatBuffer {
	samples := durationToSamples(0.12)
	buf := oscillator(waveSine, 220, samples)
	buf = mixBuffers(buf, oscillator(waveNoise, 0, samples/2), 0.5)
	applyEnvelope(buf, 0.001, 0.09)
	return buf
}

func generateHeavyHitSound() floatBuffer {
	samples := durationToSamples(0.35)
	buf := sweep(waveSine, 140, 55, samples)
	buf = mixBuffers(buf, oscillator(waveNoise, 0, samples/2), 0.6)
	buf = mixBuffers(buf, oscillator(waveSquare, 70, samples/3), 0.25)
	applyEnvelope(buf, 0.001, 0.28)
	return buf
}

func generateHeartSound() floatBuffer {
	first := oscillator(waveSine, 660, durationToSamples(0.09))
	applyEnvelope(first, 0.005, 0.05)
	second := oscillator(waveSine, 880, durationToSamples(0.16))
	second = mixBuffers(second, oscillator(waveTriangle, 1320, durationToSamples(0.12)), 0.3)
	applyEnvelope(second, 0.005, 0.12)
	return concatBuffers(first, second)
}

func generateSawSound() floatBuffer {
	samples := durationToSamples(0.3)
	buf := sweep(waveSaw, 180, 420, samples)
	buf = mixBuffers(buf, oscillator(waveSquare, 90, samples), 0.3)
	applyEnvelope(buf, 0.01, 0.2)
	return buf
}

func generateShieldSound() floatBuffer {
	samples := durationToSamples(0.3)
	buf := oscillator(waveSine, 330, samples)
	buf = mixBuffers(buf, oscillator(waveSine, 415, samples), 0.7)
	buf = mixBuffers(buf, oscillator(waveSine, 495, samples), 0.5)
	applyEnvelope(buf, 0.04, 0.22)
	return buf
}

func generateBombSound() floatBuffer {
	samples := durationToSamples(0.5)
	buf := sweep(waveSine, 110, 35, samples)
	buf = mixBuffers(buf, oscillator(waveNoise, 0, samples), 0.8)
	applyEnvelope(buf, 0.002, 0.42)
	return buf
}

func generateMissSound() floatBuffer {
	samples := durationToSamples(0.18)
	buf := sweep(waveTriangle, 520, 240, samples)
	applyEnvelope(buf, 0.004, 0.13)
	return buf
}

func generateVictorySound() floatBuffer {
	notes := []float64{523.25, 659.25, 783.99, 1046.5}
	var buf floatBuffer
	for i, freq := range notes {
		dur := 0.14
		if i == len(notes)-1 {
			dur = 0.5
		}
		note := oscillator(waveSine, freq, durationToSamples(dur))
		note = mixBuffers(note, oscillator(waveTriangle, freq*2, durationToSamples(dur*0.8)), 0.25)
		applyEnvelope(note, 0.008, dur*0.6)
		buf = concatBuffers(buf, note)
	}
	return buf
}

// synthesizeCue builds the default sound for a cue name. Unknown cues return
// nil so callers can fall back to silence.
func synthesizeCue(cue string) floatBuffer {
	switch cue {
	case sim.CueBounce1:
		return generateBounceSound(170)
	case sim.CueBounce2:
		return generateBounceSound(210)
	case sim.CueBounce3:
		return generateBounceSound(255)
	case sim.CueHitNormal:
		return generateHitSound()
	case sim.CueHitHeavy:
		return generateHeavyHitSound()
	case sim.CuePickupHeart:
		return generateHeartSound()
	case sim.CuePickupSaw:
		return generateSawSound()
	case sim.CuePickupShield:
		return generateShieldSound()
	case sim.CuePickupBomb:
		return generateBombSound()
	case sim.CuePickupMiss:
		return generateMissSound()
	case sim.CueVictory:
		return generateVictorySound()
	}
	return nil
}

// cueGains balances the cue bank. Values apply at mix time so WAV overrides
// sit at the same loudness as the synthesized defaults.
var cueGains = map[string]float64{
	sim.CueBounce1:      0.45,
	sim.CueBounce2:      0.45,
	sim.CueBounce3:      0.45,
	sim.CueHitNormal:    0.7,
	sim.CueHitHeavy:     0.9,
	sim.CuePickupHeart:  0.6,
	sim.CuePickupSaw:    0.55,
	sim.CuePickupShield: 0.55,
	sim.CuePickupBomb:   1.0,
	sim.CuePickupMiss:   0.4,
	sim.CueVictory:      0.75,
}

// AllCues lists every cue name the bank synthesizes by default.
func AllCues() []string {
	return []string{
		sim.CueBounce1,
		sim.CueBounce2,
		sim.CueBounce3,
		sim.CueHitNormal,
		sim.CueHitHeavy,
		sim.CuePickupHeart,
		sim.CuePickupSaw,
		sim.CuePickupShield,
		sim.CuePickupBomb,
		sim.CuePickupMiss,
		sim.CueVictory,
	}
}
