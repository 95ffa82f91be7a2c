package audio

import (
	"math"

	"orbduel/internal/sim"
)

// Track is a mixed mono signal at SampleRate, values nominally in [-1, 1].
type Track []float64

// Duration reports the track length in seconds.
func (t Track) Duration() float64 {
	return float64(len(t)) / float64(SampleRate)
}

// PlacedCue schedules one cue at a presentation time on the final track.
type PlacedCue struct {
	Cue string
	At  float64
}

// PlaceCues converts drained simulation cues to track positions. timeOf maps
// a tick to its presentation time; nil keeps each cue's simulated time, which
// is correct whenever playback runs at simulation pace.
func PlaceCues(events []sim.CueEvent, timeOf func(tick uint64) float64) []PlacedCue {
	placed := make([]PlacedCue, 0, len(events))
	for _, ev := range events {
		at := ev.T
		if timeOf != nil {
			at = timeOf(ev.Tick)
		}
		placed = append(placed, PlacedCue{Cue: ev.Cue, At: at})
	}
	return placed
}

// MixOptions tunes the offline mixdown.
type MixOptions struct {
	// MasterGain scales the summed mix before limiting. Zero means 1.0.
	MasterGain float64
	// MinDuration pads the track with silence to at least this many seconds.
	MinDuration float64
	// Tail is silence kept after the last cue stops, so endings don't cut
	// off hard.
	Tail float64
}

// Mixdown sums every cue at its sample offset, applies the master gain, and
// soft-limits the result. Cues with negative times are dropped; cues past
// MinDuration extend the track.
func Mixdown(bank *Bank, cues []PlacedCue, opts MixOptions) Track {
	gain := opts.MasterGain
	if gain <= 0 {
		gain = 1.0
	}

	end := opts.MinDuration
	for _, pc := range cues {
		if pc.At < 0 {
			continue
		}
		cueEnd := pc.At + bank.Duration(pc.Cue) + opts.Tail
		if cueEnd > end {
			end = cueEnd
		}
	}

	track := make(Track, durationToSamples(end))
	for _, pc := range cues {
		if pc.At < 0 {
			continue
		}
		buf := bank.sound(pc.Cue)
		if len(buf) == 0 {
			continue
		}
		cueGain, ok := cueGains[pc.Cue]
		if !ok {
			cueGain = 1.0
		}
		offset := int(math.Round(pc.At * float64(SampleRate)))
		for i, s := range buf {
			at := offset + i
			if at >= len(track) {
				break
			}
			track[at] += s * cueGain
		}
	}

	for i, s := range track {
		track[i] = limit(s * gain)
	}
	return track
}

// limit bends values above 0.8 toward full scale instead of clipping, then
// hard-caps at 1.0. Stacked cues stay loud without wrapping.
func limit(v float64) float64 {
	if v > 0.8 {
		v = 0.8 + 0.2*(1.0-1.0/(1.0+(v-0.8)*5.0))
	} else if v < -0.8 {
		v = -0.8 - 0.2*(1.0-1.0/(1.0+(-v-0.8)*5.0))
	}
	if v > 1.0 {
		v = 1.0
	} else if v < -1.0 {
		v = -1.0
	}
	return v
}
