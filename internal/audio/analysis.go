package audio

import "math"

// clipThreshold marks samples at or above 99% of full scale as clipped.
const clipThreshold = 0.99

// Stats summarizes the level profile of a mixed track.
type Stats struct {
	Samples    int
	Duration   float64
	Peak       float64 // fraction of full scale
	PeakDB     float64
	RMS        float64
	RMSDB      float64
	HeadroomDB float64 // dB below 0 dBFS
	ClippedPct float64 // percentage of samples at or above clipThreshold
}

// Clipping reports whether enough samples hit full scale to be audible as
// distortion.
func (s Stats) Clipping() bool {
	return s.ClippedPct > 0.1
}

// Analyze computes peak, RMS, headroom, and clipping metrics for a track.
// Silent or empty tracks report -Inf dB levels.
func Analyze(track Track) Stats {
	st := Stats{
		Samples:  len(track),
		Duration: track.Duration(),
		PeakDB:   math.Inf(-1),
		RMSDB:    math.Inf(-1),
	}
	if len(track) == 0 {
		st.HeadroomDB = math.Inf(1)
		return st
	}

	var sumSquares float64
	clipped := 0
	for _, v := range track {
		a := math.Abs(v)
		if a > st.Peak {
			st.Peak = a
		}
		if a >= clipThreshold {
			clipped++
		}
		sumSquares += v * v
	}
	st.RMS = math.Sqrt(sumSquares / float64(len(track)))
	st.ClippedPct = float64(clipped) / float64(len(track)) * 100

	if st.Peak > 0 {
		st.PeakDB = 20 * math.Log10(st.Peak)
	}
	if st.RMS > 0 {
		st.RMSDB = 20 * math.Log10(st.RMS)
	}
	st.HeadroomDB = 0 - st.PeakDB
	return st
}
