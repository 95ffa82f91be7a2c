package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// wavFormat is the export format: 16-bit stereo at SampleRate. The mono
// track is duplicated into both channels.
var wavFormat = beep.Format{
	SampleRate:  beep.SampleRate(SampleRate),
	NumChannels: 2,
	Precision:   2,
}

// trackStreamer adapts a mono track to a stereo beep.Streamer.
type trackStreamer struct {
	track Track
	pos   int
}

func (s *trackStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.pos >= len(s.track) {
		return 0, false
	}
	for n < len(samples) && s.pos < len(s.track) {
		v := s.track[s.pos]
		samples[n][0] = v
		samples[n][1] = v
		n++
		s.pos++
	}
	return n, true
}

func (s *trackStreamer) Err() error { return nil }

// EncodeWAV writes the track to w as 16-bit stereo WAV.
func EncodeWAV(w io.WriteSeeker, track Track) error {
	return wav.Encode(w, &trackStreamer{track: track}, wavFormat)
}

// WriteFile encodes the track into a WAV file at path.
func WriteFile(path string, track Track) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, track); err != nil {
		f.Close()
		return fmt.Errorf("audio: encode %s: %w", path, err)
	}
	return f.Close()
}
