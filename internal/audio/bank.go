package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// ErrUnknownCue reports an override keyed by a cue name the engine never
// emits.
var ErrUnknownCue = errors.New("audio: unknown cue")

// Bank holds the decoded sound for every cue. Sounds start as synthesized
// defaults; WAV overrides replace individual entries.
type Bank struct {
	sounds map[string]floatBuffer
}

// NewBank synthesizes the default cue set and applies overrides, a map from
// cue name to WAV path. Override files are resampled to SampleRate and mixed
// down to mono.
func NewBank(overrides map[string]string) (*Bank, error) {
	b := &Bank{sounds: make(map[string]floatBuffer, len(AllCues()))}
	for _, cue := range AllCues() {
		b.sounds[cue] = normalizeBuffer(synthesizeCue(cue))
	}
	for cue, path := range overrides {
		if _, ok := b.sounds[cue]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCue, cue)
		}
		buf, err := loadOverride(path)
		if err != nil {
			return nil, fmt.Errorf("audio: override %q: %w", cue, err)
		}
		b.sounds[cue] = normalizeBuffer(buf)
	}
	return b, nil
}

func (b *Bank) sound(cue string) floatBuffer {
	if b == nil {
		return nil
	}
	return b.sounds[cue]
}

// Duration reports the length of a cue's sound in seconds, 0 for unknown
// cues.
func (b *Bank) Duration(cue string) float64 {
	if b == nil {
		return 0
	}
	return float64(len(b.sounds[cue])) / float64(SampleRate)
}

func loadOverride(path string) (floatBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != beep.SampleRate(SampleRate) {
		src = beep.Resample(4, format.SampleRate, beep.SampleRate(SampleRate), streamer)
	}
	buf := drainStreamer(src)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("%s: no samples", filepath.Base(path))
	}
	return buf, nil
}

// drainStreamer pulls a streamer dry, averaging channels to mono.
func drainStreamer(s beep.Streamer) floatBuffer {
	var buf floatBuffer
	chunk := make([][2]float64, 512)
	for {
		n, ok := s.Stream(chunk)
		for i := 0; i < n; i++ {
			buf = append(buf, (chunk[i][0]+chunk[i][1])/2)
		}
		if !ok {
			return buf
		}
	}
}
