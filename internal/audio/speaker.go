package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Player plays cues live through the system speaker during preview runs.
// Construction never touches the audio device; Start does, and a failed
// Start leaves a player that ignores every Play call.
type Player struct {
	mu      sync.Mutex
	bank    *Bank
	gain    float64
	mixer   *beep.Mixer
	muted   bool
	started bool
}

// NewPlayer wires a player to a cue bank. gain scales every cue on top of
// the per-cue balance; zero means 1.0.
func NewPlayer(bank *Bank, gain float64) *Player {
	if gain <= 0 {
		gain = 1.0
	}
	return &Player{
		bank:  bank,
		gain:  gain,
		mixer: &beep.Mixer{},
	}
}

// Start opens the speaker with a 100ms buffer and attaches the mixer.
func (p *Player) Start() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}
	sr := beep.SampleRate(SampleRate)
	if err := speaker.Init(sr, sr.N(time.Millisecond*100)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.started = true
	return nil
}

// SetMuted toggles playback without releasing the device.
func (p *Player) SetMuted(muted bool) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.muted = muted
	p.mu.Unlock()
}

// Play queues one cue. A player that never started, is muted, or has no
// sound for the cue does nothing.
func (p *Player) Play(cue string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || p.muted {
		return
	}
	buf := p.bank.sound(cue)
	if len(buf) == 0 {
		return
	}
	gain := p.gain
	if cg, ok := cueGains[cue]; ok {
		gain *= cg
	}
	p.mixer.Add(&cueStreamer{buf: buf, gain: gain})
}

// Close stops everything queued. The speaker itself stays open; beep has no
// teardown for it.
func (p *Player) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.mixer.Clear()
	p.started = false
}

// cueStreamer plays one buffer once and drains.
type cueStreamer struct {
	buf  floatBuffer
	gain float64
	pos  int
}

func (s *cueStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.pos >= len(s.buf) {
		return 0, false
	}
	for n < len(samples) && s.pos < len(s.buf) {
		v := s.buf[s.pos] * s.gain
		samples[n][0] = v
		samples[n][1] = v
		n++
		s.pos++
	}
	return n, true
}

func (s *cueStreamer) Err() error { return nil }
