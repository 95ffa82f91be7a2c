package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrNoVideoBackend is returned when ffmpeg is unavailable and the PNG
// fallback directory cannot be created either.
var ErrNoVideoBackend = errors.New("export: no video backend available")

// videoSink consumes rendered frames in presentation order. Exactly one of
// Finalize or Abort ends the sink; Abort after a failed WriteFrame must
// still clean up.
type videoSink interface {
	// WriteFrame appends one frame. Repeated frames are written repeatedly.
	WriteFrame(img *image.RGBA) error
	// Finalize flushes and closes the artifact, returning its path.
	Finalize() error
	// Abort tears the sink down and removes partial output.
	Abort()
	// Path is the artifact this sink produces: a video file or a frame
	// directory.
	Path() string
}

// detectFFmpeg locates the ffmpeg binary. An explicit path wins; otherwise
// PATH is searched. Empty result means the PNG fallback should be used.
func detectFFmpeg(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		return path
	}
	return ""
}

// ffmpegSink pipes raw RGBA frames into an ffmpeg child process encoding
// H.264. The sink owns the process: Finalize closes the pipe and waits,
// Abort kills it and removes the partial file.
type ffmpegSink struct {
	path   string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *os.File
}

func newFFmpegSink(bin, path string, width, height, fps int) (*ffmpegSink, error) {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "20",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		path,
	}
	cmd := exec.Command(bin, args...)

	stderr, err := os.CreateTemp("", "orbduel-ffmpeg-*.log")
	if err == nil {
		cmd.Stderr = stderr
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("export: ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, fmt.Errorf("export: start ffmpeg: %w", err)
	}
	return &ffmpegSink{path: path, cmd: cmd, stdin: stdin, stderr: stderr}, nil
}

func (s *ffmpegSink) WriteFrame(img *image.RGBA) error {
	if _, err := s.stdin.Write(img.Pix); err != nil {
		return fmt.Errorf("export: write frame: %w", err)
	}
	return nil
}

func (s *ffmpegSink) Finalize() error {
	s.stdin.Close()
	err := s.cmd.Wait()
	s.dropStderr(err == nil)
	if err != nil {
		os.Remove(s.path)
		return fmt.Errorf("export: ffmpeg: %w", err)
	}
	return nil
}

func (s *ffmpegSink) Abort() {
	s.stdin.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd.Wait()
	s.dropStderr(true)
	os.Remove(s.path)
}

func (s *ffmpegSink) dropStderr(remove bool) {
	if s.stderr == nil {
		return
	}
	s.stderr.Close()
	if remove {
		os.Remove(s.stderr.Name())
	}
	s.stderr = nil
}

func (s *ffmpegSink) Path() string { return s.path }

// muxAudio remuxes the encoded video with the mixed WAV into out. The video
// stream is copied; audio is encoded to AAC so the container plays anywhere.
func muxAudio(bin, video, wavPath, out string) error {
	cmd := exec.Command(bin,
		"-y",
		"-i", video,
		"-i", wavPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		out,
	)
	if err := cmd.Run(); err != nil {
		os.Remove(out)
		return fmt.Errorf("export: mux audio: %w", err)
	}
	return nil
}

// pngSink writes the frame sequence into a directory, one zero-padded PNG
// per presentation frame. It is the fallback when ffmpeg is missing, and
// what tests exercise.
type pngSink struct {
	dir   string
	index int
}

func newPNGSink(dir string) (*pngSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoVideoBackend, err)
	}
	return &pngSink{dir: dir}, nil
}

func (s *pngSink) WriteFrame(img *image.RGBA) error {
	s.index++
	path := filepath.Join(s.dir, fmt.Sprintf("frame_%06d.png", s.index))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: frame %d: %w", s.index, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("export: encode frame %d: %w", s.index, err)
	}
	return f.Close()
}

func (s *pngSink) Finalize() error { return nil }

func (s *pngSink) Abort() {
	os.RemoveAll(s.dir)
}

func (s *pngSink) Path() string { return s.dir }
