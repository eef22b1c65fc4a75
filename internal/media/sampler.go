package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"vidmind/internal/logging"
	"vidmind/internal/types"
)

// FFmpegSampler extracts frames and probes durations by shelling out to
// ffmpeg and ffprobe.
type FFmpegSampler struct {
	// FrameDir is where extracted frames are written. Each Sample call gets
	// its own subdirectory so concurrent extractions never collide.
	FrameDir string

	// Timeout bounds a single ffmpeg/ffprobe invocation.
	Timeout time.Duration

	// FFmpegPath and FFprobePath override the binaries looked up on PATH.
	FFmpegPath  string
	FFprobePath string
}

var _ types.MediaSampler = (*FFmpegSampler)(nil)

// NewFFmpegSampler builds a sampler writing frames under frameDir.
func NewFFmpegSampler(frameDir string, timeout time.Duration) *FFmpegSampler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FFmpegSampler{FrameDir: frameDir, Timeout: timeout}
}

func (s *FFmpegSampler) ffmpeg() string {
	if s.FFmpegPath != "" {
		return s.FFmpegPath
	}
	return "ffmpeg"
}

func (s *FFmpegSampler) ffprobe() string {
	if s.FFprobePath != "" {
		return s.FFprobePath
	}
	return "ffprobe"
}

// Duration returns the media duration in seconds.
func (s *FFmpegSampler) Duration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.ffprobe(),
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, types.E(types.KindIngestion, "probe_duration",
			fmt.Errorf("ffprobe failed for %s: %w", path, err))
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, types.E(types.KindIngestion, "probe_duration",
			fmt.Errorf("unparseable ffprobe output %q: %w", strings.TrimSpace(string(out)), err))
	}

	logging.MediaDebug("Probed duration of %s: %.2fs", filepath.Base(path), dur)
	return dur, nil
}

// Sample extracts frames from [start, end] at the given frames-per-second
// rate, capped at maxFrames. Frames are written as JPEGs and returned in
// timestamp order.
func (s *FFmpegSampler) Sample(ctx context.Context, path string, start, end, rate float64, maxFrames int) ([]types.Frame, error) {
	if end <= start {
		return nil, fmt.Errorf("invalid sample window [%v,%v]", start, end)
	}
	if rate <= 0 {
		rate = 1.0
	}
	if maxFrames <= 0 {
		maxFrames = 8
	}

	outDir := filepath.Join(s.FrameDir, fmt.Sprintf("seg_%d_%d", int(start*1000), int(end*1000)))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frame dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	pattern := filepath.Join(outDir, "frame_%04d.jpg")
	cmd := exec.CommandContext(ctx, s.ffmpeg(),
		"-hide_banner", "-loglevel", "error",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(end-start),
		"-i", path,
		"-vf", fmt.Sprintf("fps=%g", rate),
		"-frames:v", strconv.Itoa(maxFrames),
		"-q:v", "3",
		"-y",
		pattern,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame extraction failed for %s [%v,%v]: %w\n%s",
			filepath.Base(path), start, end, err, strings.TrimSpace(string(out)))
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "frame_") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	frames := make([]types.Frame, 0, len(names))
	for i, name := range names {
		frames = append(frames, types.Frame{
			Timestamp: start + float64(i)/rate,
			Path:      filepath.Join(outDir, name),
		})
	}

	logging.MediaDebug("Sampled %d frames from %s [%v,%v] at %g fps", len(frames), filepath.Base(path), start, end, rate)
	return frames, nil
}

// Cleanup removes all frames extracted so far.
func (s *FFmpegSampler) Cleanup() error {
	return os.RemoveAll(s.FrameDir)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
