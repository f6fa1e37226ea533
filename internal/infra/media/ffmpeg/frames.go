package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// JPEG start-of-image / end-of-image markers used to split the
// concatenated mjpeg stream ffmpeg writes to stdout.
var (
	jpegSOI = []byte{0xff, 0xd8}
	jpegEOI = []byte{0xff, 0xd9}
)

// FrameSampler extracts still frames from a video at a fixed rate.
type FrameSampler struct {
	Binary string
	// FPS is the sampling rate in frames per second. Zero means 1.
	FPS int
}

func NewFrameSampler(fps int) *FrameSampler {
	return &FrameSampler{Binary: "ffmpeg", FPS: fps}
}

// SampleFrames decodes the video and returns one JPEG blob per sampled
// frame. A video that yields no frames produces an empty slice, not an
// error.
func (s *FrameSampler) SampleFrames(ctx context.Context, video []byte) ([][]byte, error) {
	bin := s.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	fps := s.FPS
	if fps <= 0 {
		fps = 1
	}

	cmd := exec.CommandContext(ctx, bin,
		"-i", "pipe:0",
		"-vf", fmt.Sprintf("fps=%d", fps),
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(video)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame sampling: %v, stderr=%s", err, stderr.String())
	}

	return splitJPEGStream(stdout.Bytes()), nil
}

// splitJPEGStream scans the concatenated image stream for SOI/EOI marker
// pairs and cuts it into discrete frames. Trailing garbage after the last
// complete frame is dropped.
func splitJPEGStream(stream []byte) [][]byte {
	var frames [][]byte
	start := 0
	for {
		s := bytes.Index(stream[start:], jpegSOI)
		if s == -1 {
			break
		}
		s += start
		e := bytes.Index(stream[s:], jpegEOI)
		if e == -1 {
			break
		}
		e += s
		frames = append(frames, stream[s:e+2])
		start = e + 2
	}
	return frames
}
