// Package ffmpeg wraps the external ffmpeg/ffprobe binaries used for
// duration probing, audio transcoding and video frame sampling. All
// invocations stream bytes over stdin/stdout; nothing touches disk.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
)

// Prober reads media duration via ffprobe.
type Prober struct {
	// Binary overrides the ffprobe executable name, mainly for tests.
	Binary string
}

func NewProber() *Prober { return &Prober{Binary: "ffprobe"} }

// Duration returns the stream duration in seconds. An unparsable probe is
// reported as 0 with a warning, matching the lenient behavior the callers
// expect from this collaborator.
func (p *Prober) Duration(ctx context.Context, video []byte) (float64, error) {
	bin := p.Binary
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		"-i", "pipe:0",
	)
	cmd.Stdin = bytes.NewReader(video)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe: %v, stderr=%s", err, stderr.String())
	}

	out := strings.TrimSpace(stdout.String())
	d, err := strconv.ParseFloat(out, 64)
	if err != nil {
		log.Printf("ffprobe: could not parse duration %q, assuming 0", out)
		return 0, nil
	}
	return d, nil
}
