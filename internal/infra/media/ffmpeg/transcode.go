package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Transcoder converts compressed audio (Ogg voice messages and friends)
// to PCM WAV in memory.
type Transcoder struct {
	Binary string
}

func NewTranscoder() *Transcoder { return &Transcoder{Binary: "ffmpeg"} }

func (t *Transcoder) ToWAV(ctx context.Context, audio []byte) ([]byte, error) {
	bin := t.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-i", "pipe:0",
		"-f", "wav",
		"-acodec", "pcm_s16le",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(audio)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg wav transcode: %v, stderr=%s", err, stderr.String())
	}
	return stdout.Bytes(), nil
}
