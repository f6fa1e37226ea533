package analysis

import "context"

// Detector port (interface for provider adapters). Every implementation
// returns a Result or a typed error, never both nil; a network timeout is
// absorbed into an UNCERTAIN Result instead of an error.
type Detector interface {
	Analyze(ctx context.Context, data []byte) (*Result, error)
}

// DurationProber port (interface for the media duration collaborator)
type DurationProber interface {
	Duration(ctx context.Context, video []byte) (float64, error)
}

// FrameSampler port (interface for the frame extraction collaborator).
// Returns an empty slice, not an error, when the video yields no frames.
type FrameSampler interface {
	SampleFrames(ctx context.Context, video []byte) ([][]byte, error)
}

// AudioTranscoder port (interface for compressed-audio to WAV conversion)
type AudioTranscoder interface {
	ToWAV(ctx context.Context, audio []byte) ([]byte, error)
}
