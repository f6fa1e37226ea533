package analyze

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/mediaverify/internal/domain/analysis"
)

type stubProber struct {
	duration float64
	err      error
}

func (s *stubProber) Duration(ctx context.Context, data []byte) (float64, error) {
	return s.duration, s.err
}

type stubSampler struct {
	frames [][]byte
	err    error
	calls  int
}

func (s *stubSampler) SampleFrames(ctx context.Context, data []byte) ([][]byte, error) {
	s.calls++
	return s.frames, s.err
}

// scoreDetector returns a per-frame confidence keyed by the frame bytes.
type scoreDetector struct {
	mu     sync.Mutex
	scores map[string]float64
	errs   map[string]error
	calls  int
}

func (d *scoreDetector) Analyze(ctx context.Context, frame []byte) (*domain.Result, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	if err, ok := d.errs[string(frame)]; ok {
		return nil, err
	}
	return &domain.Result{
		Verdict:    domain.VerdictUncertain,
		Confidence: d.scores[string(frame)],
		Model:      domain.ModelSightengine,
		MediaType:  domain.MediaImage,
	}, nil
}

func frames(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte(fmt.Sprintf("frame-%d", i))
	}
	return out
}

func scoresFor(fs [][]byte, scores []float64) map[string]float64 {
	m := make(map[string]float64, len(fs))
	for i, f := range fs {
		m[string(f)] = scores[i]
	}
	return m
}

func TestVideoTooLarge(t *testing.T) {
	p := &VideoPipeline{}
	data := make([]byte, maxVideoBytes+1)

	_, err := p.Analyze(context.Background(), data)

	var tooLarge *domain.FileTooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, int64(maxVideoBytes+1), tooLarge.SizeBytes)
}

func TestVideoTooLong(t *testing.T) {
	p := &VideoPipeline{Prober: &stubProber{duration: 61}}

	_, err := p.Analyze(context.Background(), []byte("video"))

	var tooLong *domain.VideoTooLongError
	require.True(t, errors.As(err, &tooLong))
	assert.Equal(t, 61.0, tooLong.DurationSec)
	assert.Equal(t, 60.0, tooLong.MaxSec)
}

func TestVideoProbeErrorAssumesZeroDuration(t *testing.T) {
	fs := frames(1)
	det := &scoreDetector{scores: scoresFor(fs, []float64{0.1})}
	p := &VideoPipeline{
		Prober:  &stubProber{err: errors.New("ffprobe missing")},
		Sampler: &stubSampler{frames: fs},
		Primary: det,
	}

	res, err := p.Analyze(context.Background(), []byte("video"))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictReal, res.Verdict)
}

func TestVideoNoFramesIsUncertain(t *testing.T) {
	det := &scoreDetector{}
	p := &VideoPipeline{
		Prober:  &stubProber{duration: 10},
		Sampler: &stubSampler{frames: nil},
		Primary: det,
	}

	res, err := p.Analyze(context.Background(), []byte("video"))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictUncertain, res.Verdict)
	assert.Equal(t, "Could not extract frames from the video.", res.Explanation)
	assert.Equal(t, 0, det.calls)
}

func TestVideoSamplerErrorIsUncertain(t *testing.T) {
	det := &scoreDetector{}
	p := &VideoPipeline{
		Prober:  &stubProber{duration: 10},
		Sampler: &stubSampler{err: errors.New("broken container")},
		Primary: det,
	}

	res, err := p.Analyze(context.Background(), []byte("video"))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictUncertain, res.Verdict)
	assert.Equal(t, 0, det.calls)
}

func TestVideoFakeRatioVerdict(t *testing.T) {
	// 2 of 5 frames above the fake band: ratio 0.40 hits the FAKE cut.
	fs := frames(5)
	det := &scoreDetector{scores: scoresFor(fs, []float64{0.9, 0.8, 0.2, 0.1, 0.3})}
	p := &VideoPipeline{
		Prober:  &stubProber{duration: 5},
		Sampler: &stubSampler{frames: fs},
		Primary: det,
	}

	res, err := p.Analyze(context.Background(), []byte("video"))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictFake, res.Verdict)
	assert.InDelta(t, 0.85, res.Confidence, 1e-9)
	assert.Equal(t, domain.ModelSightengineVideo, res.Model)
	assert.Contains(t, res.Explanation, "5 frames checked")
	assert.Contains(t, res.Explanation, "Suspicious: 2, authentic: 3")
	assert.Equal(t, 5, det.calls)
}

func TestVideoRealVerdict(t *testing.T) {
	fs := frames(4)
	det := &scoreDetector{scores: scoresFor(fs, []float64{0.1, 0.2, 0.05, 0.3})}
	p := &VideoPipeline{
		Prober:  &stubProber{duration: 4},
		Sampler: &stubSampler{frames: fs},
		Primary: det,
	}

	res, err := p.Analyze(context.Background(), []byte("video"))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictReal, res.Verdict)
	// 1 - mean(0.1, 0.2, 0.05, 0.3)
	assert.InDelta(t, 0.8375, res.Confidence, 1e-9)
}

func TestVideoUncertainVerdict(t *testing.T) {
	// 1 of 4 fake-banded: ratio 0.25 sits between the REAL and FAKE cuts.
	fs := frames(4)
	det := &scoreDetector{scores: scoresFor(fs, []float64{0.9, 0.5, 0.6, 0.4})}
	p := &VideoPipeline{
		Prober:  &stubProber{duration: 4},
		Sampler: &stubSampler{frames: fs},
		Primary: det,
	}

	res, err := p.Analyze(context.Background(), []byte("video"))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictUncertain, res.Verdict)
	assert.Equal(t, 0.5, res.Confidence)
}

func TestVideoProbeFailureCommitsBatchToFallback(t *testing.T) {
	fs := frames(3)
	primary := &scoreDetector{errs: map[string]error{
		string(fs[0]): &domain.ExternalServiceError{Service: "sightengine", Reason: domain.ReasonRateLimit},
	}}
	fallback := &scoreDetector{scores: scoresFor(fs, []float64{0.9, 0.8, 0.85})}
	p := &VideoPipeline{
		Prober:   &stubProber{duration: 3},
		Sampler:  &stubSampler{frames: fs},
		Primary:  primary,
		Fallback: fallback,
	}

	res, err := p.Analyze(context.Background(), []byte("video"))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictFake, res.Verdict)
	assert.Contains(t, res.Explanation, "Fallback image provider was used for all frames.")
	// Only the failed probe hit the primary; all frames went to the fallback.
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 3, fallback.calls)
}

func TestVideoPerFrameProviderErrorsAreSwallowed(t *testing.T) {
	fs := frames(4)
	det := &scoreDetector{
		scores: scoresFor(fs, []float64{0.1, 0.2, 0, 0.15}),
		errs: map[string]error{
			string(fs[2]): &domain.ExternalServiceError{Service: "sightengine", Reason: domain.ReasonServerError},
		},
	}
	p := &VideoPipeline{
		Prober:  &stubProber{duration: 4},
		Sampler: &stubSampler{frames: fs},
		Primary: det,
	}

	res, err := p.Analyze(context.Background(), []byte("video"))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictReal, res.Verdict)
	assert.Contains(t, res.Explanation, "3 frames checked")
}

func TestVideoUnexpectedFrameErrorPropagates(t *testing.T) {
	boom := errors.New("context cancelled mid flight")
	fs := frames(3)
	det := &scoreDetector{
		scores: scoresFor(fs, []float64{0.1, 0, 0.2}),
		errs:   map[string]error{string(fs[1]): boom},
	}
	p := &VideoPipeline{
		Prober:  &stubProber{duration: 3},
		Sampler: &stubSampler{frames: fs},
		Primary: det,
	}

	_, err := p.Analyze(context.Background(), []byte("video"))

	assert.ErrorIs(t, err, boom)
}

func TestVideoProbeUnexpectedErrorPropagates(t *testing.T) {
	boom := errors.New("io failure")
	fs := frames(2)
	primary := &scoreDetector{errs: map[string]error{string(fs[0]): boom}}
	p := &VideoPipeline{
		Prober:   &stubProber{duration: 2},
		Sampler:  &stubSampler{frames: fs},
		Primary:  primary,
		Fallback: &scoreDetector{},
	}

	_, err := p.Analyze(context.Background(), []byte("video"))

	assert.ErrorIs(t, err, boom)
}

func TestAggregateAllFramesFailedIsUncertain(t *testing.T) {
	fs := frames(2)
	det := &scoreDetector{errs: map[string]error{
		string(fs[0]): &domain.ExternalServiceError{Service: "sightengine", Reason: domain.ReasonServerError},
		string(fs[1]): &domain.ExternalServiceError{Service: "sightengine", Reason: domain.ReasonServerError},
	}}
	p := &VideoPipeline{
		Prober:   &stubProber{duration: 2},
		Sampler:  &stubSampler{frames: fs},
		Primary:  det,
		Fallback: det,
	}

	res, err := p.Analyze(context.Background(), []byte("video"))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictUncertain, res.Verdict)
	assert.Equal(t, "Could not analyze any video frames.", res.Explanation)
}
