package analyze

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	domain "github.com/bryanwahyu/mediaverify/internal/domain/analysis"
)

const (
	maxVideoBytes      = 50 * 1024 * 1024
	defaultMaxDuration = 60.0
	frameConcurrency   = 5

	// Per-frame score bands and the ratio thresholds for the batch verdict
	frameFakeScore = 0.75
	frameRealScore = 0.35
	fakeRatioFake  = 0.40
	fakeRatioReal  = 0.10
)

// VideoPipeline decomposes a video into sampled frames, fans the frames
// out across the image provider under a concurrency cap and folds the
// per-frame scores into one verdict.
//
// Provider selection is batch-level: the first frame is probed on the
// primary provider, and a typed provider error on that probe commits the
// whole batch to the fallback provider. Frames are never split between
// providers inside one batch.
type VideoPipeline struct {
	Prober   domain.DurationProber
	Sampler  domain.FrameSampler
	Primary  domain.Detector
	Fallback domain.Detector

	// MaxDurationSec caps the probed duration; zero means 60s.
	MaxDurationSec float64
	// Concurrency caps in-flight frame requests; zero means 5.
	Concurrency int
}

func (p *VideoPipeline) Analyze(ctx context.Context, data []byte) (*domain.Result, error) {
	if int64(len(data)) > maxVideoBytes {
		return nil, &domain.FileTooLargeError{SizeBytes: int64(len(data)), MaxBytes: maxVideoBytes}
	}

	maxDur := p.MaxDurationSec
	if maxDur <= 0 {
		maxDur = defaultMaxDuration
	}
	duration, err := p.Prober.Duration(ctx, data)
	if err != nil {
		log.Printf("video pipeline: duration probe failed, assuming 0: %v", err)
		duration = 0
	}
	if duration > maxDur {
		return nil, &domain.VideoTooLongError{DurationSec: duration, MaxSec: maxDur}
	}

	frames, err := p.Sampler.SampleFrames(ctx, data)
	if err != nil {
		log.Printf("video pipeline: frame extraction failed: %v", err)
		return domain.Uncertain("Could not extract frames from the video.", domain.ModelSightengineVideo, domain.MediaVideo), nil
	}
	if len(frames) == 0 {
		return domain.Uncertain("Could not extract frames from the video.", domain.ModelSightengineVideo, domain.MediaVideo), nil
	}

	scores, usedFallback, err := p.scoreFrames(ctx, frames)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return domain.Uncertain("Could not analyze any video frames.", domain.ModelSightengineVideo, domain.MediaVideo), nil
	}

	return aggregate(scores, usedFallback), nil
}

// scoreFrames probes the first frame to pick the provider for the batch,
// then fans out the rest bounded by the concurrency cap. A typed provider
// error on an individual frame is swallowed; the frame simply contributes
// no score.
func (p *VideoPipeline) scoreFrames(ctx context.Context, frames [][]byte) ([]float64, bool, error) {
	detector := p.Primary
	usedFallback := false
	pending := frames
	collected := make([]float64, 0, len(frames))

	probe, err := detector.Analyze(ctx, frames[0])
	switch {
	case err == nil:
		collected = append(collected, probe.Confidence)
		pending = frames[1:]
	default:
		var extErr *domain.ExternalServiceError
		if !errors.As(err, &extErr) {
			return nil, false, err
		}
		// Primary is rate-limited or down: commit the whole batch,
		// probe frame included, to the fallback provider.
		detector = p.Fallback
		usedFallback = true
	}

	limit := p.Concurrency
	if limit <= 0 {
		limit = frameConcurrency
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, frame := range pending {
		frame := frame
		g.Go(func() error {
			res, err := detector.Analyze(gctx, frame)
			if err != nil {
				var extErr *domain.ExternalServiceError
				if errors.As(err, &extErr) {
					return nil
				}
				return err
			}
			mu.Lock()
			collected = append(collected, res.Confidence)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, usedFallback, err
	}
	return collected, usedFallback, nil
}

// aggregate applies the fake-frame-ratio rule. FAKE confidence is the mean
// fakeness of the fake-banded frames; REAL confidence inverts the mean of
// the real-banded frames; UNCERTAIN sits at 0.5.
func aggregate(scores []float64, usedFallback bool) *domain.Result {
	var fakeScores, realScores []float64
	for _, s := range scores {
		if s >= frameFakeScore {
			fakeScores = append(fakeScores, s)
		} else if s <= frameRealScore {
			realScores = append(realScores, s)
		}
	}

	total := len(scores)
	fakeRatio := float64(len(fakeScores)) / float64(total)

	verdict := domain.VerdictUncertain
	confidence := 0.5
	switch {
	case fakeRatio >= fakeRatioFake:
		verdict = domain.VerdictFake
		if len(fakeScores) > 0 {
			confidence = mean(fakeScores)
		}
	case fakeRatio <= fakeRatioReal:
		verdict = domain.VerdictReal
		if len(realScores) > 0 {
			confidence = 1.0 - mean(realScores)
		}
	}

	explanation := fmt.Sprintf(
		"Video analysis: %d frames checked. Suspicious: %d, authentic: %d. Suspicious ratio: %d%%.",
		total, len(fakeScores), len(realScores), int(math.Round(fakeRatio*100)),
	)
	if usedFallback {
		explanation += " Fallback image provider was used for all frames."
	}

	return &domain.Result{
		Verdict:     verdict,
		Confidence:  domain.Round4(confidence),
		Model:       domain.ModelSightengineVideo,
		Explanation: explanation,
		MediaType:   domain.MediaVideo,
	}
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
