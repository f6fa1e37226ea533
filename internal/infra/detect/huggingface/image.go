package huggingface

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	domain "github.com/bryanwahyu/mediaverify/internal/domain/analysis"
	"github.com/bryanwahyu/mediaverify/internal/infra/detect"
)

// ImageClient is the fallback image detector. Expected labels: FAKE / REAL.
type ImageClient struct {
	http *http.Client
	cfg  Config
	url  string
}

func NewImageClient(token string, timeout time.Duration) *ImageClient {
	return NewImageClientWithConfig(Config{Token: token, Timeout: timeout, MaxRetries: maxRetries})
}

func NewImageClientWithConfig(cfg Config) *ImageClient {
	cfg = cfg.withDefaults()
	return &ImageClient{
		http: detect.NewHTTPClient(cfg.Timeout),
		cfg:  cfg,
		url:  imageModelURL,
	}
}

// SetURL points the client at a test server.
func (c *ImageClient) SetURL(url string) { c.url = url }

func (c *ImageClient) Analyze(ctx context.Context, data []byte) (*domain.Result, error) {
	body, err := detect.WithRetry(ctx, c.cfg.MaxRetries, c.cfg.ColdStartDelay,
		func(ctx context.Context) ([]byte, error) {
			return post(ctx, c.http, c.url, c.cfg.Token, data)
		},
		isColdStart,
	)
	if err != nil {
		if detect.IsTimeout(err) {
			return domain.Uncertain("HuggingFace Image: request timed out.", domain.ModelHFImage, domain.MediaImage), nil
		}
		if errors.Is(err, detect.ErrColdStart) {
			return domain.Uncertain("HuggingFace Image: model is still loading, try again later.", domain.ModelHFImage, domain.MediaImage), nil
		}
		return nil, err
	}

	best, ok := bestPrediction(body)
	if !ok {
		return domain.Uncertain("HuggingFace Image: unexpected response format.", domain.ModelHFImage, domain.MediaImage), nil
	}

	label := strings.ToUpper(best.Label)
	verdict := domain.VerdictUncertain
	if best.Score > labelThreshold {
		if label == "FAKE" {
			verdict = domain.VerdictFake
		} else {
			verdict = domain.VerdictReal
		}
	}

	return &domain.Result{
		Verdict:     verdict,
		Confidence:  domain.Round4(best.Score),
		Model:       domain.ModelHFImage,
		Explanation: fmt.Sprintf("HuggingFace Image: %s at %d%% confidence", label, int(math.Round(best.Score*100))),
		MediaType:   domain.MediaImage,
	}, nil
}
