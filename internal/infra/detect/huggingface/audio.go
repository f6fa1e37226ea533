package huggingface

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	domain "github.com/bryanwahyu/mediaverify/internal/domain/analysis"
	"github.com/bryanwahyu/mediaverify/internal/infra/detect"
)

var oggSignature = []byte("OggS")

// AudioClient is the fallback audio detector. Expected labels:
// spoof (FAKE) / bonafide (REAL). Ogg input is transcoded to WAV first;
// when transcoding fails the original bytes are sent as a best effort.
type AudioClient struct {
	http       *http.Client
	cfg        Config
	url        string
	transcoder domain.AudioTranscoder
}

func NewAudioClient(token string, timeout time.Duration, transcoder domain.AudioTranscoder) *AudioClient {
	return NewAudioClientWithConfig(Config{Token: token, Timeout: timeout, MaxRetries: maxRetries}, transcoder)
}

func NewAudioClientWithConfig(cfg Config, transcoder domain.AudioTranscoder) *AudioClient {
	cfg = cfg.withDefaults()
	return &AudioClient{
		http:       detect.NewHTTPClient(cfg.Timeout),
		cfg:        cfg,
		url:        audioModelURL,
		transcoder: transcoder,
	}
}

// SetURL points the client at a test server.
func (c *AudioClient) SetURL(url string) { c.url = url }

func (c *AudioClient) Analyze(ctx context.Context, data []byte) (*domain.Result, error) {
	payload := data
	if bytes.HasPrefix(data, oggSignature) && c.transcoder != nil {
		wav, err := c.transcoder.ToWAV(ctx, data)
		if err != nil {
			log.Printf("hf audio: ogg to wav conversion failed, sending raw data: %v", err)
		} else {
			payload = wav
		}
	}

	body, err := detect.WithRetry(ctx, c.cfg.MaxRetries, c.cfg.ColdStartDelay,
		func(ctx context.Context) ([]byte, error) {
			return post(ctx, c.http, c.url, c.cfg.Token, payload)
		},
		isColdStart,
	)
	if err != nil {
		if detect.IsTimeout(err) {
			return domain.Uncertain("HuggingFace Audio: request timed out.", domain.ModelHFAudio, domain.MediaAudio), nil
		}
		if errors.Is(err, detect.ErrColdStart) {
			return domain.Uncertain("HuggingFace Audio: model is still loading, try again later.", domain.ModelHFAudio, domain.MediaAudio), nil
		}
		return nil, err
	}

	best, ok := bestPrediction(body)
	if !ok {
		return domain.Uncertain("HuggingFace Audio: unexpected response format.", domain.ModelHFAudio, domain.MediaAudio), nil
	}

	label := strings.ToLower(best.Label)
	verdict := domain.VerdictUncertain
	if best.Score > labelThreshold {
		switch label {
		case "spoof":
			verdict = domain.VerdictFake
		case "bonafide":
			verdict = domain.VerdictReal
		}
	}

	return &domain.Result{
		Verdict:     verdict,
		Confidence:  domain.Round4(best.Score),
		Model:       domain.ModelHFAudio,
		Explanation: fmt.Sprintf("HuggingFace Audio: %s at %d%% confidence", label, int(math.Round(best.Score*100))),
		MediaType:   domain.MediaAudio,
	}, nil
}
