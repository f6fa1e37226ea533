// Package huggingface implements the fallback image and audio adapters on
// top of the HF inference API. Both share the bearer-token raw-body POST
// and the cold-start retry policy.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/bryanwahyu/mediaverify/internal/infra/detect"
)

const (
	imageModelURL = "https://api-inference.huggingface.co/models/dima806/deepfake-vs-real-image-detection"
	audioModelURL = "https://api-inference.huggingface.co/models/mo-gg/wav2vec2-large-xlsr-deepfake-detection"

	maxRetries     = 2
	coldStartDelay = 10 * time.Second

	// Label-based verdicts need this much score to count
	labelThreshold = 0.7
)

// Config lets tests shorten the timeout and backoff.
type Config struct {
	Token          string
	Timeout        time.Duration
	ColdStartDelay time.Duration
	MaxRetries     int
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = detect.DefaultTimeout
	}
	if c.ColdStartDelay <= 0 {
		c.ColdStartDelay = coldStartDelay
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

// prediction is one entry of the label+score list the inference API returns.
type prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// post sends the raw payload once and returns the response body.
func post(ctx context.Context, client *http.Client, url, token string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// isColdStart detects the "Model ... is currently loading" error shape.
func isColdStart(body []byte) bool {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return false
	}
	return len(e.Error) >= 5 && e.Error[:5] == "Model"
}

// bestPrediction picks the max-score entry. ok is false when the body is
// not the expected list shape or the list is empty.
func bestPrediction(body []byte) (prediction, bool) {
	var preds []prediction
	if err := json.Unmarshal(body, &preds); err != nil || len(preds) == 0 {
		return prediction{}, false
	}
	best := preds[0]
	for _, p := range preds[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best, true
}
