package resemble

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"time"

	"fmt"

	domain "github.com/bryanwahyu/mediaverify/internal/domain/analysis"
	"github.com/bryanwahyu/mediaverify/internal/infra/detect"
)

const defaultURL = "https://detect.resemble.ai/api/v1/detect"

// Decision thresholds for the synthetic-speech score
const (
	fakeThreshold = 0.75
	realThreshold = 0.30
)

var oggSignature = []byte("OggS")

// Client calls Resemble Detect. Voice messages arrive as Ogg and the API
// wants WAV, so Ogg input goes through the transcoder first; a transcoding
// failure here is fatal for the call.
type Client struct {
	http       *http.Client
	url        string
	apiKey     string
	transcoder domain.AudioTranscoder
}

func NewClient(apiKey string, timeout time.Duration, transcoder domain.AudioTranscoder) *Client {
	return NewClientWithOptions(apiKey, defaultURL, timeout, transcoder)
}

func NewClientWithOptions(apiKey, url string, timeout time.Duration, transcoder domain.AudioTranscoder) *Client {
	return &Client{
		http:       detect.NewHTTPClient(timeout),
		url:        url,
		apiKey:     apiKey,
		transcoder: transcoder,
	}
}

func (c *Client) Analyze(ctx context.Context, data []byte) (*domain.Result, error) {
	payload := data
	if bytes.HasPrefix(data, oggSignature) {
		wav, err := c.transcoder.ToWAV(ctx, data)
		if err != nil {
			return nil, &domain.ExternalServiceError{Service: "resemble", Reason: "audio_conversion_failed"}
		}
		payload = wav
	}

	body, contentType, err := detect.MultipartFile("audio_file", "audio.wav", "audio/wav", payload, nil)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		if detect.IsTimeout(err) {
			return domain.Uncertain("Resemble Detect: request timed out.", domain.ModelResemble, domain.MediaAudio), nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &domain.ExternalServiceError{Service: "resemble", Reason: domain.ReasonRateLimit}
	}
	if resp.StatusCode >= 500 {
		return nil, &domain.ExternalServiceError{Service: "resemble", Reason: domain.ReasonServerError}
	}

	var parsed struct {
		Success bool     `json:"success"`
		Score   *float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.Uncertain("Resemble Detect: unexpected response format.", domain.ModelResemble, domain.MediaAudio), nil
	}
	if !parsed.Success {
		return nil, &domain.ExternalServiceError{Service: "resemble", Reason: "api returned success=false"}
	}

	score := 0.5
	if parsed.Score != nil {
		score = *parsed.Score
	}

	verdict := domain.VerdictUncertain
	switch {
	case score >= fakeThreshold:
		verdict = domain.VerdictFake
	case score <= realThreshold:
		verdict = domain.VerdictReal
	}

	return &domain.Result{
		Verdict:     verdict,
		Confidence:  domain.Round4(score),
		Model:       domain.ModelResemble,
		Explanation: fmt.Sprintf("Resemble Detect: synthetic speech probability %d%%", int(math.Round(score*100))),
		MediaType:   domain.MediaAudio,
	}, nil
}
