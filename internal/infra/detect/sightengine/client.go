package sightengine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	domain "github.com/bryanwahyu/mediaverify/internal/domain/analysis"
	"github.com/bryanwahyu/mediaverify/internal/infra/detect"
)

const defaultURL = "https://api.sightengine.com/1.0/check.json"

// Decision thresholds for the genai model score
const (
	fakeThreshold = 0.75
	realThreshold = 0.35
)

// Client calls the SightEngine genai model. Credentials travel as form
// fields, not headers.
type Client struct {
	http      *http.Client
	url       string
	apiUser   string
	apiSecret string
}

func NewClient(apiUser, apiSecret string, timeout time.Duration) *Client {
	return NewClientWithOptions(apiUser, apiSecret, defaultURL, timeout)
}

// NewClientWithOptions is used by tests to point at a fake server with a
// short timeout.
func NewClientWithOptions(apiUser, apiSecret, url string, timeout time.Duration) *Client {
	return &Client{
		http:      detect.NewHTTPClient(timeout),
		url:       url,
		apiUser:   apiUser,
		apiSecret: apiSecret,
	}
}

func (c *Client) Analyze(ctx context.Context, data []byte) (*domain.Result, error) {
	body, contentType, err := detect.MultipartFile("media", "image.jpg", "image/jpeg", data, map[string]string{
		"api_user":   c.apiUser,
		"api_secret": c.apiSecret,
		"models":     "genai",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		if detect.IsTimeout(err) {
			return domain.Uncertain("SightEngine: request timed out, result is inconclusive.", domain.ModelSightengine, domain.MediaImage), nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &domain.ExternalServiceError{Service: "sightengine", Reason: domain.ReasonRateLimit}
	}
	if resp.StatusCode >= 500 {
		return nil, &domain.ExternalServiceError{Service: "sightengine", Reason: domain.ReasonServerError}
	}

	var payload struct {
		Status string `json:"status"`
		Type   struct {
			AIGenerated *float64 `json:"ai_generated"`
		} `json:"type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Uncertain("SightEngine: unexpected response format.", domain.ModelSightengine, domain.MediaImage), nil
	}
	if payload.Status != "success" {
		return nil, &domain.ExternalServiceError{Service: "sightengine", Reason: fmt.Sprintf("status=%s", payload.Status)}
	}

	score := 0.5
	if payload.Type.AIGenerated != nil {
		score = *payload.Type.AIGenerated
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
		Model:       domain.ModelSightengine,
		Explanation: fmt.Sprintf("SightEngine: AI-generation probability %d%%", int(math.Round(score*100))),
		MediaType:   domain.MediaImage,
	}, nil
}
