package sapling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	domain "github.com/bryanwahyu/mediaverify/internal/domain/analysis"
	"github.com/bryanwahyu/mediaverify/internal/infra/detect"
)

const defaultURL = "https://api.sapling.ai/api/v1/aidetect"

const (
	// Texts outside these bounds are rejected or truncated before the call
	minTextLength = 50
	maxTextLength = 10_000

	fakeThreshold = 0.80
	realThreshold = 0.25

	// The most suspicious sentence is clipped to this many characters
	maxSentencePreview = 100
)

// Client calls the Sapling AI-writing detector. The API key goes in the
// JSON body, not a header.
type Client struct {
	http   *http.Client
	url    string
	apiKey string
}

func NewClient(apiKey string, timeout time.Duration) *Client {
	return NewClientWithOptions(apiKey, defaultURL, timeout)
}

func NewClientWithOptions(apiKey, url string, timeout time.Duration) *Client {
	return &Client{
		http:   detect.NewHTTPClient(timeout),
		url:    url,
		apiKey: apiKey,
	}
}

func (c *Client) Analyze(ctx context.Context, data []byte) (*domain.Result, error) {
	text := strings.TrimSpace(string(bytes.ToValidUTF8(data, []byte("�"))))

	if len([]rune(text)) < minTextLength {
		return &domain.Result{
			Verdict:     domain.VerdictUncertain,
			Confidence:  0.0,
			Model:       domain.ModelSapling,
			Explanation: fmt.Sprintf("Text is too short to analyze (minimum %d characters).", minTextLength),
			MediaType:   domain.MediaText,
		}, nil
	}

	truncated := false
	if runes := []rune(text); len(runes) > maxTextLength {
		text = string(runes[:maxTextLength])
		truncated = true
	}

	payload, err := json.Marshal(map[string]string{"key": c.apiKey, "text": text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if detect.IsTimeout(err) {
			return domain.Uncertain("Sapling AI: request timed out.", domain.ModelSapling, domain.MediaText), nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &domain.ExternalServiceError{Service: "sapling", Reason: domain.ReasonRateLimit}
	}
	if resp.StatusCode >= 500 {
		return nil, &domain.ExternalServiceError{Service: "sapling", Reason: domain.ReasonServerError}
	}

	var parsed struct {
		Score          *float64 `json:"score"`
		SentenceScores [][]any  `json:"sentence_scores"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.Uncertain("Sapling AI: unexpected response format.", domain.ModelSapling, domain.MediaText), nil
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

	topSentence, topScore := topSentence(parsed.SentenceScores)

	explanation := fmt.Sprintf("Sapling AI: probability of AI-written text %d%%.", int(math.Round(score*100)))
	if topSentence != "" {
		explanation += fmt.Sprintf(" Most suspicious sentence: \"%s\" (%d%%)", clip(topSentence, maxSentencePreview), int(math.Round(topScore*100)))
	}
	if truncated {
		explanation += fmt.Sprintf(" (text was truncated to %d characters)", maxTextLength)
	}

	return &domain.Result{
		Verdict:     verdict,
		Confidence:  domain.Round4(score),
		Model:       domain.ModelSapling,
		Explanation: explanation,
		MediaType:   domain.MediaText,
	}, nil
}

// topSentence scans the optional [sentence, score] pairs defensively;
// anything that is not the expected pair shape is skipped.
func topSentence(pairs [][]any) (string, float64) {
	var sentence string
	var best float64
	for _, item := range pairs {
		if len(item) < 2 {
			continue
		}
		s, ok := item[0].(string)
		if !ok {
			continue
		}
		v, ok := item[1].(float64)
		if !ok || v <= best {
			continue
		}
		sentence, best = s, v
	}
	return sentence, best
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
