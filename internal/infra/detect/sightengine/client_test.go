package sightengine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/mediaverify/internal/domain/analysis"
)

func newTestClient(url string) *Client {
	return NewClientWithOptions("user", "secret", url, time.Second)
}

func scoreServer(t *testing.T, score float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "user", r.FormValue("api_user"))
		assert.Equal(t, "secret", r.FormValue("api_secret"))
		assert.Equal(t, "genai", r.FormValue("models"))
		fmt.Fprintf(w, `{"status":"success","type":{"ai_generated":%g}}`, score)
	}))
}

func TestAnalyzeVerdictThresholds(t *testing.T) {
	cases := []struct {
		score   float64
		verdict domain.Verdict
	}{
		{0.75, domain.VerdictFake},
		{0.749999, domain.VerdictUncertain},
		{0.95, domain.VerdictFake},
		{0.35, domain.VerdictReal},
		{0.350001, domain.VerdictUncertain},
		{0.02, domain.VerdictReal},
		{0.5, domain.VerdictUncertain},
	}

	for _, tc := range cases {
		srv := scoreServer(t, tc.score)
		res, err := newTestClient(srv.URL).Analyze(context.Background(), []byte("img"))
		srv.Close()

		require.NoError(t, err)
		assert.Equal(t, tc.verdict, res.Verdict, "score %v", tc.score)
		assert.Equal(t, domain.Round4(tc.score), res.Confidence)
		assert.Equal(t, domain.ModelSightengine, res.Model)
		assert.Equal(t, domain.MediaImage, res.MediaType)
	}
}

func TestAnalyzeRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Analyze(context.Background(), []byte("img"))

	var extErr *domain.ExternalServiceError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "sightengine", extErr.Service)
	assert.Equal(t, domain.ReasonRateLimit, extErr.Reason)
}

func TestAnalyzeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Analyze(context.Background(), []byte("img"))

	var extErr *domain.ExternalServiceError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, domain.ReasonServerError, extErr.Reason)
}

func TestAnalyzeTimeoutIsUncertain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClientWithOptions("user", "secret", srv.URL, 50*time.Millisecond)
	res, err := c.Analyze(context.Background(), []byte("img"))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictUncertain, res.Verdict)
	assert.Equal(t, 0.5, res.Confidence)
}

func TestAnalyzeMalformedBodyIsUncertain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Analyze(context.Background(), []byte("img"))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictUncertain, res.Verdict)
}

func TestAnalyzeFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"failure"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Analyze(context.Background(), []byte("img"))

	var extErr *domain.ExternalServiceError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "status=failure", extErr.Reason)
}

func TestAnalyzeMissingScoreIsUncertain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","type":{}}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Analyze(context.Background(), []byte("img"))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictUncertain, res.Verdict)
	assert.Equal(t, 0.5, res.Confidence)
}
