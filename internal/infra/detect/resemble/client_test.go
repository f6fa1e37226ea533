package resemble

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

type fakeTranscoder struct {
	out   []byte
	err   error
	calls int
}

func (f *fakeTranscoder) ToWAV(ctx context.Context, data []byte) ([]byte, error) {
	f.calls++
	return f.out, f.err
}

func newTestClient(url string, tr domain.AudioTranscoder) *Client {
	return NewClientWithOptions("key", url, time.Second, tr)
}

func TestAnalyzeVerdictThresholds(t *testing.T) {
	cases := []struct {
		score   float64
		verdict domain.Verdict
	}{
		{0.75, domain.VerdictFake},
		{0.74, domain.VerdictUncertain},
		{0.30, domain.VerdictReal},
		{0.31, domain.VerdictUncertain},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Token key", r.Header.Get("Authorization"))
			require.NoError(t, r.ParseMultipartForm(1<<20))
			_, _, err := r.FormFile("audio_file")
			require.NoError(t, err)
			fmt.Fprintf(w, `{"success":true,"score":%g}`, tc.score)
		}))
		res, err := newTestClient(srv.URL, nil).Analyze(context.Background(), []byte("RIFF wav"))
		srv.Close()

		require.NoError(t, err)
		assert.Equal(t, tc.verdict, res.Verdict, "score %v", tc.score)
		assert.Equal(t, domain.ModelResemble, res.Model)
	}
}

func TestAnalyzeOggTranscodeFailureIsFatal(t *testing.T) {
	tr := &fakeTranscoder{err: errors.New("no ffmpeg")}
	_, err := newTestClient("http://unused.invalid", tr).Analyze(context.Background(), []byte("OggS voice"))

	var extErr *domain.ExternalServiceError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "resemble", extErr.Service)
	assert.Equal(t, "audio_conversion_failed", extErr.Reason)
	assert.Equal(t, 1, tr.calls)
}

func TestAnalyzeOggIsTranscodedBeforeUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"score":0.1}`))
	}))
	defer srv.Close()

	tr := &fakeTranscoder{out: []byte("RIFF converted")}
	res, err := newTestClient(srv.URL, tr).Analyze(context.Background(), []byte("OggS voice"))

	require.NoError(t, err)
	assert.Equal(t, 1, tr.calls)
	assert.Equal(t, domain.VerdictReal, res.Verdict)
}

func TestAnalyzeRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, nil).Analyze(context.Background(), []byte("wav"))

	var extErr *domain.ExternalServiceError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, domain.ReasonRateLimit, extErr.Reason)
}

func TestAnalyzeSuccessFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, nil).Analyze(context.Background(), []byte("wav"))

	var extErr *domain.ExternalServiceError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "api returned success=false", extErr.Reason)
}

func TestAnalyzeMissingScoreIsUncertain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL, nil).Analyze(context.Background(), []byte("wav"))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictUncertain, res.Verdict)
	assert.Equal(t, 0.5, res.Confidence)
}
