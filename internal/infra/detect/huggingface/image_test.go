package huggingface

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/mediaverify/internal/domain/analysis"
)

func newTestImageClient(url string) *ImageClient {
	c := NewImageClientWithConfig(Config{
		Token:          "tok",
		Timeout:        time.Second,
		ColdStartDelay: time.Millisecond,
		MaxRetries:     2,
	})
	c.SetURL(url)
	return c
}

func TestImageLabelMapping(t *testing.T) {
	cases := []struct {
		body    string
		verdict domain.Verdict
		conf    float64
	}{
		{`[{"label":"Fake","score":0.92},{"label":"Real","score":0.08}]`, domain.VerdictFake, 0.92},
		{`[{"label":"Real","score":0.88},{"label":"Fake","score":0.12}]`, domain.VerdictReal, 0.88},
		// Below the label threshold nothing is decisive.
		{`[{"label":"Fake","score":0.6},{"label":"Real","score":0.4}]`, domain.VerdictUncertain, 0.6},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.Write([]byte(tc.body))
		}))
		res, err := newTestImageClient(srv.URL).Analyze(context.Background(), []byte("img"))
		srv.Close()

		require.NoError(t, err)
		assert.Equal(t, tc.verdict, res.Verdict)
		assert.Equal(t, tc.conf, res.Confidence)
		assert.Equal(t, domain.ModelHFImage, res.Model)
	}
}

func TestImageColdStartThenSuccess(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			w.Write([]byte(`{"error":"Model dima806/deepfake-vs-real-image-detection is currently loading"}`))
			return
		}
		w.Write([]byte(`[{"label":"FAKE","score":0.9}]`))
	}))
	defer srv.Close()

	res, err := newTestImageClient(srv.URL).Analyze(context.Background(), []byte("img"))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictFake, res.Verdict)
	assert.EqualValues(t, 2, atomic.LoadInt64(&calls))
}

func TestImageColdStartExhaustedIsUncertain(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(`{"error":"Model is currently loading"}`))
	}))
	defer srv.Close()

	res, err := newTestImageClient(srv.URL).Analyze(context.Background(), []byte("img"))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictUncertain, res.Verdict)
	assert.EqualValues(t, 3, atomic.LoadInt64(&calls))
}

func TestImageUnexpectedShapeIsUncertain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":"object"}`))
	}))
	defer srv.Close()

	res, err := newTestImageClient(srv.URL).Analyze(context.Background(), []byte("img"))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictUncertain, res.Verdict)
	assert.Equal(t, 0.5, res.Confidence)
}

func TestBestPrediction(t *testing.T) {
	best, ok := bestPrediction([]byte(`[{"label":"a","score":0.2},{"label":"b","score":0.7},{"label":"c","score":0.1}]`))
	require.True(t, ok)
	assert.Equal(t, "b", best.Label)

	_, ok = bestPrediction([]byte(`[]`))
	assert.False(t, ok)

	_, ok = bestPrediction([]byte(`not json`))
	assert.False(t, ok)
}

func TestIsColdStart(t *testing.T) {
	assert.True(t, isColdStart([]byte(`{"error":"Model x is currently loading"}`)))
	assert.False(t, isColdStart([]byte(`{"error":"Internal failure"}`)))
	assert.False(t, isColdStart([]byte(`[{"label":"FAKE","score":0.9}]`)))
}
