package sapling

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/mediaverify/internal/domain/analysis"
)

func newTestClient(url string) *Client {
	return NewClientWithOptions("key", url, time.Second)
}

func TestAnalyzeShortTextSkipsAPI(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	short := strings.Repeat("a", 49)
	res, err := newTestClient(srv.URL).Analyze(context.Background(), []byte(short))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictUncertain, res.Verdict)
	assert.Equal(t, 0.0, res.Confidence)
	assert.Contains(t, res.Explanation, "too short")
	assert.Equal(t, 0, calls)
}

func TestAnalyzeMinimumLengthTriggersCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"score":0.5}`))
	}))
	defer srv.Close()

	text := strings.Repeat("a", 50)
	_, err := newTestClient(srv.URL).Analyze(context.Background(), []byte(text))

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestAnalyzeVerdictThresholds(t *testing.T) {
	cases := []struct {
		score   float64
		verdict domain.Verdict
	}{
		{0.80, domain.VerdictFake},
		{0.79, domain.VerdictUncertain},
		{0.25, domain.VerdictReal},
		{0.26, domain.VerdictUncertain},
	}

	text := strings.Repeat("word ", 20)
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "key", body["key"])
			fmt.Fprintf(w, `{"score":%g}`, tc.score)
		}))
		res, err := newTestClient(srv.URL).Analyze(context.Background(), []byte(text))
		srv.Close()

		require.NoError(t, err)
		assert.Equal(t, tc.verdict, res.Verdict, "score %v", tc.score)
		assert.Equal(t, domain.Round4(tc.score), res.Confidence)
		assert.Equal(t, domain.MediaText, res.MediaType)
	}
}

func TestAnalyzeLongTextIsTruncated(t *testing.T) {
	var sentLen int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		sentLen = len([]rune(body["text"]))
		w.Write([]byte(`{"score":0.9}`))
	}))
	defer srv.Close()

	long := strings.Repeat("b", 10_001)
	res, err := newTestClient(srv.URL).Analyze(context.Background(), []byte(long))

	require.NoError(t, err)
	assert.Equal(t, 10_000, sentLen)
	assert.Contains(t, res.Explanation, "(text was truncated to 10000 characters)")
}

func TestAnalyzeTopSentenceInExplanation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"score":0.9,"sentence_scores":[["First sentence.",0.4],["Worst sentence.",0.97],["Mid sentence.",0.6]]}`))
	}))
	defer srv.Close()

	text := strings.Repeat("word ", 20)
	res, err := newTestClient(srv.URL).Analyze(context.Background(), []byte(text))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictFake, res.Verdict)
	assert.Contains(t, res.Explanation, `"Worst sentence." (97%)`)
}

func TestTopSentenceSkipsMalformedPairs(t *testing.T) {
	sentence, score := topSentence([][]any{
		{"only one element"},
		{42.0, 0.9},
		{"valid", "not a float"},
		{"the winner", 0.8},
		{"lower", 0.3},
	})

	assert.Equal(t, "the winner", sentence)
	assert.Equal(t, 0.8, score)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 5))
	assert.Equal(t, "abcde", clip("abcdefgh", 5))
}
