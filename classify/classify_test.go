package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(3, 3, color.Black)
	return img
}

// geminiServer answers every request with the given status and model text.
func geminiServer(t *testing.T, handler func(n int, w http.ResponseWriter, r *http.Request)) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&calls, 1))
		handler(n, w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func reply(w http.ResponseWriter, text string) {
	resp := map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestGemini(t *testing.T, baseURL string) *Gemini {
	t.Helper()
	g, err := NewGemini(GeminiOptions{
		APIKey:          "test-key",
		BaseURL:         baseURL,
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
	})
	require.NoError(t, err)
	return g
}

func TestLabels(t *testing.T) {
	all := Labels()
	assert.Len(t, all, 24)
	assert.Equal(t, Unknown, all[len(all)-1].Key)
	assert.True(t, IsKnown("bar_chart"))
	assert.False(t, IsKnown("Bar Chart"))
	assert.Equal(t, "Map - Geographic or spatial representation", Describe("map"))
	assert.Equal(t, Describe(Unknown), Describe("nonsense"))

	// Labels returns a copy.
	all[0].Key = "changed"
	assert.Equal(t, "bar_chart", Labels()[0].Key)
}

func TestPromptListsEveryLabel(t *testing.T) {
	p := Prompt()
	for _, l := range Labels() {
		assert.Contains(t, p, "- "+l.Key+": ")
	}
	assert.Contains(t, p, `"type": "category_key_from_list_above"`)
}

func TestGeminiClassify(t *testing.T) {
	srv, _ := geminiServer(t, func(_ int, w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req gmReq
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) ||
			!assert.Len(t, req.Contents, 1) || !assert.Len(t, req.Contents[0].Parts, 2) {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		assert.Equal(t, "image/png", req.Contents[0].Parts[0].InlineData.MIMEType)
		assert.NotEmpty(t, req.Contents[0].Parts[0].InlineData.Data)
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMIMEType)

		reply(w, `{"type":"bar_chart","confidence":0.92,"description":"Quarterly revenue","details":{"domain":"finance"},"reasoning":"Vertical bars"}`)
	})

	res := newTestGemini(t, srv.URL).Classify(context.Background(), testImage())
	assert.Equal(t, "bar_chart", res.Classification)
	assert.InDelta(t, 0.92, res.Confidence, 1e-9)
	assert.Equal(t, "Quarterly revenue", res.Description)
	assert.Equal(t, "finance", res.Details["domain"])
	assert.Equal(t, "Vertical bars", res.Reasoning)
}

func TestGeminiCoercesResult(t *testing.T) {
	srv, _ := geminiServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) {
		reply(w, "```json\n{\"type\":\"Spaceship\",\"confidence\":7}\n```")
	})

	res := newTestGemini(t, srv.URL).Classify(context.Background(), testImage())
	assert.Equal(t, Unknown, res.Classification)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, "No description available", res.Description)
}

func TestGeminiMissingConfidence(t *testing.T) {
	srv, _ := geminiServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) {
		reply(w, `{"type":"map"}`)
	})

	res := newTestGemini(t, srv.URL).Classify(context.Background(), testImage())
	assert.Equal(t, "map", res.Classification)
	assert.Equal(t, 0.5, res.Confidence)
}

func TestGeminiRetriesTransientFailures(t *testing.T) {
	srv, calls := geminiServer(t, func(n int, w http.ResponseWriter, _ *http.Request) {
		if n < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		reply(w, `{"type":"photograph","confidence":0.8}`)
	})

	res := newTestGemini(t, srv.URL).Classify(context.Background(), testImage())
	assert.Equal(t, "photograph", res.Classification)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestGeminiGivesUpAfterRetries(t *testing.T) {
	srv, calls := geminiServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	res := newTestGemini(t, srv.URL).Classify(context.Background(), testImage())
	assert.Equal(t, Fallback(), res)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestGeminiPermanentFailure(t *testing.T) {
	srv, calls := geminiServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusForbidden)
	})

	res := newTestGemini(t, srv.URL).Classify(context.Background(), testImage())
	assert.Equal(t, Unknown, res.Classification)
	assert.Equal(t, FallbackConfidence, res.Confidence)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "client errors are not retried")
}

func TestGeminiBadJSON(t *testing.T) {
	srv, _ := geminiServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) {
		reply(w, "I think this is a bar chart.")
	})

	res := newTestGemini(t, srv.URL).Classify(context.Background(), testImage())
	assert.Equal(t, Fallback(), res)
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(GeminiOptions{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestStatic(t *testing.T) {
	s := Static{Result: Result{Classification: "TABLE", Confidence: -2}}
	res := s.Classify(context.Background(), testImage())
	assert.Equal(t, "table", res.Classification)
	assert.Equal(t, 0.0, res.Confidence)
}

func TestClassifyAll(t *testing.T) {
	images := []image.Image{testImage(), testImage(), testImage()}
	var seen []string

	results := ClassifyAll(context.Background(), Static{Result: Result{Classification: "logo", Confidence: 0.7}}, images,
		func(done, total int) { seen = append(seen, fmt.Sprintf("%d/%d", done, total)) })

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, "logo", r.Classification)
	}
	assert.Equal(t, "1/3,2/3,3/3", strings.Join(seen, ","))
}

func TestClassifyAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := ClassifyAll(ctx, Static{Result: Result{Classification: "logo", Confidence: 0.7}}, []image.Image{testImage()}, nil)
	require.Len(t, results, 1)
	assert.Equal(t, Fallback(), results[0])
}
