package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPPatternClassifier_Classify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pattern/classify", r.URL.Path)
		var req patternRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "BTC", req.Symbol)
		assert.Len(t, req.Closes, 3)
		_, _ = w.Write([]byte(`{"pattern":"Bull Flag","bullish":true,"probability":0.91}`))
	}))
	defer srv.Close()

	c := NewHTTPPatternClassifier(NewHTTPServiceBase(srv.URL, time.Second))
	m, err := c.Classify(context.Background(), "BTC", []float64{1, 2, 3})
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Bull Flag", m.Name)
	assert.True(t, m.Bullish)
	assert.Equal(t, 0.91, m.Probability)
}

func TestHTTPPatternClassifier_NoPattern(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	m, err := NewHTTPPatternClassifier(NewHTTPServiceBase(srv.URL, time.Second)).Classify(context.Background(), "BTC", nil)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestHTTPPatternClassifier_RetriesOnlyTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.URL.Query().Get("bad") != "" || n > 10 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPPatternClassifier(NewHTTPServiceBase(srv.URL, time.Second))
	_, err := c.Classify(context.Background(), "BTC", nil)
	assert.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())

	calls.Store(0)
	bad := NewHTTPServiceBase(srv.URL, time.Second)
	err = bad.PostJSONWithRetry(context.Background(), "/x?bad=1", nil, nil, 5)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
