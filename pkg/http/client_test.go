package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendAndParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		var in map[string]float64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]float64{"doubled": in["qty"] * 2})
	}))
	defer srv.Close()

	c := NewClient(WithTimeout(time.Second), WithHeader("X-Api-Key", "secret"))
	var out struct {
		Doubled float64 `json:"doubled"`
	}
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodPost,
		URL:         srv.URL + "/orders",
		QueryParams: url.Values{"symbol": {"AAPL"}},
		Body:        map[string]float64{"qty": 4},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 8.0, out.Doubled)
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/busy":
			http.Error(w, "slow down", http.StatusTooManyRequests)
		default:
			http.Error(w, strings.Repeat("x", 2*maxErrorBody), http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c := NewClient()
	err := c.SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL + "/busy"}, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.True(t, se.Temporary())
	assert.Equal(t, "slow down", se.Body)

	err = c.SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL + "/bad"}, nil)
	require.True(t, errors.As(err, &se))
	assert.False(t, se.Temporary())
	assert.Len(t, se.Body, maxErrorBody)
}
