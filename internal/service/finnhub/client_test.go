package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsServer(t *testing.T, subs chan<- string) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub map[string]string
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		subs <- sub["symbol"]

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`))
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"trade","data":[{"s":"BINANCE:BTCUSDT","p":101.5,"v":0.25,"t":1717336800123}]}`))
		// hold the connection until the client goes away
		_, _, _ = conn.ReadMessage()
	}))
}

func TestClient_StreamsTradesAsSamples(t *testing.T) {
	subs := make(chan string, 1)
	srv := wsServer(t, subs)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := New("", url, []string{"BINANCE:BTCUSDT"}, time.Millisecond, time.Hour, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	require.NoError(t, c.Subscribe(ctx))
	assert.True(t, c.IsConnected())
	assert.Equal(t, "BINANCE:BTCUSDT", <-subs)

	samples, _ := c.Read(ctx)
	select {
	case s := <-samples:
		require.NotNil(t, s)
		assert.Equal(t, "BINANCE:BTCUSDT", s.Symbol)
		assert.Equal(t, 101.5, s.Price)
		assert.Equal(t, 0.25, s.Volume)
		assert.Equal(t, time.UnixMilli(1717336800123).UTC(), s.Timestamp)
	case <-ctx.Done():
		t.Fatal("no sample received")
	}

	require.NoError(t, c.Close())
	assert.False(t, c.IsConnected())
}

func TestClient_SubscribeRequiresConnection(t *testing.T) {
	c := New("k", "ws://127.0.0.1:1", []string{"X"}, 0, 0, nil)
	assert.Error(t, c.Subscribe(context.Background()))
}
