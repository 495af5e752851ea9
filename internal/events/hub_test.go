package events

import (
	"bufio"
	"encoding/json"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendshub/internal/trends"
)

func TestWebSocketReceivesFetchEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	router := gin.New()
	router.GET("/ws", WSHandler(hub))

	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, welcome, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(welcome), `"welcome"`)

	require.Eventually(t, func() bool { return hub.Stats().WSClients == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish("run-1")(trends.Progress{Type: trends.ProgressKeyword, Keyword: "TSLA", Rows: 52})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev FetchEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, trends.ProgressKeyword, ev.Type)
	assert.Equal(t, "TSLA", ev.Keyword)
	assert.Equal(t, 52, ev.Rows)
	assert.Equal(t, "run-1", ev.RunID)
	assert.False(t, ev.At.IsZero())
}

func TestTCPServerStreamsEvents(t *testing.T) {
	hub := NewHub()
	srv := NewServer("127.0.0.1:0", hub)
	go func() { _ = srv.Run() }()
	defer srv.Close()

	require.Eventually(t, func() bool { return srv.ListenAddr() != nil }, 2*time.Second, 10*time.Millisecond)

	conn, err := net.Dial("tcp", srv.ListenAddr().String())
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	r := bufio.NewReader(conn)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"welcome"`)

	require.Eventually(t, func() bool { return hub.Stats().TCPClients == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastJSON(FetchEvent{Progress: trends.Progress{Type: trends.ProgressFinished, Rows: 3}})
	line, err = r.ReadString('\n')
	require.NoError(t, err)

	var ev FetchEvent
	require.NoError(t, json.Unmarshal([]byte(line), &ev))
	assert.Equal(t, trends.ProgressFinished, ev.Type)
	assert.Equal(t, 3, ev.Rows)
}

func TestServerClosedBeforeRun(t *testing.T) {
	srv := NewServer("127.0.0.1:0", NewHub())
	require.NoError(t, srv.Close())

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
	assert.Nil(t, srv.ListenAddr())
}

func TestBroadcastWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	hub.BroadcastJSON(map[string]string{"type": "noop"})
	assert.Equal(t, Stats{}, hub.Stats())
}
