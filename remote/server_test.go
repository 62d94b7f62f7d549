package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazelment/yoloswe/ptystream/ptyparse"
	"github.com/bazelment/yoloswe/ptystream/sink"
)

type testServer struct {
	*Server
	http *httptest.Server
}

func startServer(t *testing.T, opts ...ServerOption) *testServer {
	t.Helper()
	s := NewServer(append([]ServerOption{WithServerLogger(quietLogger())}, opts...)...)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = s.Run(ctx) }()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return &testServer{Server: s, http: ts}
}

func (ts *testServer) dial(t *testing.T, query string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/events" + query
	ws, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Cleanup(func() { ws.Close() })
	}
	return ws, resp, err
}

func readEnvelope(t *testing.T, ws *websocket.Conn) sink.Envelope {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env sink.Envelope
	require.NoError(t, ws.ReadJSON(&env))
	return env
}

func chunk(s string) ptyparse.AssistantChunkEvent {
	return ptyparse.AssistantChunkEvent{Content: s, Raw: s}
}

func TestServer_StreamsLiveEvents(t *testing.T) {
	ts := startServer(t)
	ws, _, err := ts.dial(t, "", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return ts.broadcaster.Len() == 1 }, time.Second, 10*time.Millisecond)

	ts.HandleEvent(ptyparse.MessageStartEvent{MessageID: "m1"})
	ts.HandleEvent(chunk("hello"))

	first := readEnvelope(t, ws)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, ptyparse.EventTypeMessageStart, first.Type)
	assert.Equal(t, "m1", first.Event.(ptyparse.MessageStartEvent).MessageID)

	second := readEnvelope(t, ws)
	assert.Equal(t, uint64(2), second.Seq)
	assert.Equal(t, "hello", second.Event.(ptyparse.AssistantChunkEvent).Content)
}

func TestServer_ReplaysHistoryToLateJoiner(t *testing.T) {
	ts := startServer(t)
	ts.HandleEvent(ptyparse.MessageStartEvent{MessageID: "m1"})
	ts.HandleEvent(chunk("one"))
	ts.HandleEvent(ptyparse.MessageEndEvent{MessageID: "m1", Content: "one"})

	ws, _, err := ts.dial(t, "", nil)
	require.NoError(t, err)

	for want := uint64(1); want <= 3; want++ {
		assert.Equal(t, want, readEnvelope(t, ws).Seq)
	}

	// Live events continue after the replay without duplicates.
	require.Eventually(t, func() bool { return ts.broadcaster.Len() == 1 }, time.Second, 10*time.Millisecond)
	ts.HandleEvent(ptyparse.ResetEvent{})
	env := readEnvelope(t, ws)
	assert.Equal(t, uint64(4), env.Seq)
	assert.Equal(t, ptyparse.EventTypeReset, env.Type)
}

func TestServer_Since(t *testing.T) {
	ts := startServer(t)
	ts.HandleEvent(ptyparse.ResetEvent{})
	ts.HandleEvent(ptyparse.ResetEvent{})
	ts.HandleEvent(ptyparse.ThinkingEvent{Content: "hmm"})

	ws, _, err := ts.dial(t, "?since=2", nil)
	require.NoError(t, err)

	env := readEnvelope(t, ws)
	assert.Equal(t, uint64(3), env.Seq)
	assert.Equal(t, "hmm", env.Event.(ptyparse.ThinkingEvent).Content)
}

func TestServer_InvalidSince(t *testing.T) {
	ts := startServer(t)
	resp, err := http.Get(ts.http.URL + "/events?since=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Origins(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed []string
		ok      bool
	}{
		{name: "no origin", ok: true},
		{name: "localhost", origin: "http://localhost:3000", ok: true},
		{name: "loopback", origin: "http://127.0.0.1:8080", ok: true},
		{name: "foreign", origin: "https://evil.example", ok: false},
		{name: "allowed", origin: "https://ui.example", allowed: []string{"https://ui.example/"}, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := startServer(t, WithAllowedOrigins(tt.allowed...))
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			_, resp, err := ts.dial(t, "", header)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestServer_HistoryEndpoint(t *testing.T) {
	ts := startServer(t)

	resp, err := http.Get(ts.http.URL + "/history")
	require.NoError(t, err)
	var empty []sink.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&empty))
	resp.Body.Close()
	assert.Empty(t, empty)

	// Partial chunks collapse into the final chunk.
	ts.HandleEvent(ptyparse.AssistantChunkEvent{Content: "hel", Partial: true})
	ts.HandleEvent(chunk("hello"))

	resp, err = http.Get(ts.http.URL + "/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var envs []sink.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envs))
	require.Len(t, envs, 1)
	assert.Equal(t, uint64(2), envs[0].Seq)
	assert.Equal(t, "hello", envs[0].Event.(ptyparse.AssistantChunkEvent).Content)
}

func TestServer_Healthz(t *testing.T) {
	ts := startServer(t)
	ts.HandleEvent(ptyparse.ResetEvent{})

	resp, err := http.Get(ts.http.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		OK     bool `json:"ok"`
		Events int  `json:"events"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.OK)
	assert.Equal(t, 1, body.Events)
}

func TestServer_Close(t *testing.T) {
	ts := startServer(t)
	ws, _, err := ts.dial(t, "", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return ts.broadcaster.Len() == 1 }, time.Second, 10*time.Millisecond)

	ts.Close()
	ts.Close()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = ws.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	ts.HandleEvent(ptyparse.ResetEvent{})
	assert.Equal(t, 0, ts.History().Len())
	assert.ErrorIs(t, ts.Run(context.Background()), ErrServerClosed)
}

func TestServer_ConnectAfterClose(t *testing.T) {
	ts := startServer(t)
	ts.HandleEvent(chunk("before close"))
	ts.Close()
	require.Eventually(t, func() bool {
		ts.broadcaster.mu.RLock()
		defer ts.broadcaster.mu.RUnlock()
		return ts.broadcaster.done
	}, time.Second, 10*time.Millisecond)

	ws, _, err := ts.dial(t, "", nil)
	require.NoError(t, err)

	env := readEnvelope(t, ws)
	assert.Equal(t, "before close", env.Event.(ptyparse.AssistantChunkEvent).Content)

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = ws.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestServer_CloseBeforeRun(t *testing.T) {
	s := NewServer(WithServerLogger(quietLogger()))
	s.Close()

	_, live := s.broadcaster.Subscribe(1)
	_, ok := <-live
	assert.False(t, ok)
	assert.ErrorIs(t, s.Run(context.Background()), ErrServerClosed)
}

func TestServer_DropsWhenSourceFull(t *testing.T) {
	s := NewServer(WithServerLogger(quietLogger()), WithHistorySize(2000))
	for i := 0; i < cap(s.source)+5; i++ {
		s.HandleEvent(ptyparse.ResetEvent{})
	}
	assert.Equal(t, int64(5), s.Dropped())
	assert.Equal(t, cap(s.source)+5, s.History().Len())
}
