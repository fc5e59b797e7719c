package stream

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

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// newStreamServer serves the progress path with handler and returns its http URL.
func newStreamServer(t *testing.T, handler func(ws *websocket.Conn)) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(ProgressPath, func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		handler(ws)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL
}

func TestProgressURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8000", "ws://localhost:8000/ws/edit-documentation"},
		{"https://docs.example.com", "wss://docs.example.com/ws/edit-documentation"},
		{"https://docs.example.com/backend/", "wss://docs.example.com/backend/ws/edit-documentation"},
		{"http://localhost:8000?x=1", "ws://localhost:8000/ws/edit-documentation"},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := ProgressURL(tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProgressURL_Invalid(t *testing.T) {
	for _, base := range []string{"ftp://host", "http://", "::"} {
		_, err := ProgressURL(base)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, base)
	}
}

func TestDialer_RoundTrip(t *testing.T) {
	received := make(chan domain.StreamEditRequest, 1)
	base := newStreamServer(t, func(ws *websocket.Conn) {
		var req domain.StreamEditRequest
		if err := ws.ReadJSON(&req); err != nil {
			return
		}
		received <- req
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"event":{"type":"finished"}}`))
		_, _, _ = ws.ReadMessage()
	})

	dialer, err := NewDialer(base)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dialer.URL(), "ws://"))

	conn, err := dialer.Dial(context.Background())
	require.NoError(t, err)
	defer conn.Close(domain.CloseNormalClosure, "")

	req := domain.StreamEditRequest{
		SessionID:   "session-1",
		EditRequest: domain.AnalysisRequest{Query: "update intro"},
	}
	require.NoError(t, conn.WriteJSON(req))

	select {
	case got := <-received:
		assert.Equal(t, req, got)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive request")
	}

	frame, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":{"type":"finished"}}`, string(frame))
}

func TestDialer_ServerCloseCode(t *testing.T) {
	base := newStreamServer(t, func(ws *websocket.Conn) {
		msg := websocket.FormatCloseMessage(4001, "session expired")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	})

	dialer, err := NewDialer(base)
	require.NoError(t, err)
	conn, err := dialer.Dial(context.Background())
	require.NoError(t, err)

	_, err = conn.ReadMessage()
	require.Error(t, err)
	assert.Equal(t, 4001, domain.CloseCode(err))
	assert.Contains(t, err.Error(), "session expired")
}

func TestDialer_NormalClose(t *testing.T) {
	base := newStreamServer(t, func(ws *websocket.Conn) {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	})

	dialer, err := NewDialer(base)
	require.NoError(t, err)
	conn, err := dialer.Dial(context.Background())
	require.NoError(t, err)

	_, err = conn.ReadMessage()
	assert.Equal(t, domain.CloseNormalClosure, domain.CloseCode(err))
}

func TestDialer_DroppedConnectionIsAbnormal(t *testing.T) {
	base := newStreamServer(t, func(ws *websocket.Conn) {
		_ = ws.UnderlyingConn().Close()
	})

	dialer, err := NewDialer(base)
	require.NoError(t, err)
	conn, err := dialer.Dial(context.Background())
	require.NoError(t, err)

	_, err = conn.ReadMessage()
	assert.Equal(t, domain.CloseAbnormalClosure, domain.CloseCode(err))
}

func TestDialer_ClientCloseSendsCode(t *testing.T) {
	codes := make(chan int, 1)
	base := newStreamServer(t, func(ws *websocket.Conn) {
		_, _, err := ws.ReadMessage()
		var ce *websocket.CloseError
		if assert.ErrorAs(t, err, &ce) {
			codes <- ce.Code
		}
	})

	dialer, err := NewDialer(base)
	require.NoError(t, err)
	conn, err := dialer.Dial(context.Background())
	require.NoError(t, err)

	require.NoError(t, conn.Close(domain.CloseNormalClosure, "bye"))
	assert.NoError(t, conn.Close(domain.CloseNormalClosure, "again"))
	assert.ErrorIs(t, conn.WriteJSON(map[string]string{}), domain.ErrNotConnected)

	select {
	case code := <-codes:
		assert.Equal(t, websocket.CloseNormalClosure, code)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not observe close")
	}
}

func TestDialer_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	dialer, err := NewDialer(base)
	require.NoError(t, err)

	_, err = dialer.Dial(context.Background())
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestDialer_HandshakeRejected(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	dialer, err := NewDialer(server.URL)
	require.NoError(t, err)

	_, err = dialer.Dial(context.Background())
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Contains(t, err.Error(), "404")
}
