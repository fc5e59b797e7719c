// Package stream provides the WebSocket adapter for the edit progress stream.
package stream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driven"
)

// Ensure the adapter implements the interfaces.
var (
	_ driven.ProgressDialer = (*Dialer)(nil)
	_ driven.ProgressConn   = (*conn)(nil)
)

// ProgressPath is the stream endpoint, relative to the backend root.
const ProgressPath = "/ws/edit-documentation"

const (
	handshakeTimeout = 10 * time.Second
	closeWriteWait   = time.Second
)

// ProgressURL derives the stream URL from the REST base URL.
// http maps to ws and https maps to wss.
func ProgressURL(apiBaseURL string) (string, error) {
	u, err := url.Parse(apiBaseURL)
	if err != nil {
		return "", fmt.Errorf("%w: base url %q: %w", domain.ErrInvalidInput, apiBaseURL, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: base url %q: unsupported scheme", domain.ErrInvalidInput, apiBaseURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: base url %q: missing host", domain.ErrInvalidInput, apiBaseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/") + ProgressPath
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// Dialer opens WebSocket connections to the progress stream.
type Dialer struct {
	url    string
	dialer *websocket.Dialer
}

// NewDialer creates a dialer for the stream behind apiBaseURL.
func NewDialer(apiBaseURL string) (*Dialer, error) {
	target, err := ProgressURL(apiBaseURL)
	if err != nil {
		return nil, err
	}
	return &Dialer{
		url: target,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
	}, nil
}

// URL returns the stream endpoint.
func (d *Dialer) URL() string {
	return d.url
}

// Dial opens a new connection.
func (d *Dialer) Dial(ctx context.Context) (driven.ProgressConn, error) {
	ws, resp, err := d.dialer.DialContext(ctx, d.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: dial %s: %d: %w", domain.ErrTransport, d.url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: dial %s: %w", domain.ErrTransport, d.url, err)
	}
	return &conn{ws: ws}, nil
}

// conn wraps a websocket connection.
// gorilla allows one concurrent reader and one concurrent writer;
// writes are serialised here so WriteJSON and Close can race safely.
type conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	closed  bool
}

// ReadMessage blocks for the next text or binary frame.
func (c *conn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, closeError(err)
	}
	return data, nil
}

// WriteJSON sends v as one JSON frame.
func (c *conn) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return domain.ErrNotConnected
	}
	if err := c.ws.WriteJSON(v); err != nil {
		return fmt.Errorf("%w: write frame: %w", domain.ErrTransport, err)
	}
	return nil
}

// Close sends a close frame with code and tears down the connection.
// Calling Close more than once is a no-op.
func (c *conn) Close(code int, reason string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	msg := websocket.FormatCloseMessage(code, reason)
	writeErr := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
	closeErr := c.ws.Close()
	if writeErr != nil && !errors.Is(writeErr, websocket.ErrCloseSent) {
		return fmt.Errorf("%w: close: %w", domain.ErrTransport, writeErr)
	}
	return closeErr
}

// closeError maps a read error onto a domain close error.
// Errors without a close frame count as abnormal closure.
func closeError(err error) error {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return &domain.CloseError{Code: ce.Code, Reason: ce.Text}
	}
	return &domain.CloseError{Code: domain.CloseAbnormalClosure, Reason: err.Error()}
}
