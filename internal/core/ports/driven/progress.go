package driven

import "context"

// ProgressDialer opens connections to the progress stream.
type ProgressDialer interface {
	// Dial opens a new connection.
	Dial(ctx context.Context) (ProgressConn, error)
}

// ProgressConn is one open progress stream connection.
// ReadMessage is called from a single goroutine; WriteJSON and Close may be
// called concurrently with it.
type ProgressConn interface {
	// ReadMessage blocks for the next frame. When the connection ends the
	// error carries the close code as a *domain.CloseError where known.
	ReadMessage() ([]byte, error)

	// WriteJSON sends v as one JSON frame.
	WriteJSON(v any) error

	// Close ends the connection with the given close code.
	Close(code int, reason string) error
}
