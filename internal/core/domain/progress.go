package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType identifies a progress event streamed during analysis.
type EventType string

// Event types emitted by the edit-documentation stream.
const (
	EventIntentDetected     EventType = "intent_detected"
	EventSuggestionsFound   EventType = "suggestions_found"
	EventDocumentProcessing EventType = "document_processing"
	EventDocumentCompleted  EventType = "document_completed"
	EventDocumentCreated    EventType = "document_created"
	EventDocumentDeleted    EventType = "document_deleted"
	EventError              EventType = "error"
	EventFinished           EventType = "finished"
	EventProgress           EventType = "progress"
)

// DefaultTotalSteps is the step count assumed until the stream reports one.
const DefaultTotalSteps = 4

// ParseErrorMessage is the message of the error event synthesised for unreadable frames.
const ParseErrorMessage = "Failed to parse WebSocket message"

// ProgressEvent is one typed envelope from the progress stream.
type ProgressEvent struct {
	Type      EventType       `json:"type"`
	EventID   string          `json:"event_id"`
	Timestamp string          `json:"timestamp"`
	SessionID string          `json:"session_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// DecodePayload unmarshals the event payload into v.
func (e ProgressEvent) DecodePayload(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%w: %s event has no payload", ErrInvalidInput, e.Type)
	}
	return json.Unmarshal(e.Payload, v)
}

// Message returns payload.message, if present.
func (e ProgressEvent) Message() string {
	var p struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return ""
	}
	return p.Message
}

// Steps returns payload.step and payload.total_steps, defaulting to 0 and
// DefaultTotalSteps. A total of zero or less also means DefaultTotalSteps.
func (e ProgressEvent) Steps() (step, total int) {
	var p struct {
		Step       *int `json:"step"`
		TotalSteps *int `json:"total_steps"`
	}
	step, total = 0, DefaultTotalSteps
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return step, total
	}
	if p.Step != nil {
		step = *p.Step
	}
	if p.TotalSteps != nil && *p.TotalSteps > 0 {
		total = *p.TotalSteps
	}
	return step, total
}

// NewParseErrorEvent builds the error event recorded when a frame cannot be decoded.
func NewParseErrorEvent(eventID, timestamp, sessionID string) ProgressEvent {
	payload, _ := json.Marshal(map[string]string{
		"message":    ParseErrorMessage,
		"error_type": "ParseError",
	})
	return ProgressEvent{
		Type:      EventError,
		EventID:   eventID,
		Timestamp: timestamp,
		SessionID: sessionID,
		Payload:   payload,
	}
}

// StreamEditRequest is the client message that starts an analysis on the stream.
type StreamEditRequest struct {
	SessionID   string          `json:"session_id"`
	EditRequest AnalysisRequest `json:"edit_request"`
}

// ConnectionState is the lifecycle state of the progress stream.
type ConnectionState int

const (
	// ConnectionIdle means no connection and none pending.
	ConnectionIdle ConnectionState = iota
	// ConnectionConnecting means a dial is in flight.
	ConnectionConnecting
	// ConnectionOpen means events are flowing.
	ConnectionOpen
	// ConnectionClosed means the connection ended and no reconnect is scheduled.
	ConnectionClosed
)

// String returns the string representation.
func (s ConnectionState) String() string {
	switch s {
	case ConnectionIdle:
		return "idle"
	case ConnectionConnecting:
		return "connecting"
	case ConnectionOpen:
		return "open"
	case ConnectionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ProgressState is a snapshot of the progress stream.
type ProgressState struct {
	Connection  ConnectionState
	SessionID   string
	Processing  bool
	CurrentStep int
	TotalSteps  int
	Error       string
	Attempts    int
	Events      []ProgressEvent
}

// Connected returns true when the stream is open.
func (s ProgressState) Connected() bool {
	return s.Connection == ConnectionOpen
}

// Close codes used by the progress stream.
const (
	CloseNormalClosure   = 1000
	CloseAbnormalClosure = 1006
)

// CloseError reports how a stream connection ended.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("stream closed with code %d", e.Code)
	}
	return fmt.Sprintf("stream closed with code %d: %s", e.Code, e.Reason)
}

// CloseCode extracts the close code from err.
// Errors that carry no code count as abnormal closure.
func CloseCode(err error) int {
	var ce *CloseError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CloseAbnormalClosure
}
