package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docflow-cli/internal/logger"
)

// Ensure ProgressChannel implements the interface.
var _ driving.ProgressService = (*ProgressChannel)(nil)

// notConnectedMessage is recorded when an edit is started without a connection.
const notConnectedMessage = "not connected"

// lostDuringAnalysisMessage is recorded when the stream drops mid-analysis.
// The server side of that analysis does not survive a reconnect.
const lostDuringAnalysisMessage = "connection lost during analysis"

// ProgressOptions configures a ProgressChannel.
type ProgressOptions struct {
	// ReconnectInterval is the wait before each reconnect (default 3s).
	ReconnectInterval time.Duration

	// MaxReconnectAttempts bounds reconnects after abnormal closes (default 5).
	MaxReconnectAttempts int
}

// ProgressChannel is the reconnecting client side of the progress stream.
//
// Each successful dial starts a new generation with its own reader goroutine.
// Disconnect bumps the generation so frames and closes from an old
// connection are discarded.
type ProgressChannel struct {
	dialer      driven.ProgressDialer
	interval    time.Duration
	maxAttempts int
	now         func() time.Time

	mu         sync.Mutex
	cb         driving.ProgressCallbacks
	conn       driven.ProgressConn
	generation uint64
	timer      *time.Timer
	state      domain.ProgressState
	collected  domain.ChangeBatch
}

// NewProgressChannel creates an idle progress channel.
func NewProgressChannel(dialer driven.ProgressDialer, opts ProgressOptions) *ProgressChannel {
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = domain.DefaultReconnectInterval
	}
	if opts.MaxReconnectAttempts < 0 {
		opts.MaxReconnectAttempts = 0
	}
	return &ProgressChannel{
		dialer:      dialer,
		interval:    opts.ReconnectInterval,
		maxAttempts: opts.MaxReconnectAttempts,
		now:         time.Now,
		state: domain.ProgressState{
			Connection: domain.ConnectionIdle,
			TotalSteps: domain.DefaultTotalSteps,
		},
	}
}

// SetCallbacks replaces the notification callbacks.
func (c *ProgressChannel) SetCallbacks(cb driving.ProgressCallbacks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cb = cb
}

// Connect opens the stream. It is a no-op while connecting or open.
func (c *ProgressChannel) Connect(ctx context.Context) error {
	if c.dialer == nil {
		return domain.ErrNotImplemented
	}

	c.mu.Lock()
	if c.state.Connection == domain.ConnectionConnecting || c.state.Connection == domain.ConnectionOpen {
		c.mu.Unlock()
		return nil
	}
	c.generation++
	gen := c.generation
	c.state.Error = ""
	notify := c.setConnectionLocked(domain.ConnectionConnecting)
	c.mu.Unlock()
	notify()

	return c.dial(ctx, gen)
}

// dial opens a connection for generation gen.
func (c *ProgressChannel) dial(ctx context.Context, gen uint64) error {
	conn, err := c.dialer.Dial(ctx)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close(domain.CloseNormalClosure, "")
		}
		return nil
	}
	if err != nil {
		logger.Warn("progress stream dial: %v", err)
		notify := c.closedLocked(gen, domain.CloseAbnormalClosure)
		exhausted := c.state.Connection == domain.ConnectionClosed
		c.mu.Unlock()
		notify()
		if exhausted {
			return fmt.Errorf("connect progress stream: %w: %w", domain.ErrReconnectExhausted, err)
		}
		return fmt.Errorf("connect progress stream: %w", err)
	}

	c.conn = conn
	c.state.SessionID = uuid.NewString()
	c.state.Attempts = 0
	c.state.Processing = false
	c.state.CurrentStep = 0
	c.state.TotalSteps = domain.DefaultTotalSteps
	notify := c.setConnectionLocked(domain.ConnectionOpen)
	c.mu.Unlock()
	notify()

	logger.Debug("progress stream open (generation %d)", gen)
	go c.readLoop(gen, conn)
	return nil
}

// readLoop delivers frames from conn until it closes.
func (c *ProgressChannel) readLoop(gen uint64, conn driven.ProgressConn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			code := domain.CloseCode(err)
			logger.Debug("progress stream closed: %v", err)

			c.mu.Lock()
			if gen != c.generation {
				c.mu.Unlock()
				return
			}
			c.conn = nil
			notify := c.closedLocked(gen, code)
			c.mu.Unlock()
			notify()
			return
		}
		c.receive(gen, data)
	}
}

// closedLocked handles the end of a connection and schedules a reconnect
// after an abnormal close while attempts remain. An analysis in flight ends
// with an error either way.
func (c *ProgressChannel) closedLocked(gen uint64, code int) func() {
	if code == domain.CloseNormalClosure {
		return c.setConnectionLocked(domain.ConnectionClosed)
	}

	if c.state.Attempts < c.maxAttempts {
		c.state.Attempts++
		logger.Info("progress stream lost (code %d), reconnecting in %s (attempt %d/%d)",
			code, c.interval, c.state.Attempts, c.maxAttempts)
		c.timer = time.AfterFunc(c.interval, func() { c.reconnect(gen) })

		notifyState := c.setConnectionLocked(domain.ConnectionConnecting)
		if !c.state.Processing {
			return notifyState
		}
		c.state.Processing = false
		c.state.Error = lostDuringAnalysisMessage
		logger.Warn("progress stream: %s", lostDuringAnalysisMessage)
		onError := c.cb.OnError
		return func() {
			notifyState()
			if onError != nil {
				onError(lostDuringAnalysisMessage)
			}
		}
	}

	msg := fmt.Sprintf("connection failed after %d attempts", c.maxAttempts)
	c.state.Error = msg
	c.state.Processing = false
	logger.Error("progress stream: %s", msg)

	notifyState := c.setConnectionLocked(domain.ConnectionClosed)
	onError := c.cb.OnError
	return func() {
		notifyState()
		if onError != nil {
			onError(msg)
		}
	}
}

// reconnect dials again unless the channel moved on since the timer was set.
func (c *ProgressChannel) reconnect(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.state.Connection != domain.ConnectionConnecting {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()

	_ = c.dial(context.Background(), gen)
}

// receive records one inbound frame.
func (c *ProgressChannel) receive(gen uint64, data []byte) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}

	event, ok := decodeEvent(data)
	if !ok {
		event = domain.NewParseErrorEvent(uuid.NewString(), c.now().UTC().Format(time.RFC3339Nano), c.state.SessionID)
	}

	c.state.Events = append(c.state.Events, event)
	c.applyLocked(event)

	onEvent, onError := c.cb.OnEvent, c.cb.OnError
	c.mu.Unlock()

	if onEvent != nil {
		onEvent(event)
	}
	if event.Type == domain.EventError && onError != nil {
		onError(event.Message())
	}
}

// applyLocked updates local state from one event.
func (c *ProgressChannel) applyLocked(event domain.ProgressEvent) {
	switch event.Type {
	case domain.EventProgress:
		c.state.CurrentStep, c.state.TotalSteps = event.Steps()
	case domain.EventFinished:
		c.state.Processing = false
		c.state.CurrentStep = c.state.TotalSteps
	case domain.EventError:
		c.state.Processing = false
		c.state.Error = event.Message()
	case domain.EventDocumentCompleted:
		var edit domain.EditProposal
		if err := event.DecodePayload(&edit); err == nil && edit.DocumentID != "" {
			c.collected.Edit = append(c.collected.Edit, edit)
		}
	case domain.EventDocumentCreated:
		var create domain.CreateProposal
		if err := event.DecodePayload(&create); err == nil {
			c.collected.Create = append(c.collected.Create, create)
		}
	case domain.EventDocumentDeleted:
		var del domain.DeleteProposal
		if err := event.DecodePayload(&del); err == nil && del.DocumentID != "" {
			c.collected.Delete = append(c.collected.Delete, del)
		}
	}
}

// decodeEvent accepts both the {"event": {...}} wrapper and a bare envelope.
func decodeEvent(data []byte) (domain.ProgressEvent, bool) {
	var wrapper struct {
		Event json.RawMessage `json:"event"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return domain.ProgressEvent{}, false
	}
	raw := json.RawMessage(data)
	if len(wrapper.Event) > 0 && string(wrapper.Event) != "null" {
		raw = wrapper.Event
	}

	var event domain.ProgressEvent
	if err := json.Unmarshal(raw, &event); err != nil || event.Type == "" {
		return domain.ProgressEvent{}, false
	}
	return event, true
}

// Disconnect closes the stream normally and cancels any pending reconnect.
func (c *ProgressChannel) Disconnect() {
	c.mu.Lock()
	c.generation++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	conn := c.conn
	c.conn = nil
	c.state.Attempts = 0
	c.state.Processing = false
	notify := c.setConnectionLocked(domain.ConnectionIdle)
	c.mu.Unlock()

	if conn != nil {
		if err := conn.Close(domain.CloseNormalClosure, ""); err != nil {
			logger.Debug("progress stream close: %v", err)
		}
	}
	notify()
}

// StartEdit starts an analysis on the open stream.
func (c *ProgressChannel) StartEdit(req domain.AnalysisRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.state.Connection != domain.ConnectionOpen || c.conn == nil {
		c.state.Error = notConnectedMessage
		c.mu.Unlock()
		return domain.ErrNotConnected
	}

	sessionID := uuid.NewString()
	c.state.SessionID = sessionID
	c.state.Events = nil
	c.state.Error = ""
	c.state.Processing = true
	c.state.CurrentStep = 0
	c.state.TotalSteps = domain.DefaultTotalSteps
	c.collected = domain.ChangeBatch{}
	conn := c.conn
	c.mu.Unlock()

	logger.Debug("starting streamed analysis %s", sessionID)
	err := conn.WriteJSON(domain.StreamEditRequest{SessionID: sessionID, EditRequest: req})
	if err != nil {
		c.mu.Lock()
		c.state.Processing = false
		c.state.Error = err.Error()
		c.mu.Unlock()
		return fmt.Errorf("start edit: %w", err)
	}
	return nil
}

// ClearEvents empties the event log and resets the error and step counter.
func (c *ProgressChannel) ClearEvents() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Events = nil
	c.state.Error = ""
	c.state.CurrentStep = 0
}

// State returns a snapshot of the stream.
func (c *ProgressChannel) State() domain.ProgressState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Events = append([]domain.ProgressEvent(nil), c.state.Events...)
	return s
}

// Collected returns the proposals gathered since the last StartEdit.
func (c *ProgressChannel) Collected() domain.ChangeBatch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.ChangeBatch{
		Edit:   append([]domain.EditProposal(nil), c.collected.Edit...),
		Create: append([]domain.CreateProposal(nil), c.collected.Create...),
		Delete: append([]domain.DeleteProposal(nil), c.collected.Delete...),
	}
}

// setConnectionLocked records a transition and returns the notification to
// run once the lock is released.
func (c *ProgressChannel) setConnectionLocked(state domain.ConnectionState) func() {
	if c.state.Connection == state {
		return func() {}
	}
	c.state.Connection = state
	cb := c.cb.OnConnectionChange
	if cb == nil {
		return func() {}
	}
	return func() { cb(state) }
}
