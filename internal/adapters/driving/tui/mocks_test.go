package tui

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
)

// mockChangeService is an in-memory driving.ChangeService over a real ChangeSet.
type mockChangeService struct {
	mu sync.Mutex

	batch      domain.ChangeBatch
	analyzeErr error
	applyErr   error
	result     domain.UpdateResult

	set *domain.ChangeSet
	sel *domain.Selection

	analyzed []domain.AnalysisRequest
	loaded   []domain.ChangeBatch
	applied  [][]domain.Identity
}

func newMockChangeService(batch domain.ChangeBatch) *mockChangeService {
	return &mockChangeService{
		batch: batch,
		set:   domain.NewChangeSet(domain.ChangeBatch{}),
		sel:   domain.NewSelection(),
		result: domain.UpdateResult{
			Message:        "ok",
			TotalProcessed: 1,
			Successful:     1,
		},
	}
}

func (m *mockChangeService) Analyze(ctx context.Context, req domain.AnalysisRequest) (*driving.ChangeSnapshot, error) {
	m.mu.Lock()
	m.analyzed = append(m.analyzed, req)
	err := m.analyzeErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.Load(ctx, m.batch), nil
}

func (m *mockChangeService) Load(_ context.Context, batch domain.ChangeBatch) *driving.ChangeSnapshot {
	m.mu.Lock()
	m.loaded = append(m.loaded, batch)
	m.set = domain.NewChangeSet(batch)
	m.sel.DeselectAll()
	m.mu.Unlock()
	return m.Snapshot()
}

func (m *mockChangeService) Snapshot() *driving.ChangeSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &driving.ChangeSnapshot{
		Filter:   m.sel.Filter(),
		Visible:  m.set.Visible(m.sel.Filter()),
		Selected: m.sel.Selected(),
		Counts:   m.set.Counts(),
	}
}

func (m *mockChangeService) Toggle(id domain.Identity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set.Contains(id) {
		return false, domain.ErrUnknownChange
	}
	return m.sel.Toggle(id), nil
}

func (m *mockChangeService) SelectAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sel.SelectAll(m.set.VisibleIdentities(m.sel.Filter()))
}

func (m *mockChangeService) DeselectAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sel.DeselectAll()
}

func (m *mockChangeService) SetFilter(f domain.ChangeFilter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sel.SetFilter(f)
}

func (m *mockChangeService) Ignore(id domain.Identity) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sel.Remove(id)
	return m.set.Remove(id) > 0
}

func (m *mockChangeService) IgnoreSelected() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.sel.Selected()
	m.sel.DeselectAll()
	return m.set.Remove(ids...)
}

func (m *mockChangeService) Apply(_ context.Context, id domain.Identity) (*driving.ApplyOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set.Contains(id) {
		return nil, domain.ErrUnknownChange
	}
	return m.applyLocked([]domain.Identity{id})
}

func (m *mockChangeService) ApplySelected(_ context.Context) (*driving.ApplyOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []domain.Identity
	for _, id := range m.set.VisibleIdentities(m.sel.Filter()) {
		if m.sel.IsSelected(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, domain.ErrNothingSelected
	}
	return m.applyLocked(ids)
}

func (m *mockChangeService) applyLocked(ids []domain.Identity) (*driving.ApplyOutcome, error) {
	m.applied = append(m.applied, ids)
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	result := m.result
	result.TotalProcessed = len(ids)
	result.Successful = len(ids) - result.Failed
	outcome := &driving.ApplyOutcome{Result: result}
	if result.Failed > 0 {
		outcome.Failed = ids
		return outcome, nil
	}
	outcome.Succeeded = ids
	m.set.Remove(ids...)
	m.sel.Remove(ids...)
	return outcome, nil
}

func (m *mockChangeService) Preview(id domain.Identity) (*driving.ChangePreview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.set.Find(id)
	if !ok {
		return nil, domain.ErrUnknownChange
	}
	return &driving.ChangePreview{Proposal: p, Patched: "# preview body\n"}, nil
}

func (m *mockChangeService) OriginalContent(_ string) (domain.OriginalContent, bool) {
	return domain.OriginalContent{}, false
}

func (m *mockChangeService) InlineEdit(context.Context, domain.InlineEditRequest) (*domain.InlineEditResult, error) {
	return nil, domain.ErrNotImplemented
}

// mockProgressService replays scripted events through the callbacks from StartEdit.
type mockProgressService struct {
	mu sync.Mutex

	events     []domain.ProgressEvent
	collected  domain.ChangeBatch
	connectErr error
	startErr   error
	closeAfter bool
	lostWith   string

	cb           driving.ProgressCallbacks
	started      []domain.AnalysisRequest
	connects     int
	disconnects  int
	clearedCount int
}

func (m *mockProgressService) callbacks() driving.ProgressCallbacks {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cb
}

func (m *mockProgressService) Connect(context.Context) error {
	m.mu.Lock()
	m.connects++
	err := m.connectErr
	m.mu.Unlock()

	cb := m.callbacks()
	if err != nil {
		if cb.OnConnectionChange != nil {
			cb.OnConnectionChange(domain.ConnectionClosed)
		}
		return err
	}
	if cb.OnConnectionChange != nil {
		cb.OnConnectionChange(domain.ConnectionOpen)
	}
	return nil
}

func (m *mockProgressService) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnects++
}

func (m *mockProgressService) StartEdit(req domain.AnalysisRequest) error {
	m.mu.Lock()
	m.started = append(m.started, req)
	err := m.startErr
	events := m.events
	closeAfter := m.closeAfter
	lostWith := m.lostWith
	m.mu.Unlock()
	if err != nil {
		return err
	}

	cb := m.callbacks()
	for _, e := range events {
		if cb.OnEvent != nil {
			cb.OnEvent(e)
		}
		if e.Type == domain.EventError && cb.OnError != nil {
			cb.OnError(e.Message())
		}
	}
	if lostWith != "" && cb.OnConnectionChange != nil && cb.OnError != nil {
		cb.OnConnectionChange(domain.ConnectionConnecting)
		cb.OnError(lostWith)
		cb.OnConnectionChange(domain.ConnectionOpen)
	}
	if closeAfter && cb.OnConnectionChange != nil {
		cb.OnConnectionChange(domain.ConnectionClosed)
	}
	return nil
}

func (m *mockProgressService) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearedCount++
}

func (m *mockProgressService) State() domain.ProgressState {
	return domain.ProgressState{}
}

func (m *mockProgressService) Collected() domain.ChangeBatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collected
}

func (m *mockProgressService) SetCallbacks(cb driving.ProgressCallbacks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cb = cb
}

// mockDocumentService finds documents in a fixed tree.
type mockDocumentService struct {
	driving.DocumentService
	known map[string]bool
	err   error
}

func (m *mockDocumentService) Find(_ context.Context, id string) (*domain.DocumentNode, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	if !m.known[id] {
		return nil, "", domain.ErrNotFound
	}
	return &domain.DocumentNode{ID: id}, "en", nil
}

// mockSettingsService returns fixed settings.
type mockSettingsService struct {
	driving.SettingsService
	settings *domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func progressEvent(t domain.EventType, payload map[string]any) domain.ProgressEvent {
	data, _ := json.Marshal(payload)
	return domain.ProgressEvent{Type: t, Payload: data}
}

func sampleBatch() domain.ChangeBatch {
	return domain.ChangeBatch{
		Edit: []domain.EditProposal{{
			DocumentID: "doc-1",
			Changes:    []domain.ContentChange{{OldString: "old", NewString: "new"}},
		}},
		Create: []domain.CreateProposal{{Name: "setup", Title: "Setup", Path: "/guides/setup"}},
		Delete: []domain.DeleteProposal{{DocumentID: "doc-9", Title: "Legacy"}},
	}
}

// execCmd runs cmd and returns the messages it produces, expanding batches.
// Commands that block longer than a short timeout are dropped.
func execCmd(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}

	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-out:
	case <-time.After(200 * time.Millisecond):
		return nil
	}

	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, execCmd(t, c)...)
		}
		return msgs
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// pump delivers msg to the app and keeps delivering the messages its commands
// produce until none remain. Spinner ticks are not fed back.
func pump(t *testing.T, app *App, msg tea.Msg) []tea.Msg {
	t.Helper()

	var seen []tea.Msg
	queue := []tea.Msg{msg}
	for steps := 0; len(queue) > 0 && steps < 100; steps++ {
		next := queue[0]
		queue = queue[1:]
		seen = append(seen, next)

		_, cmd := app.Update(next)
		for _, m := range execCmd(t, cmd) {
			if _, tick := m.(spinner.TickMsg); tick {
				continue
			}
			queue = append(queue, m)
		}
	}
	return seen
}
