package cli

import (
	"context"
	"encoding/json"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
)

// mockChangeService implements driving.ChangeService for CLI tests.
type mockChangeService struct {
	AnalyzeFunc       func(ctx context.Context, req domain.AnalysisRequest) (*driving.ChangeSnapshot, error)
	LoadFunc          func(ctx context.Context, batch domain.ChangeBatch) *driving.ChangeSnapshot
	ApplySelectedFunc func(ctx context.Context) (*driving.ApplyOutcome, error)
	InlineEditFunc    func(ctx context.Context, req domain.InlineEditRequest) (*domain.InlineEditResult, error)

	snapshot    *driving.ChangeSnapshot
	filters     []domain.ChangeFilter
	selectedAll bool
}

func (m *mockChangeService) Analyze(ctx context.Context, req domain.AnalysisRequest) (*driving.ChangeSnapshot, error) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, req)
	}
	return m.Snapshot(), nil
}

func (m *mockChangeService) Load(ctx context.Context, batch domain.ChangeBatch) *driving.ChangeSnapshot {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, batch)
	}
	return m.Snapshot()
}

func (m *mockChangeService) Snapshot() *driving.ChangeSnapshot {
	if m.snapshot != nil {
		return m.snapshot
	}
	return &driving.ChangeSnapshot{Filter: domain.FilterAll}
}

func (m *mockChangeService) Toggle(_ domain.Identity) (bool, error) { return true, nil }

func (m *mockChangeService) SelectAll() { m.selectedAll = true }

func (m *mockChangeService) DeselectAll() { m.selectedAll = false }

func (m *mockChangeService) SetFilter(f domain.ChangeFilter) { m.filters = append(m.filters, f) }

func (m *mockChangeService) Ignore(_ domain.Identity) bool { return true }

func (m *mockChangeService) IgnoreSelected() int { return 0 }

func (m *mockChangeService) Apply(_ context.Context, _ domain.Identity) (*driving.ApplyOutcome, error) {
	return &driving.ApplyOutcome{}, nil
}

func (m *mockChangeService) ApplySelected(ctx context.Context) (*driving.ApplyOutcome, error) {
	if m.ApplySelectedFunc != nil {
		return m.ApplySelectedFunc(ctx)
	}
	return nil, domain.ErrNothingSelected
}

func (m *mockChangeService) Preview(_ domain.Identity) (*driving.ChangePreview, error) {
	return nil, domain.ErrUnknownChange
}

func (m *mockChangeService) OriginalContent(_ string) (domain.OriginalContent, bool) {
	return domain.OriginalContent{}, false
}

func (m *mockChangeService) InlineEdit(ctx context.Context, req domain.InlineEditRequest) (*domain.InlineEditResult, error) {
	if m.InlineEditFunc != nil {
		return m.InlineEditFunc(ctx, req)
	}
	return &domain.InlineEditResult{Suggestion: req.SelectedText}, nil
}

// mockDocumentService implements driving.DocumentService for CLI tests.
type mockDocumentService struct {
	DocumentsFunc func(ctx context.Context) (domain.DocumentTree, error)
	VersionsFunc  func(ctx context.Context, id string) ([]domain.DocumentVersion, error)
	VersionFunc   func(ctx context.Context, id, version string) (*domain.DocumentVersion, error)
	MutationErr   error

	created     []domain.NewDocument
	saved       map[string]domain.NewVersion
	deleted     []string
	invalidated []string
	cleared     bool
}

func (m *mockDocumentService) Documents(ctx context.Context) (domain.DocumentTree, error) {
	if m.DocumentsFunc != nil {
		return m.DocumentsFunc(ctx)
	}
	return domain.DocumentTree{}, nil
}

func (m *mockDocumentService) Find(_ context.Context, _ string) (*domain.DocumentNode, string, error) {
	return nil, "", domain.ErrNotFound
}

func (m *mockDocumentService) Versions(ctx context.Context, id string) ([]domain.DocumentVersion, error) {
	if m.VersionsFunc != nil {
		return m.VersionsFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockDocumentService) Version(ctx context.Context, id, version string) (*domain.DocumentVersion, error) {
	if m.VersionFunc != nil {
		return m.VersionFunc(ctx, id, version)
	}
	return &domain.DocumentVersion{DocumentID: id, Version: version}, nil
}

func (m *mockDocumentService) InvalidateDocuments() {}

func (m *mockDocumentService) CreateDocument(_ context.Context, doc domain.NewDocument) (*domain.DocumentNode, error) {
	if m.MutationErr != nil {
		return nil, m.MutationErr
	}
	m.created = append(m.created, doc)
	return &domain.DocumentNode{ID: "doc-new", Name: doc.Name, Title: doc.Title, Path: doc.Path}, nil
}

func (m *mockDocumentService) CreateVersion(_ context.Context, id string, v domain.NewVersion) (*domain.DocumentVersion, error) {
	if m.MutationErr != nil {
		return nil, m.MutationErr
	}
	if m.saved == nil {
		m.saved = make(map[string]domain.NewVersion)
	}
	m.saved[id] = v
	lang := v.Language
	if lang == "" {
		lang = "en"
	}
	return &domain.DocumentVersion{DocumentID: id, Version: "v2", Language: lang}, nil
}

func (m *mockDocumentService) DeleteDocument(_ context.Context, id string) error {
	if m.MutationErr != nil {
		return m.MutationErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDocumentService) InvalidateVersions(id string) { m.invalidated = append(m.invalidated, id) }

func (m *mockDocumentService) ClearCache() { m.cleared = true }

// mockProgressService implements driving.ProgressService for CLI tests.
// StartEdit replays events synchronously through the callbacks.
type mockProgressService struct {
	events     []domain.ProgressEvent
	collected  domain.ChangeBatch
	connectErr error
	failWith   string
	lostWith   string

	cb           driving.ProgressCallbacks
	started      []domain.AnalysisRequest
	disconnected bool
}

func (m *mockProgressService) Connect(_ context.Context) error {
	if m.connectErr != nil {
		return m.connectErr
	}
	if m.cb.OnConnectionChange != nil {
		m.cb.OnConnectionChange(domain.ConnectionOpen)
	}
	return nil
}

func (m *mockProgressService) Disconnect() { m.disconnected = true }

func (m *mockProgressService) StartEdit(req domain.AnalysisRequest) error {
	m.started = append(m.started, req)
	for _, e := range m.events {
		if m.cb.OnEvent != nil {
			m.cb.OnEvent(e)
		}
		if e.Type == domain.EventError && m.cb.OnError != nil {
			m.cb.OnError(e.Message())
		}
	}
	if m.lostWith != "" {
		// the stream drops and comes back without a terminal event
		if m.cb.OnConnectionChange != nil {
			m.cb.OnConnectionChange(domain.ConnectionConnecting)
		}
		if m.cb.OnError != nil {
			m.cb.OnError(m.lostWith)
		}
		if m.cb.OnConnectionChange != nil {
			m.cb.OnConnectionChange(domain.ConnectionOpen)
		}
	}
	return nil
}

func (m *mockProgressService) ClearEvents() {}

func (m *mockProgressService) State() domain.ProgressState {
	return domain.ProgressState{Connection: domain.ConnectionOpen, Error: m.failWith, Events: m.events}
}

func (m *mockProgressService) Collected() domain.ChangeBatch { return m.collected }

func (m *mockProgressService) SetCallbacks(cb driving.ProgressCallbacks) { m.cb = cb }

// mockSettingsService implements driving.SettingsService for CLI tests.
type mockSettingsService struct {
	settings domain.AppSettings
	setErr   error
	sets     map[string]string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), sets: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.sets[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string { return []string{"api.base_url"} }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) Path() string { return "/home/test/.docflow/config.toml" }

// testServices are the mocks installed by setupTestServices.
type testServices struct {
	change   *mockChangeService
	document *mockDocumentService
	progress *mockProgressService
	settings *mockSettingsService
}

// setupTestServices installs fresh mocks and returns a cleanup that restores the previous services.
func setupTestServices() (*testServices, func()) {
	oldChange, oldDocument, oldProgress, oldSettings := changeService, documentService, progressService, settingsService

	ts := &testServices{
		change:   &mockChangeService{},
		document: &mockDocumentService{},
		progress: &mockProgressService{},
		settings: newMockSettingsService(),
	}
	SetServices(Services{
		Change:   ts.change,
		Document: ts.document,
		Progress: ts.progress,
		Settings: ts.settings,
	})

	return ts, func() {
		changeService, documentService, progressService, settingsService = oldChange, oldDocument, oldProgress, oldSettings
	}
}

// clearServices removes every service and returns a cleanup that restores them.
func clearServices() func() {
	oldChange, oldDocument, oldProgress, oldSettings := changeService, documentService, progressService, settingsService
	SetServices(Services{})
	return func() {
		changeService, documentService, progressService, settingsService = oldChange, oldDocument, oldProgress, oldSettings
	}
}

func progressEvent(t domain.EventType, payload map[string]any) domain.ProgressEvent {
	data, _ := json.Marshal(payload)
	return domain.ProgressEvent{Type: t, EventID: "e", SessionID: "s", Payload: data}
}

func sampleSnapshot() *driving.ChangeSnapshot {
	batch := domain.ChangeBatch{
		Edit: []domain.EditProposal{{
			DocumentID: "doc-1",
			Changes:    []domain.ContentChange{{OldString: "a", NewString: "b"}, {OldString: "c", NewString: "d"}},
		}},
		Create: []domain.CreateProposal{{Name: "setup", Title: "Setup", Path: "/guides/setup"}},
		Delete: []domain.DeleteProposal{{DocumentID: "doc-9", Title: "Legacy", Path: "/legacy"}},
	}
	set := domain.NewChangeSet(batch)
	return &driving.ChangeSnapshot{
		Filter:  domain.FilterAll,
		Visible: set.Visible(domain.FilterAll),
		Counts:  set.Counts(),
	}
}
