package mcp

import (
	"context"
	"errors"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docflow-cli/internal/patcher"
)

// mockChangeService is an in-memory driving.ChangeService over a real ChangeSet.
type mockChangeService struct {
	batch      domain.ChangeBatch
	analyzeErr error
	result     domain.UpdateResult
	applyErr   error

	set *domain.ChangeSet
	sel *domain.Selection

	analyzed []domain.AnalysisRequest
	applied  [][]domain.Identity
}

func newMockChangeService(batch domain.ChangeBatch) *mockChangeService {
	m := &mockChangeService{
		batch: batch,
		sel:   domain.NewSelection(),
	}
	m.set = domain.NewChangeSet(batch)
	return m
}

func (m *mockChangeService) Analyze(_ context.Context, req domain.AnalysisRequest) (*driving.ChangeSnapshot, error) {
	m.analyzed = append(m.analyzed, req)
	if m.analyzeErr != nil {
		return nil, m.analyzeErr
	}
	return m.Load(context.Background(), m.batch), nil
}

func (m *mockChangeService) Load(_ context.Context, batch domain.ChangeBatch) *driving.ChangeSnapshot {
	m.set = domain.NewChangeSet(batch)
	m.sel.DeselectAll()
	return m.Snapshot()
}

func (m *mockChangeService) Snapshot() *driving.ChangeSnapshot {
	return &driving.ChangeSnapshot{
		Filter:   m.sel.Filter(),
		Visible:  m.set.Visible(m.sel.Filter()),
		Selected: m.sel.Selected(),
		Counts:   m.set.Counts(),
	}
}

func (m *mockChangeService) Toggle(id domain.Identity) (bool, error) {
	if !m.set.Contains(id) {
		return false, domain.ErrUnknownChange
	}
	return m.sel.Toggle(id), nil
}

func (m *mockChangeService) SelectAll() {
	m.sel.SelectAll(m.set.VisibleIdentities(m.sel.Filter()))
}

func (m *mockChangeService) DeselectAll() { m.sel.DeselectAll() }

func (m *mockChangeService) SetFilter(f domain.ChangeFilter) { m.sel.SetFilter(f) }

func (m *mockChangeService) Ignore(id domain.Identity) bool {
	m.sel.Remove(id)
	return m.set.Remove(id) > 0
}

func (m *mockChangeService) IgnoreSelected() int {
	ids := m.sel.Selected()
	m.sel.DeselectAll()
	return m.set.Remove(ids...)
}

func (m *mockChangeService) Apply(ctx context.Context, id domain.Identity) (*driving.ApplyOutcome, error) {
	if !m.set.Contains(id) {
		return nil, domain.ErrUnknownChange
	}
	return m.apply([]domain.Identity{id})
}

func (m *mockChangeService) ApplySelected(_ context.Context) (*driving.ApplyOutcome, error) {
	var ids []domain.Identity
	for _, id := range m.set.VisibleIdentities(m.sel.Filter()) {
		if m.sel.IsSelected(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, domain.ErrNothingSelected
	}
	return m.apply(ids)
}

func (m *mockChangeService) apply(ids []domain.Identity) (*driving.ApplyOutcome, error) {
	m.applied = append(m.applied, ids)
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	outcome := &driving.ApplyOutcome{Result: m.result}
	if m.result.Failed > 0 {
		outcome.Failed = ids
		return outcome, nil
	}
	outcome.Succeeded = ids
	m.set.Remove(ids...)
	m.sel.Remove(ids...)
	return outcome, nil
}

func (m *mockChangeService) Preview(id domain.Identity) (*driving.ChangePreview, error) {
	p, ok := m.set.Find(id)
	if !ok {
		return nil, domain.ErrUnknownChange
	}
	preview := &driving.ChangePreview{Proposal: p}
	switch p.Kind {
	case domain.ChangeKindEdit:
		preview.Original = "# Title\nold line\n"
		preview.Patched = patcher.Apply(preview.Original, p.Edit.Changes)
		preview.Diff = patcher.Diff(preview.Original, preview.Patched)
		preview.Missed = patcher.Misses(preview.Original, p.Edit.Changes)
	case domain.ChangeKindCreate:
		preview.Patched = p.Create.MarkdownContentEN
	case domain.ChangeKindDelete:
	}
	return preview, nil
}

func (m *mockChangeService) OriginalContent(_ string) (domain.OriginalContent, bool) {
	return domain.OriginalContent{}, false
}

func (m *mockChangeService) InlineEdit(_ context.Context, _ domain.InlineEditRequest) (*domain.InlineEditResult, error) {
	return nil, errors.New("not supported")
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	tree domain.DocumentTree
	err  error
}

func (m *mockDocumentService) Documents(_ context.Context) (domain.DocumentTree, error) {
	return m.tree, m.err
}

func (m *mockDocumentService) Find(_ context.Context, id string) (*domain.DocumentNode, string, error) {
	node, lang, ok := m.tree.Find(id)
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	return node, lang, nil
}

func (m *mockDocumentService) Versions(_ context.Context, _ string) ([]domain.DocumentVersion, error) {
	return nil, m.err
}

func (m *mockDocumentService) Version(_ context.Context, _, _ string) (*domain.DocumentVersion, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) CreateDocument(_ context.Context, _ domain.NewDocument) (*domain.DocumentNode, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockDocumentService) CreateVersion(_ context.Context, _ string, _ domain.NewVersion) (*domain.DocumentVersion, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockDocumentService) DeleteDocument(_ context.Context, _ string) error {
	return domain.ErrNotImplemented
}

func (m *mockDocumentService) InvalidateDocuments() {}

func (m *mockDocumentService) InvalidateVersions(_ string) {}

func (m *mockDocumentService) ClearCache() {}

func sampleBatch() domain.ChangeBatch {
	return domain.ChangeBatch{
		Edit: []domain.EditProposal{{
			DocumentID: "doc-1",
			Version:    "v1",
			Changes:    []domain.ContentChange{{OldString: "old line", NewString: "new line"}},
		}},
		Create: []domain.CreateProposal{{
			Name:              "setup",
			Path:              "/guides/setup",
			Title:             "Setup",
			MarkdownContentEN: "# Setup\n",
		}},
		Delete: []domain.DeleteProposal{{
			DocumentID: "doc-9",
			Title:      "Legacy",
			Path:       "/legacy",
			Version:    "v3",
		}},
	}
}
