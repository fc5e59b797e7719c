package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driven"
)

// fakeAPI is a DocumentAPI whose behaviour is set per test.
type fakeAPI struct {
	mu sync.Mutex

	AnalyzeFunc    func(ctx context.Context, req domain.AnalysisRequest) (domain.ChangeBatch, error)
	UpdateFunc     func(ctx context.Context, req domain.UpdateRequest) (*domain.UpdateResult, error)
	InlineEditFunc func(ctx context.Context, req domain.InlineEditRequest) (*domain.InlineEditResult, error)
	DocumentsFunc  func(ctx context.Context) (domain.DocumentTree, error)
	VersionsFunc   func(ctx context.Context, documentID string) ([]domain.DocumentVersion, error)
	VersionFunc    func(ctx context.Context, documentID, version string) (*domain.DocumentVersion, error)
	MutationErr    error

	updates       []domain.UpdateRequest
	documentCalls int
	versionCalls  []string
	mutations     []string
}

var _ driven.DocumentAPI = (*fakeAPI)(nil)

func (f *fakeAPI) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.ChangeBatch, error) {
	if f.AnalyzeFunc != nil {
		return f.AnalyzeFunc(ctx, req)
	}
	return domain.ChangeBatch{}, nil
}

func (f *fakeAPI) Update(ctx context.Context, req domain.UpdateRequest) (*domain.UpdateResult, error) {
	f.mu.Lock()
	f.updates = append(f.updates, req)
	f.mu.Unlock()
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, req)
	}
	n := req.Len()
	return &domain.UpdateResult{TotalProcessed: n, Successful: n}, nil
}

func (f *fakeAPI) InlineEdit(ctx context.Context, req domain.InlineEditRequest) (*domain.InlineEditResult, error) {
	if f.InlineEditFunc != nil {
		return f.InlineEditFunc(ctx, req)
	}
	return &domain.InlineEditResult{}, nil
}

func (f *fakeAPI) Documents(ctx context.Context) (domain.DocumentTree, error) {
	f.mu.Lock()
	f.documentCalls++
	f.mu.Unlock()
	if f.DocumentsFunc != nil {
		return f.DocumentsFunc(ctx)
	}
	return domain.DocumentTree{}, nil
}

func (f *fakeAPI) Versions(ctx context.Context, documentID string) ([]domain.DocumentVersion, error) {
	if f.VersionsFunc != nil {
		return f.VersionsFunc(ctx, documentID)
	}
	return nil, nil
}

func (f *fakeAPI) Version(ctx context.Context, documentID, version string) (*domain.DocumentVersion, error) {
	f.mu.Lock()
	f.versionCalls = append(f.versionCalls, documentID+"@"+version)
	f.mu.Unlock()
	if f.VersionFunc != nil {
		return f.VersionFunc(ctx, documentID, version)
	}
	return &domain.DocumentVersion{DocumentID: documentID, Version: version}, nil
}

func (f *fakeAPI) CreateDocument(_ context.Context, doc domain.NewDocument) (*domain.DocumentNode, error) {
	if err := f.mutate("create " + doc.Path); err != nil {
		return nil, err
	}
	return &domain.DocumentNode{ID: "doc-new", Name: doc.Name, Title: doc.Title, Path: doc.Path}, nil
}

func (f *fakeAPI) CreateVersion(_ context.Context, documentID string, v domain.NewVersion) (*domain.DocumentVersion, error) {
	if err := f.mutate("version " + documentID + " " + v.Language); err != nil {
		return nil, err
	}
	return &domain.DocumentVersion{DocumentID: documentID, Version: "v-new", Language: v.Language, MarkdownContent: v.MarkdownContent}, nil
}

func (f *fakeAPI) DeleteDocument(_ context.Context, documentID string) error {
	return f.mutate("delete " + documentID)
}

func (f *fakeAPI) mutate(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutations = append(f.mutations, call)
	return f.MutationErr
}

func (f *fakeAPI) Mutations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.mutations...)
}

func (f *fakeAPI) Updates() []domain.UpdateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.UpdateRequest(nil), f.updates...)
}

func (f *fakeAPI) DocumentCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.documentCalls
}

func (f *fakeAPI) VersionCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.versionCalls...)
}
