package driven

import (
	"context"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
)

// DocumentAPI is the documentation backend.
// Implementations return errors matching domain.ErrTransport when the backend
// cannot be reached or answers with a non-success status and no structured body.
type DocumentAPI interface {
	// Analyze asks the backend for change proposals describing the query.
	Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.ChangeBatch, error)

	// Update applies proposals. A structured result is returned even when
	// some or all items failed.
	Update(ctx context.Context, req domain.UpdateRequest) (*domain.UpdateResult, error)

	// InlineEdit suggests a rewrite of a selected passage.
	InlineEdit(ctx context.Context, req domain.InlineEditRequest) (*domain.InlineEditResult, error)

	// Documents fetches the per-language document trees.
	Documents(ctx context.Context) (domain.DocumentTree, error)

	// Versions fetches all versions of a document.
	Versions(ctx context.Context, documentID string) ([]domain.DocumentVersion, error)

	// Version fetches one version of a document.
	// Returns an error matching domain.ErrNotFound when it does not exist.
	Version(ctx context.Context, documentID, version string) (*domain.DocumentVersion, error)

	// CreateDocument creates a document and returns its node.
	CreateDocument(ctx context.Context, doc domain.NewDocument) (*domain.DocumentNode, error)

	// CreateVersion stores new content for a document.
	CreateVersion(ctx context.Context, documentID string, v domain.NewVersion) (*domain.DocumentVersion, error)

	// DeleteDocument marks a document as deleted.
	DeleteDocument(ctx context.Context, documentID string) error
}
