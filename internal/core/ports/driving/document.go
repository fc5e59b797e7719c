package driving

import (
	"context"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
)

// DocumentService reads documents through the short-lived client cache.
type DocumentService interface {
	// Documents returns the per-language document trees.
	Documents(ctx context.Context) (domain.DocumentTree, error)

	// Find locates a document node in the tree.
	Find(ctx context.Context, documentID string) (*domain.DocumentNode, string, error)

	// Versions returns all versions of a document.
	Versions(ctx context.Context, documentID string) ([]domain.DocumentVersion, error)

	// Version returns one version, falling back to the latest when it does not exist.
	Version(ctx context.Context, documentID, version string) (*domain.DocumentVersion, error)

	// CreateDocument creates a document and drops the cached trees.
	CreateDocument(ctx context.Context, doc domain.NewDocument) (*domain.DocumentNode, error)

	// CreateVersion stores new content for a document and drops its cached
	// versions and the cached trees. An empty language is taken from the tree.
	CreateVersion(ctx context.Context, documentID string, v domain.NewVersion) (*domain.DocumentVersion, error)

	// DeleteDocument marks a document as deleted and drops the cached trees.
	DeleteDocument(ctx context.Context, documentID string) error

	// InvalidateDocuments drops the cached document trees.
	InvalidateDocuments()

	// InvalidateVersions drops the cached versions of one document.
	InvalidateVersions(documentID string)

	// ClearCache drops everything cached.
	ClearCache()
}
