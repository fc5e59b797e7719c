package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docflow-cli/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// documentsKey is the single cache key for the document trees.
const documentsKey = "documents_all"

// DocumentService reads documents from the backend through two TTL caches.
type DocumentService struct {
	api       driven.DocumentAPI
	documents driven.Cache[domain.DocumentTree]
	versions  driven.Cache[[]domain.DocumentVersion]
	group     singleflight.Group
	gens      generations
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	api driven.DocumentAPI,
	documents driven.Cache[domain.DocumentTree],
	versions driven.Cache[[]domain.DocumentVersion],
) *DocumentService {
	return &DocumentService{
		api:       api,
		documents: documents,
		versions:  versions,
	}
}

// Documents returns the per-language document trees.
func (s *DocumentService) Documents(ctx context.Context) (domain.DocumentTree, error) {
	if s.api == nil {
		return nil, domain.ErrNotImplemented
	}
	if tree, ok := s.documents.Get(documentsKey); ok {
		logger.Debug("documents: cache hit")
		return tree, nil
	}

	v, err, _ := s.group.Do(documentsKey, func() (any, error) {
		gen := s.gens.current(documentsKey)
		tree, err := s.api.Documents(ctx)
		if err != nil {
			return nil, err
		}
		if !s.gens.setIfCurrent(documentsKey, gen, func() { s.documents.Set(documentsKey, tree) }) {
			logger.Debug("documents: invalidated during fetch, not cached")
		}
		return tree, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}
	return v.(domain.DocumentTree), nil
}

// Find locates a document node in the tree.
func (s *DocumentService) Find(ctx context.Context, documentID string) (*domain.DocumentNode, string, error) {
	tree, err := s.Documents(ctx)
	if err != nil {
		return nil, "", err
	}
	node, lang, ok := tree.Find(documentID)
	if !ok {
		return nil, "", fmt.Errorf("%w: document %s", domain.ErrNotFound, documentID)
	}
	return node, lang, nil
}

// Versions returns all versions of a document.
func (s *DocumentService) Versions(ctx context.Context, documentID string) ([]domain.DocumentVersion, error) {
	if s.api == nil {
		return nil, domain.ErrNotImplemented
	}
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if versions, ok := s.versions.Get(documentID); ok {
		logger.Debug("versions %s: cache hit", documentID)
		return versions, nil
	}

	key := versionsKey(documentID)
	v, err, _ := s.group.Do(key, func() (any, error) {
		gen := s.gens.current(key)
		versions, err := s.api.Versions(ctx, documentID)
		if err != nil {
			return nil, err
		}
		s.gens.setIfCurrent(key, gen, func() { s.versions.Set(documentID, versions) })
		return versions, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch versions of %s: %w", documentID, err)
	}
	return v.([]domain.DocumentVersion), nil
}

// Version returns one version of a document.
// A version that does not exist falls back to the latest one.
func (s *DocumentService) Version(ctx context.Context, documentID, version string) (*domain.DocumentVersion, error) {
	if s.api == nil {
		return nil, domain.ErrNotImplemented
	}
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if version == "" {
		version = domain.LatestVersion
	}

	v, err := s.api.Version(ctx, documentID, version)
	if err == nil {
		return v, nil
	}
	if version == domain.LatestVersion || !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("fetch %s@%s: %w", documentID, version, err)
	}

	logger.Debug("version %s@%s not found, falling back to latest", documentID, version)
	v, err = s.api.Version(ctx, documentID, domain.LatestVersion)
	if err != nil {
		return nil, fmt.Errorf("fetch %s@%s: %w", documentID, domain.LatestVersion, err)
	}
	return v, nil
}

// CreateDocument creates a document and drops the cached trees.
func (s *DocumentService) CreateDocument(ctx context.Context, doc domain.NewDocument) (*domain.DocumentNode, error) {
	if s.api == nil {
		return nil, domain.ErrNotImplemented
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	node, err := s.api.CreateDocument(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("create document %s: %w", doc.Path, err)
	}
	s.InvalidateDocuments()
	return node, nil
}

// CreateVersion stores new content for a document.
// An empty language is taken from where the document sits in the tree.
func (s *DocumentService) CreateVersion(ctx context.Context, documentID string, v domain.NewVersion) (*domain.DocumentVersion, error) {
	if s.api == nil {
		return nil, domain.ErrNotImplemented
	}
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if v.Language == "" {
		_, lang, err := s.Find(ctx, documentID)
		if err != nil {
			return nil, err
		}
		v.Language = lang
	}

	created, err := s.api.CreateVersion(ctx, documentID, v)
	if err != nil {
		return nil, fmt.Errorf("create version of %s: %w", documentID, err)
	}
	s.InvalidateVersions(documentID)
	s.InvalidateDocuments()
	return created, nil
}

// DeleteDocument marks a document as deleted and drops the cached trees.
func (s *DocumentService) DeleteDocument(ctx context.Context, documentID string) error {
	if s.api == nil {
		return domain.ErrNotImplemented
	}
	if documentID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	if err := s.api.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	s.InvalidateVersions(documentID)
	s.InvalidateDocuments()
	return nil
}

// InvalidateDocuments drops the cached document trees.
// A fetch already in flight will not repopulate the cache.
func (s *DocumentService) InvalidateDocuments() {
	s.gens.bump(documentsKey, func() { s.documents.Invalidate(documentsKey) })
}

// InvalidateVersions drops the cached versions of one document.
func (s *DocumentService) InvalidateVersions(documentID string) {
	s.gens.bump(versionsKey(documentID), func() { s.versions.Invalidate(documentID) })
}

// ClearCache drops everything cached.
func (s *DocumentService) ClearCache() {
	s.gens.bumpAll(func() {
		s.documents.Clear()
		s.versions.Clear()
	})
}

func versionsKey(documentID string) string {
	return "versions:" + documentID
}

// generations counts invalidations per cache key so a fetch that started
// before an invalidation does not store its stale result.
type generations struct {
	mu    sync.Mutex
	epoch uint64
	keys  map[string]uint64
}

func (g *generations) current(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.epoch + g.keys[key]
}

// setIfCurrent runs set when key was not invalidated since gen was read.
func (g *generations) setIfCurrent(key string, gen uint64, set func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.epoch+g.keys[key] != gen {
		return false
	}
	set()
	return true
}

func (g *generations) bump(key string, invalidate func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.keys == nil {
		g.keys = make(map[string]uint64)
	}
	g.keys[key]++
	invalidate()
}

func (g *generations) bumpAll(drop func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.epoch++
	drop()
}
