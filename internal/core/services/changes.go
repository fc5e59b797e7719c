package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docflow-cli/internal/logger"
	"github.com/custodia-labs/docflow-cli/internal/patcher"
)

// Ensure ChangeService implements the interface.
var _ driving.ChangeService = (*ChangeService)(nil)

// originalFetchLimit bounds concurrent content fetches after a load.
const originalFetchLimit = 4

// ChangeService reconciles change proposals with backend apply results.
//
// The mutex guards state only; it is never held across backend calls.
// Concurrent applies touching the same proposals are not coordinated.
type ChangeService struct {
	api  driven.DocumentAPI
	docs driving.DocumentService

	mu        sync.Mutex
	set       *domain.ChangeSet
	selection *domain.Selection
	originals map[string]domain.OriginalContent
	removals  map[domain.Identity]string
}

// NewChangeService creates a new change service.
// docs may be nil, in which case edits carry no original content and
// nothing is invalidated after applies.
func NewChangeService(api driven.DocumentAPI, docs driving.DocumentService) *ChangeService {
	return &ChangeService{
		api:       api,
		docs:      docs,
		set:       domain.NewChangeSet(domain.ChangeBatch{}),
		selection: domain.NewSelection(),
		originals: make(map[string]domain.OriginalContent),
		removals:  make(map[domain.Identity]string),
	}
}

// Analyze requests proposals and makes them the current change set.
// On error the current change set is left untouched.
func (s *ChangeService) Analyze(ctx context.Context, req domain.AnalysisRequest) (*driving.ChangeSnapshot, error) {
	if s.api == nil {
		return nil, domain.ErrNotImplemented
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("analyzing %q", req.Query)
	batch, err := s.api.Analyze(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	return s.Load(ctx, batch), nil
}

// Load replaces the current change set with batch.
// The selection is cleared, the filter kept, and original content fetched
// for every edited document. The current content of documents proposed for
// deletion is fetched too, for previews.
func (s *ChangeService) Load(ctx context.Context, batch domain.ChangeBatch) *driving.ChangeSnapshot {
	set := domain.NewChangeSet(batch)

	s.mu.Lock()
	filter := s.selection.Filter()
	s.set = set
	s.selection = domain.NewSelection()
	s.selection.SetFilter(filter)
	s.originals = make(map[string]domain.OriginalContent)
	s.removals = make(map[domain.Identity]string)
	edits := set.Visible(domain.FilterEdit)
	deletes := set.Visible(domain.FilterDelete)
	counts := set.Counts()
	s.mu.Unlock()

	logger.Info("loaded %d edits, %d creates, %d deletes", counts.Edit, counts.Create, counts.Delete)

	s.fetchOriginals(ctx, set, edits, deletes)
	return s.Snapshot()
}

// fetchOriginals loads the base content of the given edits of set and the
// current content of its deletes. Failures are logged and skipped.
// Results are dropped if set was replaced in the meantime.
func (s *ChangeService) fetchOriginals(ctx context.Context, set *domain.ChangeSet, edits, deletes []domain.Proposal) {
	if s.docs == nil || len(edits)+len(deletes) == 0 {
		return
	}

	var mu sync.Mutex
	fetched := make(map[string]domain.OriginalContent)
	removed := make(map[domain.Identity]string)

	var g errgroup.Group
	g.SetLimit(originalFetchLimit)
	for _, p := range edits {
		edit := p.Edit
		g.Go(func() error {
			v, err := s.docs.Version(ctx, edit.DocumentID, edit.Version)
			if err != nil {
				logger.Warn("original content for %s: %v", edit.DocumentID, err)
				return nil
			}
			var node *domain.DocumentNode
			if n, _, err := s.docs.Find(ctx, edit.DocumentID); err == nil {
				node = n
			}
			mu.Lock()
			fetched[edit.DocumentID] = v.OriginalContent(node)
			mu.Unlock()
			return nil
		})
	}
	for _, p := range deletes {
		id, del := p.ID, p.Delete
		g.Go(func() error {
			v, err := s.docs.Version(ctx, del.DocumentID, del.Version)
			if err != nil {
				logger.Warn("content of %s proposed for deletion: %v", del.DocumentID, err)
				return nil
			}
			mu.Lock()
			removed[id] = v.MarkdownContent
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set != set {
		return
	}
	for id, content := range fetched {
		if _, ok := s.set.Edit(id); ok {
			s.originals[id] = content
		}
	}
	for id, content := range removed {
		if s.set.Contains(id) {
			s.removals[id] = content
		}
	}
}

// Snapshot returns a copy of the current state.
func (s *ChangeService) Snapshot() *driving.ChangeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *ChangeService) snapshotLocked() *driving.ChangeSnapshot {
	filter := s.selection.Filter()
	return &driving.ChangeSnapshot{
		Filter:   filter,
		Visible:  s.set.Visible(filter),
		Selected: s.selection.Selected(),
		Counts:   s.set.Counts(),
	}
}

// Toggle flips the selection of one proposal.
func (s *ChangeService) Toggle(id domain.Identity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set.Contains(id) {
		return false, fmt.Errorf("%w: %s", domain.ErrUnknownChange, id)
	}
	return s.selection.Toggle(id), nil
}

// SelectAll adds every visible proposal to the selection.
func (s *ChangeService) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.SelectAll(s.set.VisibleIdentities(s.selection.Filter()))
}

// DeselectAll clears the selection.
func (s *ChangeService) DeselectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.DeselectAll()
}

// SetFilter changes which proposals are visible.
func (s *ChangeService) SetFilter(f domain.ChangeFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.SetFilter(f)
}

// Ignore drops one proposal without contacting the backend.
func (s *ChangeService) Ignore(id domain.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.set.Find(id)
	if !ok {
		return false
	}
	s.set.Remove(id)
	s.selection.Remove(id)
	if p.Kind == domain.ChangeKindEdit {
		delete(s.originals, p.Edit.DocumentID)
	}
	return true
}

// IgnoreSelected drops every selected proposal and clears the selection.
func (s *ChangeService) IgnoreSelected() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.selection.Selected()
	for _, id := range ids {
		if p, ok := s.set.Find(id); ok && p.Kind == domain.ChangeKindEdit {
			delete(s.originals, p.Edit.DocumentID)
		}
	}
	n := s.set.Remove(ids...)
	s.selection.DeselectAll()
	return n
}

// pendingApply is an update request together with what it was built from.
type pendingApply struct {
	set     *domain.ChangeSet
	req     domain.UpdateRequest
	edits   []domain.Identity
	creates []*domain.CreateProposal
	deletes []*domain.DeleteProposal
}

func (p *pendingApply) add(proposal domain.Proposal, original *domain.OriginalContent) {
	switch proposal.Kind {
	case domain.ChangeKindEdit:
		edit := *proposal.Edit
		edit.Changes = append([]domain.ContentChange(nil), proposal.Edit.Changes...)
		p.req.Edit = append(p.req.Edit, domain.EditWithOriginal{EditProposal: edit, OriginalContent: original})
		p.edits = append(p.edits, proposal.ID)
	case domain.ChangeKindCreate:
		p.req.Create = append(p.req.Create, *proposal.Create)
		p.creates = append(p.creates, proposal.Create)
	case domain.ChangeKindDelete:
		p.req.Delete = append(p.req.Delete, *proposal.Delete)
		p.deletes = append(p.deletes, proposal.Delete)
	}
}

// requested returns every identity in the request.
func (p *pendingApply) requested() []domain.Identity {
	ids := append([]domain.Identity(nil), p.edits...)
	for _, c := range p.creates {
		if id, ok := p.set.CreateIdentity(c); ok {
			ids = append(ids, id)
		}
	}
	for _, d := range p.deletes {
		if id, ok := p.set.DeleteIdentity(d); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// originalLocked returns a copy of the cached base content for a document.
func (s *ChangeService) originalLocked(documentID string) *domain.OriginalContent {
	content, ok := s.originals[documentID]
	if !ok {
		return nil
	}
	return &content
}

// Apply sends one proposal to the backend and merges the result.
func (s *ChangeService) Apply(ctx context.Context, id domain.Identity) (*driving.ApplyOutcome, error) {
	if s.api == nil {
		return nil, domain.ErrNotImplemented
	}

	s.mu.Lock()
	proposal, ok := s.set.Find(id)
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownChange, id)
	}
	pending := &pendingApply{set: s.set, req: domain.NewUpdateRequest()}
	var original *domain.OriginalContent
	if proposal.Kind == domain.ChangeKindEdit {
		original = s.originalLocked(proposal.Edit.DocumentID)
	}
	pending.add(proposal, original)
	s.mu.Unlock()

	logger.Debug("applying %s %s", proposal.Kind, id)
	result, err := s.api.Update(ctx, pending.req)
	if err != nil {
		return nil, fmt.Errorf("apply %s: %w", id, err)
	}

	outcome := &driving.ApplyOutcome{Result: *result}

	s.mu.Lock()
	if result.Failed > 0 {
		outcome.Failed = []domain.Identity{id}
		if s.set == pending.set && proposal.Kind == domain.ChangeKindEdit {
			s.refreshOriginalLocked(result, proposal.Edit.DocumentID)
		}
	} else {
		outcome.Succeeded = []domain.Identity{id}
		if s.set == pending.set {
			s.set.Remove(id)
			s.selection.Remove(id)
			if proposal.Kind == domain.ChangeKindEdit {
				delete(s.originals, proposal.Edit.DocumentID)
			}
		}
	}
	s.mu.Unlock()

	s.afterApply(result)
	return outcome, nil
}

// ApplySelected sends every selected, visible proposal in one request and
// merges the result per kind.
func (s *ChangeService) ApplySelected(ctx context.Context) (*driving.ApplyOutcome, error) {
	if s.api == nil {
		return nil, domain.ErrNotImplemented
	}

	s.mu.Lock()
	pending := &pendingApply{set: s.set, req: domain.NewUpdateRequest()}
	for _, p := range s.set.Visible(s.selection.Filter()) {
		if !s.selection.IsSelected(p.ID) {
			continue
		}
		var original *domain.OriginalContent
		if p.Kind == domain.ChangeKindEdit {
			original = s.originalLocked(p.Edit.DocumentID)
		}
		pending.add(p, original)
	}
	s.mu.Unlock()

	if pending.req.Len() == 0 {
		return nil, domain.ErrNothingSelected
	}

	logger.Debug("applying %d selected changes", pending.req.Len())
	result, err := s.api.Update(ctx, pending.req)
	if err != nil {
		return nil, fmt.Errorf("apply selected: %w", err)
	}

	outcome := &driving.ApplyOutcome{Result: *result}
	failed := s.failedIdentities(pending, result)
	for _, id := range pending.requested() {
		if _, ok := failed[id]; ok {
			outcome.Failed = append(outcome.Failed, id)
		} else {
			outcome.Succeeded = append(outcome.Succeeded, id)
		}
	}

	s.mu.Lock()
	if s.set == pending.set {
		s.set.Remove(outcome.Succeeded...)
		s.selection.Remove(outcome.Succeeded...)
		for _, id := range pending.edits {
			if _, ok := failed[id]; ok {
				s.refreshOriginalLocked(result, string(id))
			} else {
				delete(s.originals, string(id))
			}
		}
	} else {
		logger.Warn("change set replaced during apply; result not merged")
	}
	s.mu.Unlock()

	s.afterApply(result)
	return outcome, nil
}

// failedIdentities maps failed_items back onto the requested identities.
func (s *ChangeService) failedIdentities(pending *pendingApply, result *domain.UpdateResult) map[domain.Identity]struct{} {
	failed := make(map[domain.Identity]struct{})
	if result.FailedItems == nil {
		return failed
	}
	for _, id := range pending.edits {
		if _, ok := result.FailedEdit(string(id)); ok {
			failed[id] = struct{}{}
		}
	}
	for _, id := range pending.set.MatchCreates(pending.creates, result.FailedItems.Create) {
		failed[id] = struct{}{}
	}
	for _, id := range pending.set.MatchDeletes(pending.deletes, result.FailedItems.Delete) {
		failed[id] = struct{}{}
	}
	return failed
}

// refreshOriginalLocked replaces cached base content with a fresher copy
// from a failure payload, when it carries one.
func (s *ChangeService) refreshOriginalLocked(result *domain.UpdateResult, documentID string) {
	fe, ok := result.FailedEdit(documentID)
	if !ok || fe.OriginalContent == nil {
		return
	}
	s.originals[documentID] = *fe.OriginalContent
}

func (s *ChangeService) afterApply(result *domain.UpdateResult) {
	if result.Successful > 0 && s.docs != nil {
		s.docs.InvalidateDocuments()
	}
	if result.Failed > 0 {
		logger.Warn("%d of %d changes failed to apply", result.Failed, result.TotalProcessed)
	}
}

// Preview shows what applying one proposal would do.
func (s *ChangeService) Preview(id domain.Identity) (*driving.ChangePreview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.set.Find(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownChange, id)
	}

	preview := &driving.ChangePreview{Proposal: p}
	switch p.Kind {
	case domain.ChangeKindEdit:
		base := s.originals[p.Edit.DocumentID].MarkdownContent
		preview.Original = base
		preview.Patched = patcher.Apply(base, p.Edit.Changes)
		preview.Diff = patcher.Diff(preview.Original, preview.Patched)
		preview.Missed = patcher.Misses(base, p.Edit.Changes)
	case domain.ChangeKindCreate:
		preview.Patched = p.Create.MarkdownContentEN
		if preview.Patched == "" {
			preview.Patched = p.Create.MarkdownContentJA
		}
		preview.Diff = patcher.Diff("", preview.Patched)
	case domain.ChangeKindDelete:
		preview.Original = s.removals[p.ID]
		if preview.Original != "" {
			preview.Diff = patcher.Diff(preview.Original, "")
		}
	}
	return preview, nil
}

// OriginalContent returns the cached base content of an edited document.
func (s *ChangeService) OriginalContent(documentID string) (domain.OriginalContent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.originals[documentID]
	return content, ok
}

// InlineEdit asks the backend to rewrite a passage.
func (s *ChangeService) InlineEdit(ctx context.Context, req domain.InlineEditRequest) (*domain.InlineEditResult, error) {
	if s.api == nil {
		return nil, domain.ErrNotImplemented
	}
	if req.SelectedText == "" {
		return nil, fmt.Errorf("%w: selected text is required", domain.ErrInvalidInput)
	}
	if req.Query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	result, err := s.api.InlineEdit(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("inline edit: %w", err)
	}
	return result, nil
}
