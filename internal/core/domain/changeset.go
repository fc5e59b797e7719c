package domain

import "fmt"

// ChangeSet holds the proposals of one analysis result with a frozen identity table.
//
// Create and delete identities are assigned once by NewChangeSet and stored
// against the proposal pointer. Removing proposals never renumbers the ones
// that remain, so selection and merge lookups agree for the ChangeSet's lifetime.
// A fresh ChangeSet restarts numbering from zero. Edit identities are
// document ids, so a positional identity an edit already owns gets a
// numeric suffix and the two never address the same proposal.
type ChangeSet struct {
	edits     []*EditProposal
	creates   []*CreateProposal
	deletes   []*DeleteProposal
	createIDs map[*CreateProposal]Identity
	deleteIDs map[*DeleteProposal]Identity
}

// NewChangeSet builds a ChangeSet from an analysis result.
// The batch is copied; later changes to it do not affect the ChangeSet.
// A second edit for an already-seen document has its changes appended
// to the first, keeping one edit per document.
func NewChangeSet(batch ChangeBatch) *ChangeSet {
	c := &ChangeSet{
		edits:     make([]*EditProposal, 0, len(batch.Edit)),
		creates:   make([]*CreateProposal, 0, len(batch.Create)),
		deletes:   make([]*DeleteProposal, 0, len(batch.Delete)),
		createIDs: make(map[*CreateProposal]Identity, len(batch.Create)),
		deleteIDs: make(map[*DeleteProposal]Identity, len(batch.Delete)),
	}

	byDocument := make(map[string]*EditProposal, len(batch.Edit))
	for i := range batch.Edit {
		edit := copyEdit(batch.Edit[i])
		if existing, ok := byDocument[edit.DocumentID]; ok {
			existing.Changes = append(existing.Changes, edit.Changes...)
			continue
		}
		byDocument[edit.DocumentID] = edit
		c.edits = append(c.edits, edit)
	}

	for i := range batch.Create {
		create := copyCreate(batch.Create[i])
		c.creates = append(c.creates, create)
		c.createIDs[create] = unclaimedIdentity(ChangeKindCreate, i, byDocument)
	}

	for i := range batch.Delete {
		del := batch.Delete[i]
		c.deletes = append(c.deletes, &del)
		c.deleteIDs[&del] = unclaimedIdentity(ChangeKindDelete, i, byDocument)
	}

	return c
}

// unclaimedIdentity returns the positional identity for index, suffixed
// until no edit uses it as a document id.
func unclaimedIdentity(kind ChangeKind, index int, edits map[string]*EditProposal) Identity {
	id := positionalIdentity(kind, index)
	for n := 1; ; n++ {
		if _, taken := edits[string(id)]; !taken {
			return id
		}
		id = Identity(fmt.Sprintf("%s-%d-%d", kind, index, n))
	}
}

// CreateIdentity returns the memoized identity of a create proposal held by this set.
func (c *ChangeSet) CreateIdentity(p *CreateProposal) (Identity, bool) {
	id, ok := c.createIDs[p]
	return id, ok
}

// DeleteIdentity returns the memoized identity of a delete proposal held by this set.
func (c *ChangeSet) DeleteIdentity(p *DeleteProposal) (Identity, bool) {
	id, ok := c.deleteIDs[p]
	return id, ok
}

// Visible returns the proposals passing the filter: edits, then creates, then deletes.
func (c *ChangeSet) Visible(filter ChangeFilter) []Proposal {
	result := make([]Proposal, 0, c.Len())
	if filter.Matches(ChangeKindEdit) {
		for _, e := range c.edits {
			result = append(result, Proposal{Kind: ChangeKindEdit, ID: Identity(e.DocumentID), Edit: e})
		}
	}
	if filter.Matches(ChangeKindCreate) {
		for _, p := range c.creates {
			result = append(result, Proposal{Kind: ChangeKindCreate, ID: c.createIDs[p], Create: p})
		}
	}
	if filter.Matches(ChangeKindDelete) {
		for _, p := range c.deletes {
			result = append(result, Proposal{Kind: ChangeKindDelete, ID: c.deleteIDs[p], Delete: p})
		}
	}
	return result
}

// VisibleIdentities returns the identities of Visible(filter), in order.
func (c *ChangeSet) VisibleIdentities(filter ChangeFilter) []Identity {
	visible := c.Visible(filter)
	ids := make([]Identity, len(visible))
	for i := range visible {
		ids[i] = visible[i].ID
	}
	return ids
}

// Find returns the proposal with the given identity.
func (c *ChangeSet) Find(id Identity) (Proposal, bool) {
	for _, p := range c.Visible(FilterAll) {
		if p.ID == id {
			return p, true
		}
	}
	return Proposal{}, false
}

// Contains returns true if a proposal with the given identity is present.
func (c *ChangeSet) Contains(id Identity) bool {
	_, ok := c.Find(id)
	return ok
}

// Edit returns the edit proposal for a document.
func (c *ChangeSet) Edit(documentID string) (*EditProposal, bool) {
	for _, e := range c.edits {
		if e.DocumentID == documentID {
			return e, true
		}
	}
	return nil, false
}

// Remove drops every proposal whose identity is listed and returns how many were removed.
// Unknown identities are ignored.
func (c *ChangeSet) Remove(ids ...Identity) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[Identity]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	before := c.Len()

	edits := c.edits[:0]
	for _, e := range c.edits {
		if _, ok := drop[Identity(e.DocumentID)]; !ok {
			edits = append(edits, e)
		}
	}
	c.edits = edits

	creates := c.creates[:0]
	for _, p := range c.creates {
		if _, ok := drop[c.createIDs[p]]; !ok {
			creates = append(creates, p)
		}
	}
	c.creates = creates

	deletes := c.deletes[:0]
	for _, p := range c.deletes {
		if _, ok := drop[c.deleteIDs[p]]; !ok {
			deletes = append(deletes, p)
		}
	}
	c.deletes = deletes

	return before - c.Len()
}

// MatchCreates maps create proposals returned by the backend onto the
// identities of the given requested proposals. Each requested proposal
// matches at most once, in request order, so duplicates pair up one-to-one.
func (c *ChangeSet) MatchCreates(requested []*CreateProposal, returned []CreateProposal) []Identity {
	used := make([]bool, len(requested))
	var ids []Identity
	for i := range returned {
		for j, p := range requested {
			if used[j] || !p.Equal(returned[i]) {
				continue
			}
			used[j] = true
			if id, ok := c.createIDs[p]; ok {
				ids = append(ids, id)
			}
			break
		}
	}
	return ids
}

// MatchDeletes is the delete counterpart of MatchCreates.
func (c *ChangeSet) MatchDeletes(requested []*DeleteProposal, returned []DeleteProposal) []Identity {
	used := make([]bool, len(requested))
	var ids []Identity
	for i := range returned {
		for j, p := range requested {
			if used[j] || !p.Equal(returned[i]) {
				continue
			}
			used[j] = true
			if id, ok := c.deleteIDs[p]; ok {
				ids = append(ids, id)
			}
			break
		}
	}
	return ids
}

// Len returns the number of proposals.
func (c *ChangeSet) Len() int {
	return len(c.edits) + len(c.creates) + len(c.deletes)
}

// IsEmpty returns true if no proposals remain.
func (c *ChangeSet) IsEmpty() bool {
	return c.Len() == 0
}

// Counts returns the number of proposals per kind.
func (c *ChangeSet) Counts() ChangeCounts {
	return ChangeCounts{
		Edit:   len(c.edits),
		Create: len(c.creates),
		Delete: len(c.deletes),
	}
}

// ChangeCounts holds the number of proposals per kind.
type ChangeCounts struct {
	Edit   int `json:"edit"`
	Create int `json:"create"`
	Delete int `json:"delete"`
}

// Total returns the number of proposals across kinds.
func (c ChangeCounts) Total() int {
	return c.Edit + c.Create + c.Delete
}

// Of returns the count for one kind.
func (c ChangeCounts) Of(kind ChangeKind) int {
	switch kind {
	case ChangeKindEdit:
		return c.Edit
	case ChangeKindCreate:
		return c.Create
	case ChangeKindDelete:
		return c.Delete
	default:
		return 0
	}
}

func copyEdit(e EditProposal) *EditProposal {
	out := e
	out.Changes = append([]ContentChange(nil), e.Changes...)
	return &out
}

func copyCreate(p CreateProposal) *CreateProposal {
	out := p
	if p.ParentID != nil {
		parent := *p.ParentID
		out.ParentID = &parent
	}
	return &out
}
