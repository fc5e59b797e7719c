package domain

import "fmt"

// ChangeKind discriminates the proposal variants of a change set.
type ChangeKind string

// Available change kinds, in visible-list order.
const (
	// ChangeKindEdit modifies an existing document in place.
	ChangeKindEdit ChangeKind = "edit"

	// ChangeKindCreate adds a new document.
	ChangeKindCreate ChangeKind = "create"

	// ChangeKindDelete removes an existing document.
	ChangeKindDelete ChangeKind = "delete"
)

// AllChangeKinds returns the change kinds in visible-list order.
func AllChangeKinds() []ChangeKind {
	return []ChangeKind{ChangeKindEdit, ChangeKindCreate, ChangeKindDelete}
}

// IsValid returns true if the change kind is recognised.
func (k ChangeKind) IsValid() bool {
	switch k {
	case ChangeKindEdit, ChangeKindCreate, ChangeKindDelete:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k ChangeKind) String() string {
	return string(k)
}

// Identity addresses one proposal within a ChangeSet for selection and merging.
// Edits use their document ID. Creates and deletes use "create-{i}" and
// "delete-{i}", assigned once per ChangeSet in response order.
type Identity string

// String returns the string representation.
func (i Identity) String() string {
	return string(i)
}

// positionalIdentity builds the synthetic identity for a create or delete.
func positionalIdentity(kind ChangeKind, index int) Identity {
	return Identity(fmt.Sprintf("%s-%d", kind, index))
}

// ContentChange is a single verbatim-substring replacement.
type ContentChange struct {
	OldString string `json:"old_string"`
	NewString string `json:"new_string"`
}

// EditProposal modifies an existing document.
// DocumentID is the natural key: a ChangeSet holds at most one edit per document.
type EditProposal struct {
	DocumentID string          `json:"document_id"`
	Version    string          `json:"version"`
	Changes    []ContentChange `json:"changes"`
}

// CreateProposal adds a new document. It has no natural key.
type CreateProposal struct {
	Name              string  `json:"name"`
	Path              string  `json:"path"`
	Title             string  `json:"title"`
	ParentID          *string `json:"parent_id"`
	IsAPIRef          bool    `json:"is_api_ref"`
	MarkdownContentEN string  `json:"markdown_content_en"`
	MarkdownContentJA string  `json:"markdown_content_ja"`
}

// Equal reports whether two create proposals carry the same content.
func (p CreateProposal) Equal(o CreateProposal) bool {
	if p.Name != o.Name || p.Path != o.Path || p.Title != o.Title ||
		p.IsAPIRef != o.IsAPIRef ||
		p.MarkdownContentEN != o.MarkdownContentEN ||
		p.MarkdownContentJA != o.MarkdownContentJA {
		return false
	}
	if p.ParentID == nil || o.ParentID == nil {
		return p.ParentID == nil && o.ParentID == nil
	}
	return *p.ParentID == *o.ParentID
}

// DeleteProposal removes an existing document version.
// The same document may appear in more than one delete across batches,
// so identity is positional rather than keyed on DocumentID.
type DeleteProposal struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Path       string `json:"path"`
	Version    string `json:"version"`
}

// Equal reports whether two delete proposals target the same document version.
func (p DeleteProposal) Equal(o DeleteProposal) bool {
	return p == o
}

// ChangeBatch is the wire form of a change set: the analysis response shape.
// Any of the three lists may be absent or empty.
type ChangeBatch struct {
	Edit   []EditProposal   `json:"edit,omitempty"`
	Create []CreateProposal `json:"create,omitempty"`
	Delete []DeleteProposal `json:"delete,omitempty"`
}

// IsEmpty returns true if the batch carries no proposals.
func (b ChangeBatch) IsEmpty() bool {
	return len(b.Edit) == 0 && len(b.Create) == 0 && len(b.Delete) == 0
}

// Len returns the total number of proposals.
func (b ChangeBatch) Len() int {
	return len(b.Edit) + len(b.Create) + len(b.Delete)
}

// Proposal is the tagged union over the three proposal kinds.
// Exactly one of Edit, Create or Delete is set, matching Kind.
type Proposal struct {
	Kind   ChangeKind
	ID     Identity
	Edit   *EditProposal
	Create *CreateProposal
	Delete *DeleteProposal
}

// Title returns a human-readable label for the proposal.
func (p Proposal) Title() string {
	switch p.Kind {
	case ChangeKindEdit:
		return p.Edit.DocumentID
	case ChangeKindCreate:
		if p.Create.Title != "" {
			return p.Create.Title
		}
		return p.Create.Name
	case ChangeKindDelete:
		if p.Delete.Title != "" {
			return p.Delete.Title
		}
		return p.Delete.DocumentID
	default:
		return string(p.ID)
	}
}

// Path returns the document path the proposal targets, if known.
func (p Proposal) Path() string {
	switch p.Kind {
	case ChangeKindCreate:
		return p.Create.Path
	case ChangeKindDelete:
		return p.Delete.Path
	default:
		return ""
	}
}
