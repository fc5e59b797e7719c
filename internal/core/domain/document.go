package domain

import (
	"fmt"
	"sort"
)

// DocumentNode is one document in the navigation tree.
type DocumentNode struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Title            string         `json:"title"`
	Path             string         `json:"path"`
	IsAPIRef         bool           `json:"is_api_ref"`
	ParentID         *string        `json:"parent_id,omitempty"`
	CurrentVersionID string         `json:"current_version_id,omitempty"`
	IsDeleted        bool           `json:"is_deleted"`
	CreatedAt        string         `json:"created_at,omitempty"`
	UpdatedAt        string         `json:"updated_at,omitempty"`
	Children         []DocumentNode `json:"children,omitempty"`
}

// LanguageTree holds the two document hierarchies of one language.
type LanguageTree struct {
	Documentation []DocumentNode `json:"documentation"`
	APIReferences []DocumentNode `json:"api_references"`
}

// DocumentTree maps a language code such as "en" to its document hierarchies.
type DocumentTree map[string]LanguageTree

// Languages returns the language codes present in the tree, sorted.
func (t DocumentTree) Languages() []string {
	langs := make([]string, 0, len(t))
	for lang := range t {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Find locates a document by ID in any language and returns the node and its language.
func (t DocumentTree) Find(documentID string) (*DocumentNode, string, bool) {
	for _, lang := range t.Languages() {
		tree := t[lang]
		if node := findNode(tree.Documentation, documentID); node != nil {
			return node, lang, true
		}
		if node := findNode(tree.APIReferences, documentID); node != nil {
			return node, lang, true
		}
	}
	return nil, "", false
}

// Count returns the number of nodes in the tree across languages.
func (t DocumentTree) Count() int {
	n := 0
	for _, tree := range t {
		n += countNodes(tree.Documentation) + countNodes(tree.APIReferences)
	}
	return n
}

func findNode(nodes []DocumentNode, id string) *DocumentNode {
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i]
		}
		if found := findNode(nodes[i].Children, id); found != nil {
			return found
		}
	}
	return nil
}

func countNodes(nodes []DocumentNode) int {
	n := len(nodes)
	for i := range nodes {
		n += countNodes(nodes[i].Children)
	}
	return n
}

// LatestVersion is the version alias resolving to a document's newest version.
const LatestVersion = "latest"

// DocumentVersion is one stored version of a document's content.
type DocumentVersion struct {
	Version         string   `json:"version"`
	DocumentID      string   `json:"document_id"`
	Language        string   `json:"language"`
	MarkdownContent string   `json:"markdown_content"`
	Keywords        []string `json:"keywords_array,omitempty"`
	URLs            []string `json:"urls_array,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	CreatedAt       string   `json:"created_at,omitempty"`
	UpdatedAt       string   `json:"updated_at,omitempty"`
}

// OriginalContent converts the version into the base used for patching,
// filling name, title and path from node when one is given.
func (v DocumentVersion) OriginalContent(node *DocumentNode) OriginalContent {
	oc := OriginalContent{
		MarkdownContent: v.MarkdownContent,
		Language:        v.Language,
	}
	if node != nil {
		oc.Name = node.Name
		oc.Title = node.Title
		oc.Path = node.Path
	}
	return oc
}

// NewDocument describes a document to create.
type NewDocument struct {
	Name            string `json:"name"`
	Title           string `json:"title"`
	Path            string `json:"path"`
	IsAPIRef        bool   `json:"is_api_ref,omitempty"`
	ParentID        string `json:"parent_id,omitempty"`
	Language        string `json:"language,omitempty"`
	MarkdownContent string `json:"markdown_content,omitempty"`
}

// Validate checks that name, title and path are set.
func (d NewDocument) Validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("%w: document name is required", ErrInvalidInput)
	case d.Title == "":
		return fmt.Errorf("%w: document title is required", ErrInvalidInput)
	case d.Path == "":
		return fmt.Errorf("%w: document path is required", ErrInvalidInput)
	}
	return nil
}

// NewVersion is the content of a new document version.
type NewVersion struct {
	Language        string `json:"language"`
	MarkdownContent string `json:"markdown_content"`
}
