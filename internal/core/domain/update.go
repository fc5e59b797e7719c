package domain

import "fmt"

// AnalysisRequest asks the backend for documentation change proposals.
type AnalysisRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id,omitempty"`
}

// Validate checks the request has a query.
func (r AnalysisRequest) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	return nil
}

// OriginalContent is the base text an edit is patched against.
// It is kept per document ID alongside the ChangeSet.
type OriginalContent struct {
	MarkdownContent string `json:"markdown_content"`
	Language        string `json:"language,omitempty"`
	Name            string `json:"name,omitempty"`
	Title           string `json:"title,omitempty"`
	Path            string `json:"path,omitempty"`
}

// EditWithOriginal is an edit enriched with its base content for the update call.
type EditWithOriginal struct {
	EditProposal
	OriginalContent *OriginalContent `json:"original_content,omitempty"`
}

// UpdateRequest is the body of the update call. Lists are always sent, possibly empty.
type UpdateRequest struct {
	Edit   []EditWithOriginal `json:"edit"`
	Create []CreateProposal   `json:"create"`
	Delete []DeleteProposal   `json:"delete"`
}

// NewUpdateRequest returns a request with empty, non-nil lists.
func NewUpdateRequest() UpdateRequest {
	return UpdateRequest{
		Edit:   []EditWithOriginal{},
		Create: []CreateProposal{},
		Delete: []DeleteProposal{},
	}
}

// Len returns the number of items in the request.
func (r UpdateRequest) Len() int {
	return len(r.Edit) + len(r.Create) + len(r.Delete)
}

// FailedItems mirrors the update request shape, restricted to the items that failed.
type FailedItems struct {
	Edit   []EditWithOriginal `json:"edit,omitempty"`
	Create []CreateProposal   `json:"create,omitempty"`
	Delete []DeleteProposal   `json:"delete,omitempty"`
}

// ProcessingError describes why one item failed to apply.
type ProcessingError struct {
	ErrorMessage string `json:"error_message"`
	ErrorType    string `json:"error_type"`
}

// UpdateResult is the structured outcome of the update call.
// A result with Failed > 0 is a partial failure, not an error.
type UpdateResult struct {
	Message        string            `json:"message"`
	TotalProcessed int               `json:"total_processed"`
	Successful     int               `json:"successful"`
	Failed         int               `json:"failed"`
	FailedItems    *FailedItems      `json:"failed_items,omitempty"`
	Errors         []ProcessingError `json:"errors,omitempty"`
}

// FailedEdit returns the failed edit for a document, if the result lists one.
func (r *UpdateResult) FailedEdit(documentID string) (*EditWithOriginal, bool) {
	if r.FailedItems == nil {
		return nil, false
	}
	for i := range r.FailedItems.Edit {
		if r.FailedItems.Edit[i].DocumentID == documentID {
			return &r.FailedItems.Edit[i], true
		}
	}
	return nil, false
}

// InlineEditRequest asks for a rewrite of a selected passage.
type InlineEditRequest struct {
	SelectedText string `json:"selected_text"`
	Query        string `json:"query"`
}

// InlineEditResult is the suggested rewrite of a passage.
type InlineEditResult struct {
	Suggestion  string `json:"suggestion"`
	Explanation string `json:"explanation,omitempty"`
}
