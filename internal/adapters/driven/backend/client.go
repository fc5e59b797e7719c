// Package backend provides the REST adapter for the documentation backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docflow-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.DocumentAPI = (*Client)(nil)

// Endpoint paths, relative to the base URL.
const (
	pathAnalyze    = "/api/edit/"
	pathUpdate     = "/api/edit/update_documentation"
	pathInlineEdit = "/api/edit/inline_edit"
	pathDocuments  = "/api/documents/"
)

// maxErrorBody bounds how much of an error response is kept for messages.
const maxErrorBody = 4096

// Config holds configuration for the backend client.
type Config struct {
	// BaseURL is the backend root (default: domain.DefaultAPIBaseURL).
	BaseURL string

	// Timeout bounds each request (default: domain.DefaultAPITimeout).
	Timeout time.Duration

	// RequestsPerSecond is the proactive rate limit (0 = unlimited).
	RequestsPerSecond float64

	// HTTPClient overrides the HTTP client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to the documentation backend over HTTP.
type Client struct {
	client  *http.Client
	baseURL string
	limiter *RateLimiter
}

// NewClient creates a backend client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = domain.DefaultAPIBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = domain.DefaultAPITimeout
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: backend base url %q", domain.ErrInvalidInput, cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		client:  httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: NewRateLimiter(cfg.RequestsPerSecond),
	}, nil
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Analyze asks the backend for change proposals.
func (c *Client) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.ChangeBatch, error) {
	var batch domain.ChangeBatch
	if err := c.doJSON(ctx, http.MethodPost, pathAnalyze, req, &batch); err != nil {
		return domain.ChangeBatch{}, err
	}
	logger.Debug("analysis returned %d edits, %d creates, %d deletes",
		len(batch.Edit), len(batch.Create), len(batch.Delete))
	return batch, nil
}

// Update applies proposals.
// A non-success response whose body is a structured update result is
// returned as a result rather than an error.
func (c *Client) Update(ctx context.Context, req domain.UpdateRequest) (*domain.UpdateResult, error) {
	status, body, err := c.do(ctx, http.MethodPost, pathUpdate, req)
	if err != nil {
		return nil, err
	}

	if !isSuccess(status) {
		if result, ok := decodeStructuredResult(body); ok {
			logger.Warn("update returned %d with a structured result", status)
			return result, nil
		}
		return nil, newStatusError(http.MethodPost, pathUpdate, status, body)
	}

	var result domain.UpdateResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: decode update result: %w", domain.ErrTransport, err)
	}
	return &result, nil
}

// InlineEdit asks for a rewrite of a passage.
func (c *Client) InlineEdit(ctx context.Context, req domain.InlineEditRequest) (*domain.InlineEditResult, error) {
	var resp struct {
		Suggestion  string `json:"suggestion"`
		EditedText  string `json:"edited_text"`
		Explanation string `json:"explanation"`
		Message     string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, pathInlineEdit, req, &resp); err != nil {
		return nil, err
	}

	result := &domain.InlineEditResult{Suggestion: resp.Suggestion, Explanation: resp.Explanation}
	if result.Suggestion == "" {
		result.Suggestion = resp.EditedText
	}
	if result.Explanation == "" {
		result.Explanation = resp.Message
	}
	return result, nil
}

// Documents fetches the per-language document trees.
func (c *Client) Documents(ctx context.Context) (domain.DocumentTree, error) {
	var tree domain.DocumentTree
	if err := c.doJSON(ctx, http.MethodGet, pathDocuments, nil, &tree); err != nil {
		return nil, err
	}
	if tree == nil {
		tree = domain.DocumentTree{}
	}
	return tree, nil
}

// Versions fetches all versions of a document.
func (c *Client) Versions(ctx context.Context, documentID string) ([]domain.DocumentVersion, error) {
	var versions []domain.DocumentVersion
	path := pathDocuments + url.PathEscape(documentID) + "/versions"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// Version fetches one version of a document.
func (c *Client) Version(ctx context.Context, documentID, version string) (*domain.DocumentVersion, error) {
	var v domain.DocumentVersion
	path := pathDocuments + url.PathEscape(documentID) + "/versions/" + url.PathEscape(version)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateDocument creates a document.
func (c *Client) CreateDocument(ctx context.Context, doc domain.NewDocument) (*domain.DocumentNode, error) {
	var node domain.DocumentNode
	if err := c.doJSON(ctx, http.MethodPost, pathDocuments, doc, &node); err != nil {
		return nil, err
	}
	logger.Debug("created document %s (%s)", node.ID, doc.Path)
	return &node, nil
}

// CreateVersion stores new content for a document.
func (c *Client) CreateVersion(ctx context.Context, documentID string, v domain.NewVersion) (*domain.DocumentVersion, error) {
	var created domain.DocumentVersion
	path := pathDocuments + url.PathEscape(documentID) + "/versions"
	if err := c.doJSON(ctx, http.MethodPost, path, v, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteDocument marks a document as deleted. The backend keeps its versions.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	body := struct {
		IsDeleted bool `json:"is_deleted"`
	}{IsDeleted: true}
	return c.doJSON(ctx, http.MethodPut, pathDocuments+url.PathEscape(documentID), body, nil)
}

// doJSON sends a request and decodes a success body into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	status, body, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return newStatusError(method, path, status, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", domain.ErrTransport, method, path, err)
	}
	return nil
}

// do sends a request and returns the status and raw body.
func (c *Client) do(ctx context.Context, method, path string, in any) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("%w: rate limit wait: %w", domain.ErrTransport, err)
	}

	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s %s: %w", domain.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	c.limiter.Observe(resp)
	if !isSuccess(resp.StatusCode) {
		if until := c.limiter.PausedUntil(); until.After(start) {
			logger.Warn("backend asked to back off until %s", until.Format(time.RFC3339))
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read response: %w", domain.ErrTransport, err)
	}
	logger.Debug("%s %s -> %d (%s)", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	return resp.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func newStatusError(method, path string, status int, body []byte) error {
	return &StatusError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Detail:     errorDetail(body),
	}
}

// errorDetail extracts a readable message from an error body.
func errorDetail(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		var detail string
		if len(payload.Detail) > 0 && json.Unmarshal(payload.Detail, &detail) == nil && detail != "" {
			return detail
		}
		if len(payload.Detail) > 0 {
			return string(payload.Detail)
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return text
}

// decodeStructuredResult reports whether body is an update result.
func decodeStructuredResult(body []byte) (*domain.UpdateResult, bool) {
	var shape struct {
		TotalProcessed *int `json:"total_processed"`
	}
	if err := json.Unmarshal(body, &shape); err != nil || shape.TotalProcessed == nil {
		return nil, false
	}
	var result domain.UpdateResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, false
	}
	return &result, true
}
