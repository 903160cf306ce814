package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hayathine/paperterrace/internal/model"
)

// ErrInvalidBaseURL is returned when the configured API base URL does not
// parse as an absolute URL.
var ErrInvalidBaseURL = errors.New("api: base URL must be absolute")

// maxResponseBytes limits API response bodies. Layout payloads for long
// documents are large but bounded; 64MB leaves generous headroom while
// preventing memory exhaustion from a misbehaving server.
const maxResponseBytes = 64 * 1024 * 1024

// DefaultRequestTimeout bounds the one-shot API calls. The incremental feed
// is exempt: it is long-lived and managed by the stream package.
const DefaultRequestTimeout = 30 * time.Second

// Client talks to the analysis backend.
//
// Design decision: The client takes an external *http.Client rather than
// building its own so tests can inject an httptest server's client and the
// CLI can share one transport across components.
type Client struct {
	// base is the parsed API base URL.
	base *url.URL

	// http performs the requests.
	http *http.Client

	// userAgent is sent with every request.
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		if ua != "" {
			cl.userAgent = ua
		}
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	cl := &Client{
		base:      base,
		http:      &http.Client{Timeout: DefaultRequestTimeout},
		userAgent: "paperterrace/1.0",
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl, nil
}

// StartAnalysisRequest submits a source document for analysis.
type StartAnalysisRequest struct {
	// DocumentID identifies the uploaded source document.
	DocumentID string `json:"document_id"`

	// Language is the requested translation/analysis language.
	Language string `json:"language,omitempty"`

	// SessionID is the caller-generated reading session id.
	SessionID string `json:"session_id"`
}

// StartAnalysisResponse carries the analysis task handle.
type StartAnalysisResponse struct {
	// TaskID identifies the backend analysis task.
	TaskID string `json:"task_id"`

	// StreamURL is where the incremental feed for this task is served.
	// May be relative to the API base.
	StreamURL string `json:"stream_url"`
}

// StartAnalysis submits a document and returns the task handle whose
// stream URL the feed ingestor consumes.
func (c *Client) StartAnalysis(ctx context.Context, req StartAnalysisRequest) (*StartAnalysisResponse, error) {
	var resp StartAnalysisResponse
	if err := c.postJSON(ctx, "/api/analysis", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to start analysis: %w", err)
	}
	if resp.StreamURL == "" {
		return nil, errors.New("api: start analysis response carries no stream URL")
	}
	return &resp, nil
}

// ResolveStreamURL makes a possibly-relative stream URL absolute against
// the API base.
func (c *Client) ResolveStreamURL(streamURL string) (string, error) {
	u, err := url.Parse(streamURL)
	if err != nil {
		return "", fmt.Errorf("invalid stream URL: %w", err)
	}
	return c.base.ResolveReference(u).String(), nil
}

// DocumentPayload is the one-shot full fetch of completed analysis data.
type DocumentPayload struct {
	// LayoutJSON is the serialized per-page word/figure/link arrays.
	// Empty when the backend has no completed analysis for the document.
	LayoutJSON json.RawMessage `json:"layout_json"`

	// FlatText is the document's full text.
	FlatText string `json:"flat_text"`

	// ContentHash locates the rendered page images.
	ContentHash string `json:"content_hash"`

	// Title is the document title, if known.
	Title string `json:"title"`
}

// Complete reports whether the payload carries usable layout data.
func (p *DocumentPayload) Complete() bool {
	return p != nil && len(p.LayoutJSON) > 0 && string(p.LayoutJSON) != "null" && p.ContentHash != ""
}

// Pages decodes the layout payload into pages.
func (p *DocumentPayload) Pages() ([]*model.Page, error) {
	return model.DecodeLayout(p.LayoutJSON)
}

// FetchDocument retrieves already-completed analysis for a document.
// A 404 returns (nil, nil): the document simply has no completed analysis.
func (c *Client) FetchDocument(ctx context.Context, documentID string) (*DocumentPayload, error) {
	var payload DocumentPayload
	found, err := c.getJSON(ctx, "/api/documents/"+url.PathEscape(documentID), &payload)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document %s: %w", documentID, err)
	}
	if !found {
		return nil, nil
	}
	return &payload, nil
}

// CreateStamp persists a stamp placement and returns the server-assigned id.
func (c *Client) CreateStamp(ctx context.Context, documentID string, stamp model.Stamp) (string, error) {
	body := struct {
		Type    string  `json:"type"`
		X       float64 `json:"x"`
		Y       float64 `json:"y"`
		PageNum int     `json:"page_num"`
	}{stamp.Type, stamp.X, stamp.Y, stamp.PageNum}

	var resp struct {
		StampID string `json:"stamp_id"`
	}
	if err := c.postJSON(ctx, "/api/documents/"+url.PathEscape(documentID)+"/stamps", body, &resp); err != nil {
		return "", fmt.Errorf("failed to create stamp: %w", err)
	}
	if resp.StampID == "" {
		return "", errors.New("api: create stamp response carries no stamp id")
	}
	return resp.StampID, nil
}

// DeleteStamp removes a stamp by its server-assigned id.
func (c *Client) DeleteStamp(ctx context.Context, documentID, stampID string) error {
	endpoint := "/api/documents/" + url.PathEscape(documentID) + "/stamps/" + url.PathEscape(stampID)
	req, err := c.newRequest(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete stamp: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete stamp returned status %d", resp.StatusCode)
	}
	return nil
}

// ListStamps retrieves all confirmed stamps for a document.
func (c *Client) ListStamps(ctx context.Context, documentID string) ([]model.Stamp, error) {
	var resp struct {
		Stamps []model.Stamp `json:"stamps"`
	}
	found, err := c.getJSON(ctx, "/api/documents/"+url.PathEscape(documentID)+"/stamps", &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to list stamps: %w", err)
	}
	if !found {
		return nil, nil
	}
	return resp.Stamps, nil
}

// newRequest builds a request against the API base with common headers.
func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	u := c.base.ResolveReference(&url.URL{Path: endpoint})
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// getJSON performs a GET and decodes the JSON response. Returns found=false
// for a 404 without error.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("failed to parse response: %w", err)
	}
	return true, nil
}

// postJSON performs a POST with a JSON body and decodes the JSON response.
func (c *Client) postJSON(ctx context.Context, endpoint string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
