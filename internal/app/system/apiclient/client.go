// Package apiclient talks to a running kilntrack server over its REST API.
//
// Failures to reach the server, or responses that cannot be decoded, are
// returned as *errs.TransportError. Error responses from the server are
// returned as *APIError, which matches errs.ErrValidation for 400 and
// errs.ErrNotFound for 404.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/kilntrack/internal/app/system/urgency"
	"github.com/dalemusser/kilntrack/internal/domain/errs"
	"github.com/dalemusser/kilntrack/internal/domain/models"
)

// DefaultTimeout bounds a single request when New is given zero.
const DefaultTimeout = 10 * time.Second

// Client is a REST client for the piece API. It is safe for concurrent use.
type Client struct {
	base *url.URL
	http *http.Client
}

// New returns a client for the server at baseURL (e.g. http://localhost:8080).
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid server URL %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{base: u, http: &http.Client{Timeout: timeout}}, nil
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Is maps status codes onto the domain error kinds.
func (e *APIError) Is(target error) bool {
	switch target {
	case errs.ErrValidation:
		return e.Status == http.StatusBadRequest
	case errs.ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Action is a staged action as returned by the confirmation gate endpoints.
type Action struct {
	Token     string             `json:"token"`
	Kind      string             `json:"kind"`
	PieceID   int64              `json:"pieceId,omitempty"`
	Piece     *models.Piece      `json:"piece,omitempty"`
	Input     *models.PieceInput `json:"input,omitempty"`
	StagedAt  time.Time          `json:"stagedAt"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// Stats is the body of GET /pieces/stats.
type Stats struct {
	Pending int `json:"pending"`
	Fired   int `json:"fired"`
	Urgent  int `json:"urgent"`
	Soon    int `json:"soon"`
	OK      int `json:"ok"`
}

// List returns pending pieces, optionally for one owner.
func (c *Client) List(ctx context.Context, ownerEmail string) ([]models.Piece, error) {
	var out []models.Piece
	err := c.do(ctx, "list pieces", http.MethodGet, "/pieces", ownerQuery(ownerEmail), nil, http.StatusOK, &out)
	return out, err
}

// ListFired returns the fired history, optionally for one owner.
func (c *Client) ListFired(ctx context.Context, ownerEmail string) ([]models.Piece, error) {
	var out []models.Piece
	err := c.do(ctx, "list fired pieces", http.MethodGet, "/pieces/fired", ownerQuery(ownerEmail), nil, http.StatusOK, &out)
	return out, err
}

// Queue returns pending pieces with their urgency, filtered by firing type
// and ordered by sortKey. Empty arguments use the server defaults.
func (c *Client) Queue(ctx context.Context, firingType, sortKey string) ([]urgency.Entry, error) {
	q := url.Values{}
	if firingType != "" {
		q.Set("firingType", firingType)
	}
	if sortKey != "" {
		q.Set("sort", sortKey)
	}
	var out []urgency.Entry
	err := c.do(ctx, "queue", http.MethodGet, "/pieces/queue", q, nil, http.StatusOK, &out)
	return out, err
}

// Stats returns piece counts by status and urgency.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	err := c.do(ctx, "stats", http.MethodGet, "/pieces/stats", nil, nil, http.StatusOK, &out)
	return out, err
}

// Get returns one piece.
func (c *Client) Get(ctx context.Context, id int64) (models.Piece, error) {
	var out models.Piece
	err := c.do(ctx, "get piece", http.MethodGet, "/pieces/"+strconv.FormatInt(id, 10), nil, nil, http.StatusOK, &out)
	return out, err
}

// Create submits a piece without the confirmation gate.
func (c *Client) Create(ctx context.Context, in models.PieceInput) (models.Piece, error) {
	var out models.Piece
	err := c.do(ctx, "create piece", http.MethodPost, "/pieces", nil, in, http.StatusCreated, &out)
	return out, err
}

// StageSubmission stages a submission at the confirmation gate.
func (c *Client) StageSubmission(ctx context.Context, in models.PieceInput) (Action, error) {
	var out Action
	err := c.do(ctx, "stage submission", http.MethodPost, "/pieces/submissions", nil, in, http.StatusAccepted, &out)
	return out, err
}

// StageFire stages firing piece id at the confirmation gate.
func (c *Client) StageFire(ctx context.Context, id int64) (Action, error) {
	var out Action
	err := c.do(ctx, "stage fire", http.MethodPost, "/pieces/"+strconv.FormatInt(id, 10)+"/fire", nil, nil, http.StatusAccepted, &out)
	return out, err
}

// Approve executes a staged action and returns the resulting piece.
func (c *Client) Approve(ctx context.Context, token string) (models.Piece, error) {
	var out models.Piece
	err := c.do(ctx, "approve action", http.MethodPost, "/actions/"+url.PathEscape(token)+"/approve", nil, nil, http.StatusOK, &out)
	return out, err
}

// Cancel discards a staged action.
func (c *Client) Cancel(ctx context.Context, token string) error {
	return c.do(ctx, "cancel action", http.MethodPost, "/actions/"+url.PathEscape(token)+"/cancel", nil, nil, http.StatusNoContent, nil)
}

func ownerQuery(email string) url.Values {
	if email == "" {
		return nil
	}
	return url.Values{"userEmail": {email}}
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, want int, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return &errs.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &errs.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&eb) == nil {
			apiErr.Message = eb.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &errs.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
