// Package client is the command adapter for the unified goal boundary. It
// (de)serializes requests and responses and carries no business logic: a
// draft is validated with goalengine before it ever reaches Create or
// Update, and the adapter's own job is limited to transport.
//
// Callers are expected to reload the full list after every mutating call
// rather than patching locally; concurrent in-flight requests are unordered
// and the adapter performs no retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"unigoals/internal/goalengine"
	"unigoals/internal/models"
)

// ErrNotFound reports an update or delete against a stale id.
var ErrNotFound = errors.New("goal not found")

// TransportError wraps any boundary failure that is not a stale id: network
// errors, malformed responses, server rejections. The cause stays reachable
// through Unwrap so callers that care can still distinguish.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: server returned %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// ListOptions mirror the view engine's inputs plus the timezone offset the
// server needs for debt classification and recurrence generation.
type ListOptions struct {
	Search                string
	Filter                goalengine.Filter
	SortBy                goalengine.SortBy
	TimezoneOffsetMinutes int
	StartDate             *time.Time
	EndDate               *time.Time
}

// GoalList is the partitioned result of a list call.
type GoalList struct {
	Debt    []models.Goal `json:"debtGoals"`
	Regular []models.Goal `json:"regularGoals"`
}

// All flattens the partition back into a single slice, debt first.
func (l GoalList) All() []models.Goal {
	out := make([]models.Goal, 0, len(l.Debt)+len(l.Regular))
	out = append(out, l.Debt...)
	out = append(out, l.Regular...)
	return out
}

func (c *Client) List(ctx context.Context, opts ListOptions) (GoalList, error) {
	q := url.Values{}
	q.Set("timezoneOffset", strconv.Itoa(opts.TimezoneOffsetMinutes))
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.Filter != "" {
		q.Set("filter", string(opts.Filter))
	}
	if opts.SortBy != "" {
		q.Set("sortBy", string(opts.SortBy))
	}
	if opts.StartDate != nil && opts.EndDate != nil {
		q.Set("startDate", opts.StartDate.UTC().Format(time.RFC3339))
		q.Set("endDate", opts.EndDate.UTC().Format(time.RFC3339))
	}

	var list GoalList
	if err := c.do(ctx, "list", http.MethodGet, "/api/goals/", q, nil, &list); err != nil {
		return GoalList{}, err
	}
	return list, nil
}

func (c *Client) Create(ctx context.Context, payload models.GoalPayload, offsetMinutes int) (*models.Goal, error) {
	if strings.TrimSpace(payload.Text) == "" {
		return nil, &goalengine.ValidationError{Field: "text", Message: "must not be blank"}
	}

	q := url.Values{"timezoneOffset": {strconv.Itoa(offsetMinutes)}}
	var goal models.Goal
	if err := c.do(ctx, "create", http.MethodPost, "/api/goals/", q, payload, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

func (c *Client) Update(ctx context.Context, id string, payload models.GoalPayload, offsetMinutes int) (*models.Goal, error) {
	if strings.TrimSpace(payload.Text) == "" {
		return nil, &goalengine.ValidationError{Field: "text", Message: "must not be blank"}
	}

	q := url.Values{"timezoneOffset": {strconv.Itoa(offsetMinutes)}}
	var goal models.Goal
	if err := c.do(ctx, "update", http.MethodPut, "/api/goals/"+id, q, payload, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, "/api/goals/"+id, nil, nil, nil)
}

func (c *Client) Toggle(ctx context.Context, id string) (*models.Goal, error) {
	var goal models.Goal
	if err := c.do(ctx, "toggle", http.MethodPost, "/api/goals/"+id+"/toggle", nil, nil, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

// Parse asks the server what smart parsing extracts from draft text.
func (c *Client) Parse(ctx context.Context, text string, offsetMinutes int) (goalengine.ParseResult, error) {
	body := map[string]any{
		"text":                  text,
		"timezoneOffsetMinutes": offsetMinutes,
	}
	var res goalengine.ParseResult
	if err := c.do(ctx, "parse", http.MethodPost, "/api/goals/parse", nil, body, &res); err != nil {
		return goalengine.ParseResult{}, err
	}
	return res, nil
}

func (c *Client) DebtTrail(ctx context.Context, endDate string, daysBack, offsetMinutes int) ([]goalengine.DebtTrailItem, error) {
	q := url.Values{
		"timezoneOffset": {strconv.Itoa(offsetMinutes)},
		"daysBack":       {strconv.Itoa(daysBack)},
	}
	if endDate != "" {
		q.Set("endDate", endDate)
	}
	var trail []goalengine.DebtTrailItem
	if err := c.do(ctx, "debt-trail", http.MethodGet, "/api/goals/debt-trail", q, nil, &trail); err != nil {
		return nil, err
	}
	return trail, nil
}

func (c *Client) Stats(ctx context.Context) (goalengine.Stats, error) {
	var stats goalengine.Stats
	if err := c.do(ctx, "stats", http.MethodGet, "/api/goals/stats", nil, nil, &stats); err != nil {
		return goalengine.Stats{}, err
	}
	return stats, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return &TransportError{Op: op, Status: resp.StatusCode, Err: errors.New(apiErr.Error)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: err}
	}
	return nil
}
