// Package clickup wraps the ClickUp REST API v2. Authentication uses a static
// personal API token from configuration; each method is a single HTTP call
// with no retries.
package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/nverhoeven/taskpilot/internal/config"
	apperrors "github.com/nverhoeven/taskpilot/internal/errors"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	nowFunc    func() time.Time
}

type ClientOption func(*Client)

func WithNowFunc(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowFunc = now
	}
}

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = h
	}
}

// New creates a ClickUp client. The rate limiter stays under ClickUp's
// 100-requests-per-minute ceiling; waiting for a slot is not a retry.
func New(cfg config.ClickUpConfig, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    cfg.GetClickUpBaseURL(),
		token:      cfg.GetClickUpToken(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(1.5), 10),
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// do issues one authenticated request and returns the raw body. Non-2xx
// responses become UpstreamError with the upstream status and body attached.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "clickup rate limiter")
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "clickup encode payload")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errors.Wrap(err, "clickup new request")
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "clickup do request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "clickup read body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apperrors.UpstreamError{StatusCode: resp.StatusCode, Body: raw}
	}
	return raw, nil
}

// Now exposes the client's clock so date filtering stays consistent with it.
func (c *Client) Now() time.Time {
	return c.nowFunc()
}

func archivedFalse() url.Values {
	return url.Values{"archived": {"false"}}
}

// TeamsRaw fetches /team and returns the unmodified upstream body. The legacy
// /clickup/teams endpoint passes this straight through.
func (c *Client) TeamsRaw(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/team", nil, nil)
}

// Teams fetches all workspaces. The raw body is returned alongside the shaped
// result for diagnostics.
func (c *Client) Teams(ctx context.Context) ([]Team, json.RawMessage, error) {
	raw, err := c.do(ctx, http.MethodGet, "/team", nil, nil)
	if err != nil {
		return nil, nil, err
	}

	var parsed struct {
		Teams []Team `json:"teams"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, raw, errors.Wrap(err, "clickup decode teams")
	}
	return parsed.Teams, raw, nil
}

// TeamMembers fetches the members of a workspace. A nil slice means the
// upstream response had no members collection at all.
func (c *Client) TeamMembers(ctx context.Context, teamID string) ([]Member, json.RawMessage, error) {
	raw, err := c.do(ctx, http.MethodGet, "/team/"+teamID, nil, nil)
	if err != nil {
		return nil, nil, err
	}

	var parsed struct {
		Team struct {
			Members []struct {
				User Member `json:"user"`
			} `json:"members"`
		} `json:"team"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, raw, errors.Wrap(err, "clickup decode team members")
	}
	if parsed.Team.Members == nil {
		return nil, raw, nil
	}

	members := make([]Member, 0, len(parsed.Team.Members))
	for _, m := range parsed.Team.Members {
		if m.User.ID == 0 {
			continue
		}
		members = append(members, m.User)
	}
	return members, raw, nil
}

// Spaces fetches the spaces of a workspace. A nil slice means the upstream
// response had no spaces collection.
func (c *Client) Spaces(ctx context.Context, teamID string) ([]Space, json.RawMessage, error) {
	raw, err := c.do(ctx, http.MethodGet, "/team/"+teamID+"/space", archivedFalse(), nil)
	if err != nil {
		return nil, nil, err
	}

	var parsed struct {
		Spaces []Space `json:"spaces"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, raw, errors.Wrap(err, "clickup decode spaces")
	}
	return parsed.Spaces, raw, nil
}

// Folders fetches the folders of a space, each with its nested lists.
func (c *Client) Folders(ctx context.Context, spaceID string) ([]Folder, error) {
	raw, err := c.do(ctx, http.MethodGet, "/space/"+spaceID+"/folder", archivedFalse(), nil)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Folders []Folder `json:"folders"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, "clickup decode folders")
	}
	return parsed.Folders, nil
}

// SpaceLists fetches the folderless lists directly under a space.
func (c *Client) SpaceLists(ctx context.Context, spaceID string) ([]ListSummary, error) {
	raw, err := c.do(ctx, http.MethodGet, "/space/"+spaceID+"/list", archivedFalse(), nil)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Lists []ListSummary `json:"lists"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, "clickup decode space lists")
	}
	return parsed.Lists, nil
}

// List fetches a single list, including its status set.
func (c *Client) List(ctx context.Context, listID string) (*List, error) {
	raw, err := c.do(ctx, http.MethodGet, "/list/"+listID, nil, nil)
	if err != nil {
		return nil, err
	}

	var list List
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, errors.Wrap(err, "clickup decode list")
	}
	return &list, nil
}

// Tasks fetches all tasks of a list, closed ones included. The result is
// never nil.
func (c *Client) Tasks(ctx context.Context, listID string) ([]Task, error) {
	query := archivedFalse()
	query.Set("include_closed", "true")

	raw, err := c.do(ctx, http.MethodGet, "/list/"+listID+"/task", query, nil)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Tasks []Task `json:"tasks"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, "clickup decode tasks")
	}
	if parsed.Tasks == nil {
		return []Task{}, nil
	}
	return parsed.Tasks, nil
}

// TaskCount fetches the first page of a list's tasks and reports the total.
func (c *Client) TaskCount(ctx context.Context, listID string) (int, error) {
	query := archivedFalse()
	query.Set("page", "0")
	query.Set("subtasks", "false")

	raw, err := c.do(ctx, http.MethodGet, "/list/"+listID+"/task", query, nil)
	if err != nil {
		return 0, err
	}

	var parsed struct {
		TotalTasks int `json:"total_tasks"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, errors.Wrap(err, "clickup decode task count")
	}
	return parsed.TotalTasks, nil
}

// Task fetches a single task.
func (c *Client) Task(ctx context.Context, taskID string) (*TaskDetail, error) {
	raw, err := c.do(ctx, http.MethodGet, "/task/"+taskID, nil, nil)
	if err != nil {
		return nil, err
	}

	var task TaskDetail
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, errors.Wrap(err, "clickup decode task")
	}
	return &task, nil
}

// UpdateTask PUTs the given fields onto a task. The upstream response must
// echo the task id for the update to count as successful.
func (c *Client) UpdateTask(ctx context.Context, taskID string, fields map[string]any) (*UpdateResult, error) {
	raw, err := c.do(ctx, http.MethodPut, "/task/"+taskID, nil, fields)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, "clickup decode update response")
	}
	if parsed.ID == "" {
		return nil, &apperrors.UpstreamError{StatusCode: http.StatusBadGateway, Body: raw}
	}
	return &UpdateResult{ID: parsed.ID, Raw: raw}, nil
}

// CreateTask creates a task in a list.
func (c *Client) CreateTask(ctx context.Context, listID string, req CreateTaskRequest) (*UpdateResult, error) {
	raw, err := c.do(ctx, http.MethodPost, "/list/"+listID+"/task", nil, req)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, "clickup decode create response")
	}
	if parsed.ID == "" {
		return nil, &apperrors.UpstreamError{StatusCode: http.StatusBadGateway, Body: raw}
	}
	return &UpdateResult{ID: parsed.ID, Raw: raw}, nil
}

// Comments fetches all comments of a task in upstream order.
func (c *Client) Comments(ctx context.Context, taskID string) ([]Comment, error) {
	raw, err := c.do(ctx, http.MethodGet, "/task/"+taskID+"/comment", nil, nil)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Comments []Comment `json:"comments"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, "clickup decode comments")
	}
	return parsed.Comments, nil
}

// AddComment posts a comment onto a task.
func (c *Client) AddComment(ctx context.Context, taskID, text string) (*UpdateResult, error) {
	raw, err := c.do(ctx, http.MethodPost, "/task/"+taskID+"/comment", nil, map[string]string{"comment_text": text})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, "clickup decode comment response")
	}
	if parsed.ID.String() == "" {
		return nil, &apperrors.UpstreamError{StatusCode: http.StatusBadGateway, Body: raw}
	}
	return &UpdateResult{ID: parsed.ID.String(), Raw: raw}, nil
}
