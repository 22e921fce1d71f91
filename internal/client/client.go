// Package client talks to the Perfect Day REST API.
package client

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

	"perfect-day/internal/model"
)

// SessionHeader mirrors the header the server sets on login.
const SessionHeader = "X-Session-Token"

// Client is a thin JSON client for the REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// NewWithHTTPClient lets tests plug in an httptest client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// do sends body as JSON and decodes a 2xx response into out when out is not nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any, header http.Header) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnreachable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s: %v", ErrUnreachable, method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &payload)
		return resp.Header, &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.Header, fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, method, path, err)
		}
	}
	return resp.Header, nil
}

// Login returns the user and a session token.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	var user model.User
	header, err := c.do(ctx, http.MethodPost, "/api/auth", map[string]string{"email": email, "password": password}, &user, nil)
	if err != nil {
		return nil, "", err
	}
	return &user, header.Get(SessionHeader), nil
}

// Session resolves a session token to its user.
func (c *Client) Session(ctx context.Context, token string) (*model.User, error) {
	var user model.User
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	if _, err := c.do(ctx, http.MethodGet, "/api/auth", nil, &user, h); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	var user model.User
	body := map[string]string{"name": name, "email": email, "password": password}
	if _, err := c.do(ctx, http.MethodPost, "/api/users", body, &user, nil); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListTasks(ctx context.Context, userID string) ([]model.Task, error) {
	var tasks []model.Task
	if _, err := c.do(ctx, http.MethodGet, "/api/tasks?userId="+url.QueryEscape(userID), nil, &tasks, nil); err != nil {
		return nil, err
	}
	return tasks, nil
}

type taskBody struct {
	ID          string         `json:"id,omitempty"`
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	DueDate     *time.Time     `json:"dueDate"`
	Completed   bool           `json:"completed"`
	Priority    model.Priority `json:"priority,omitempty"`
	UserID      string         `json:"userId,omitempty"`
	CategoryID  *string        `json:"categoryId"`
	RoutineID   *string        `json:"routineId,omitempty"`
}

func (c *Client) CreateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	body := taskBody{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Completed:   task.Completed,
		Priority:    task.Priority,
		UserID:      task.UserID,
		CategoryID:  task.CategoryID,
		RoutineID:   task.RoutineID,
	}
	var created model.Task
	if _, err := c.do(ctx, http.MethodPost, "/api/tasks", body, &created, nil); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTask sends every editable field, so nil values clear them server side.
func (c *Client) UpdateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	body := taskBody{
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Completed:   task.Completed,
		Priority:    task.Priority,
		CategoryID:  task.CategoryID,
	}
	var updated model.Task
	if _, err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(task.ID), body, &updated, nil); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil, nil)
	return err
}

func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if _, err := c.do(ctx, http.MethodGet, "/api/categories", nil, &categories, nil); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) CreateCategory(ctx context.Context, name, color string) (*model.Category, error) {
	var category model.Category
	body := map[string]string{"name": name, "color": color}
	if _, err := c.do(ctx, http.MethodPost, "/api/categories", body, &category, nil); err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *Client) ListMoods(ctx context.Context, userID string) ([]model.Mood, error) {
	var moods []model.Mood
	if _, err := c.do(ctx, http.MethodGet, "/api/moods?userId="+url.QueryEscape(userID), nil, &moods, nil); err != nil {
		return nil, err
	}
	return moods, nil
}

func (c *Client) CreateMood(ctx context.Context, userID string, value int, note *string) (*model.Mood, error) {
	var mood model.Mood
	body := map[string]any{"userId": userID, "value": value, "note": note}
	if _, err := c.do(ctx, http.MethodPost, "/api/moods", body, &mood, nil); err != nil {
		return nil, err
	}
	return &mood, nil
}

func (c *Client) ListRoutines(ctx context.Context, userID string) ([]model.Routine, error) {
	var routines []model.Routine
	if _, err := c.do(ctx, http.MethodGet, "/api/routines?userId="+url.QueryEscape(userID), nil, &routines, nil); err != nil {
		return nil, err
	}
	return routines, nil
}

func (c *Client) CreateRoutine(ctx context.Context, r model.Routine) (*model.Routine, error) {
	body := map[string]any{
		"title":       r.Title,
		"description": r.Description,
		"time":        r.Time,
		"isActive":    r.IsActive,
		"frequency":   r.Frequency,
		"days":        r.Days,
		"userId":      r.UserID,
	}
	var created model.Routine
	if _, err := c.do(ctx, http.MethodPost, "/api/routines", body, &created, nil); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) SetRoutineActive(ctx context.Context, id string, active bool) (*model.Routine, error) {
	var updated model.Routine
	body := map[string]bool{"isActive": active}
	if _, err := c.do(ctx, http.MethodPatch, "/api/routines/"+url.PathEscape(id), body, &updated, nil); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteRoutine(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/routines/"+url.PathEscape(id), nil, nil, nil)
	return err
}

func (c *Client) ListJournal(ctx context.Context, userID, query string) ([]model.JournalEntry, error) {
	q := url.Values{}
	q.Set("userId", userID)
	if query != "" {
		q.Set("q", query)
	}
	var entries []model.JournalEntry
	if _, err := c.do(ctx, http.MethodGet, "/api/journal?"+q.Encode(), nil, &entries, nil); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) CreateJournal(ctx context.Context, userID, content string, tags []string) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	body := map[string]any{"userId": userID, "content": content, "tags": tags}
	if _, err := c.do(ctx, http.MethodPost, "/api/journal", body, &entry, nil); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) DeleteJournal(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/journal/"+url.PathEscape(id), nil, nil, nil)
	return err
}
