package store

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

	"taskflow/internal/model"
	"taskflow/internal/record"
)

const remotePageSize = 200

// Client talks to a record service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a client for the record service at baseURL. token is
// sent as a bearer token when non-empty.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// RemoteError is a failed call reported by the record service.
type RemoteError struct {
	Status  int
	Message string
	Fields  []record.FieldError
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("record service: %d %s", e.Status, e.Message)
	for _, f := range e.Fields {
		msg += "; " + f.Error()
	}
	return msg
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (*int64, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env record.Envelope[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%s %s: decode response (status %d): %w", method, path, resp.StatusCode, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return nil, &RemoteError{Status: resp.StatusCode, Message: env.Message, Fields: env.Errors}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("%s %s: decode data: %w", method, path, err)
		}
	}
	return env.Total, nil
}

// listAll pages through a kind until every row has been read.
func listAll[R any](ctx context.Context, c *Client, kind string) ([]R, error) {
	var all []R
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(remotePageSize))

		var rows []R
		total, err := c.do(ctx, http.MethodGet, "/api/v1/"+kind+"?"+q.Encode(), nil, &rows)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		if len(rows) == 0 || total == nil || int64(len(all)) >= *total {
			return all, nil
		}
	}
}

func itemPath(kind, id string) (string, error) {
	if _, err := record.ParseID(id); err != nil {
		return "", fmt.Errorf("%w: %s %s", ErrNotFound, strings.TrimSuffix(kind, "s"), id)
	}
	return "/api/v1/" + kind + "/" + url.PathEscape(id), nil
}

// RemoteTaskStore is a TaskStore backed by a record service.
type RemoteTaskStore struct {
	c *Client
}

func NewRemoteTaskStore(c *Client) *RemoteTaskStore {
	return &RemoteTaskStore{c: c}
}

func (s *RemoteTaskStore) GetAll(ctx context.Context) ([]model.Task, error) {
	rows, err := listAll[record.TaskRecord](ctx, s.c, record.KindTasks)
	if err != nil {
		return nil, err
	}
	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, record.TaskFromRecord(r))
	}
	return tasks, nil
}

func (s *RemoteTaskStore) GetByID(ctx context.Context, id string) (model.Task, error) {
	path, err := itemPath(record.KindTasks, id)
	if err != nil {
		return model.Task{}, err
	}
	var row record.TaskRecord
	if _, err := s.c.do(ctx, http.MethodGet, path, nil, &row); err != nil {
		return model.Task{}, err
	}
	return record.TaskFromRecord(row), nil
}

func (s *RemoteTaskStore) Create(ctx context.Context, task model.Task) (model.Task, error) {
	task.ID = ""
	row, err := record.TaskToRecord(task)
	if err != nil {
		return model.Task{}, err
	}
	if task.CreatedAt.IsZero() {
		row.CreatedAt = ""
	}
	var created record.TaskRecord
	if _, err := s.c.do(ctx, http.MethodPost, "/api/v1/"+record.KindTasks, row, &created); err != nil {
		return model.Task{}, err
	}
	return record.TaskFromRecord(created), nil
}

func (s *RemoteTaskStore) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	path, err := itemPath(record.KindTasks, id)
	if err != nil {
		return model.Task{}, err
	}
	fields, err := record.TaskPatchFields(patch)
	if err != nil {
		return model.Task{}, err
	}
	var row record.TaskRecord
	if _, err := s.c.do(ctx, http.MethodPatch, path, fields, &row); err != nil {
		return model.Task{}, err
	}
	return record.TaskFromRecord(row), nil
}

func (s *RemoteTaskStore) Delete(ctx context.Context, id string) error {
	path, err := itemPath(record.KindTasks, id)
	if err != nil {
		return err
	}
	_, err = s.c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// RemoteCategoryStore is a CategoryStore backed by a record service.
type RemoteCategoryStore struct {
	c *Client
}

func NewRemoteCategoryStore(c *Client) *RemoteCategoryStore {
	return &RemoteCategoryStore{c: c}
}

func (s *RemoteCategoryStore) GetAll(ctx context.Context) ([]model.Category, error) {
	rows, err := listAll[record.CategoryRecord](ctx, s.c, record.KindCategories)
	if err != nil {
		return nil, err
	}
	out := make([]model.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, record.CategoryFromRecord(r))
	}
	sortCategories(out)
	return out, nil
}

func (s *RemoteCategoryStore) GetByID(ctx context.Context, id string) (model.Category, error) {
	path, err := itemPath(record.KindCategories, id)
	if err != nil {
		return model.Category{}, err
	}
	var row record.CategoryRecord
	if _, err := s.c.do(ctx, http.MethodGet, path, nil, &row); err != nil {
		return model.Category{}, err
	}
	return record.CategoryFromRecord(row), nil
}

func (s *RemoteCategoryStore) Create(ctx context.Context, category model.Category) (model.Category, error) {
	category.ID = ""
	row, err := record.CategoryToRecord(category)
	if err != nil {
		return model.Category{}, err
	}
	var created record.CategoryRecord
	if _, err := s.c.do(ctx, http.MethodPost, "/api/v1/"+record.KindCategories, row, &created); err != nil {
		return model.Category{}, err
	}
	return record.CategoryFromRecord(created), nil
}

func (s *RemoteCategoryStore) Update(ctx context.Context, id string, patch model.CategoryPatch) (model.Category, error) {
	path, err := itemPath(record.KindCategories, id)
	if err != nil {
		return model.Category{}, err
	}
	var row record.CategoryRecord
	if _, err := s.c.do(ctx, http.MethodPatch, path, record.CategoryPatchFields(patch), &row); err != nil {
		return model.Category{}, err
	}
	return record.CategoryFromRecord(row), nil
}

func (s *RemoteCategoryStore) Delete(ctx context.Context, id string) error {
	path, err := itemPath(record.KindCategories, id)
	if err != nil {
		return err
	}
	_, err = s.c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

var (
	_ TaskStore     = (*RemoteTaskStore)(nil)
	_ CategoryStore = (*RemoteCategoryStore)(nil)
)
