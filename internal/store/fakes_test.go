package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"perfect-day/internal/client"
	"perfect-day/internal/localstore"
	"perfect-day/internal/model"
)

// memStorage is an in-memory localstore.Storage.
type memStorage struct {
	mu      sync.Mutex
	entries map[string]localstore.Entry
	failSet bool
}

func newMemStorage() *memStorage {
	return &memStorage{entries: make(map[string]localstore.Entry)}
}

func (m *memStorage) Load(_ context.Context, key string) (localstore.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return localstore.Entry{}, localstore.ErrNotFound
	}
	return e, nil
}

func (m *memStorage) Save(_ context.Context, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("disk full")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = localstore.Entry{Value: raw, SavedAt: time.Now()}
	return nil
}

func (m *memStorage) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *memStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

func (m *memStorage) tasks(key string) []model.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Task
	if e, ok := m.entries[key]; ok {
		_ = json.Unmarshal(e.Value, &out)
	}
	return out
}

// fakeAPI is an in-memory server.
type fakeAPI struct {
	mu         sync.Mutex
	offline    bool
	tasks      map[string]model.Task
	users      map[string]model.User
	passwords  map[string]string
	tokens     map[string]string
	categories []model.Category
	listCalls  int

	// updateGates blocks UpdateTask for a task title until the channel is closed.
	updateGates map[string]chan struct{}
	// createGate, when set, blocks CreateTask until closed; createEntered is
	// closed once a create is waiting on it.
	createGate    chan struct{}
	createEntered chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		tasks:     make(map[string]model.Task),
		users:     make(map[string]model.User),
		passwords: make(map[string]string),
		tokens:    make(map[string]string),
	}
}

func (f *fakeAPI) setOffline(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = v
}

func (f *fakeAPI) unreachable() error {
	if f.offline {
		return client.ErrUnreachable
	}
	return nil
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*model.User, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.unreachable(); err != nil {
		return nil, "", err
	}
	u, ok := f.users[email]
	if !ok || f.passwords[email] != password {
		return nil, "", &client.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid email or password"}
	}
	token := uuid.NewString()
	f.tokens[token] = email
	return &u, token, nil
}

func (f *fakeAPI) Session(_ context.Context, token string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.unreachable(); err != nil {
		return nil, err
	}
	email, ok := f.tokens[token]
	if !ok {
		return nil, &client.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid session"}
	}
	u := f.users[email]
	return &u, nil
}

func (f *fakeAPI) Register(_ context.Context, name, email, password string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.unreachable(); err != nil {
		return nil, err
	}
	if _, ok := f.users[email]; ok {
		return nil, &client.APIError{StatusCode: http.StatusConflict}
	}
	u := model.User{ID: uuid.NewString(), Name: name, Email: email}
	f.users[email] = u
	f.passwords[email] = password
	return &u, nil
}

func (f *fakeAPI) ListTasks(_ context.Context, userID string) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if err := f.unreachable(); err != nil {
		return nil, err
	}
	var out []model.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeAPI) CreateTask(_ context.Context, task model.Task) (*model.Task, error) {
	f.mu.Lock()
	gate, entered := f.createGate, f.createEntered
	f.createGate, f.createEntered = nil, nil
	f.mu.Unlock()
	if gate != nil {
		close(entered)
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.unreachable(); err != nil {
		return nil, err
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	f.tasks[task.ID] = task
	return &task, nil
}

func (f *fakeAPI) UpdateTask(_ context.Context, task model.Task) (*model.Task, error) {
	f.mu.Lock()
	gate := f.updateGates[task.Title]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.unreachable(); err != nil {
		return nil, err
	}
	prev, ok := f.tasks[task.ID]
	if !ok {
		return nil, &client.APIError{StatusCode: http.StatusNotFound}
	}
	task.CreatedAt = prev.CreatedAt
	task.UserID = prev.UserID
	task.UpdatedAt = time.Now()
	f.tasks[task.ID] = task
	return &task, nil
}

func (f *fakeAPI) DeleteTask(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.unreachable(); err != nil {
		return err
	}
	if _, ok := f.tasks[id]; !ok {
		return &client.APIError{StatusCode: http.StatusNotFound, Message: "Task not found"}
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeAPI) ListCategories(context.Context) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.unreachable(); err != nil {
		return nil, err
	}
	return append([]model.Category(nil), f.categories...), nil
}

func (f *fakeAPI) remoteTask(id string) (model.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	return t, ok
}
