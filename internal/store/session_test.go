package store

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"perfect-day/internal/client"
	"perfect-day/internal/model"
)

func TestRedirect(t *testing.T) {
	tests := []struct {
		state    AuthState
		path     string
		want     string
		redirect bool
	}{
		{Unauthenticated, "/", LoginPath, true},
		{Unauthenticated, "/tasks", LoginPath, true},
		{Unauthenticated, LoginPath, LoginPath, false},
		{Authenticated, LoginPath, "/", true},
		{Authenticated, "/tasks", "/tasks", false},
		{Checking, "/tasks", "/tasks", false},
	}
	for _, tt := range tests {
		got, redirect := Redirect(tt.state, tt.path)
		if got != tt.want || redirect != tt.redirect {
			t.Errorf("Redirect(%v, %q) = %q, %v; want %q, %v", tt.state, tt.path, got, redirect, tt.want, tt.redirect)
		}
	}
}

func TestLoginWrongPassword(t *testing.T) {
	api := newFakeAPI()
	s := New(api, newMemStorage(), nil)
	ctx := context.Background()
	if err := s.Register(ctx, "A", "a@x.com", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	err := s.Login(ctx, "a@x.com", "wrong")
	if !client.IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("Expected 401 APIError, got %v", err)
	}
	if s.IsAuthenticated() {
		t.Error("Expected to stay signed out")
	}
}

func TestBootstrapNoSession(t *testing.T) {
	s := New(newFakeAPI(), newMemStorage(), nil)
	state, err := s.Bootstrap(context.Background())
	if err != nil || state != Unauthenticated {
		t.Errorf("Bootstrap() = %v, %v; want Unauthenticated", state, err)
	}
}

func TestBootstrapRestoresSession(t *testing.T) {
	api := newFakeAPI()
	local := newMemStorage()
	ctx := context.Background()

	first := New(api, local, nil)
	if err := first.Register(ctx, "A", "a@x.com", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	first.AddTask(ctx, model.Task{Title: "Persisted"})

	second := New(api, local, nil)
	state, err := second.Bootstrap(ctx)
	if err != nil || state != Authenticated {
		t.Fatalf("Bootstrap() = %v, %v", state, err)
	}
	if second.User() == nil || second.User().Email != "a@x.com" {
		t.Errorf("Expected restored user, got %+v", second.User())
	}
	if len(second.Tasks()) != 1 {
		t.Errorf("Expected tasks loaded, got %d", len(second.Tasks()))
	}
}

func TestBootstrapOfflineTrustsCachedUser(t *testing.T) {
	api := newFakeAPI()
	local := newMemStorage()
	ctx := context.Background()

	first := New(api, local, nil)
	if err := first.Register(ctx, "A", "a@x.com", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	first.AddTask(ctx, model.Task{Title: "Cached"})

	api.setOffline(true)
	second := New(api, local, nil)
	state, err := second.Bootstrap(ctx)
	if state != Authenticated {
		t.Fatalf("Expected Authenticated from cache, got %v", state)
	}
	if !errors.Is(err, client.ErrUnreachable) {
		t.Errorf("Expected load error ErrUnreachable, got %v", err)
	}
	if len(second.Tasks()) != 1 {
		t.Errorf("Expected local tasks, got %d", len(second.Tasks()))
	}
}

func TestBootstrapRejectedToken(t *testing.T) {
	local := newMemStorage()
	ctx := context.Background()
	local.Save(ctx, keySession, "forged")
	local.Save(ctx, keyUser, model.User{ID: "u1", Email: "x@x.com"})

	s := New(newFakeAPI(), local, nil)
	state, err := s.Bootstrap(ctx)
	if err != nil || state != Unauthenticated {
		t.Fatalf("Bootstrap() = %v, %v; want Unauthenticated", state, err)
	}
	if local.has(keySession) || local.has(keyUser) {
		t.Error("Expected rejected session to be cleared")
	}
}

func TestLogoutKeepsUserData(t *testing.T) {
	s, _, local := signedIn(t)
	ctx := context.Background()
	uid := s.User().ID
	s.AddTask(ctx, model.Task{Title: "Mine"})

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if s.AuthState() != Unauthenticated || s.User() != nil || len(s.Tasks()) != 0 {
		t.Error("Expected store cleared after logout")
	}
	if local.has(keySession) || local.has(keyUser) {
		t.Error("Expected session keys removed")
	}
	if len(local.tasks(tasksKey(uid))) != 1 {
		t.Error("Expected user tasks kept in local storage")
	}
}

func TestAddTaskDroppedWhenUserChanges(t *testing.T) {
	s, api, local := signedIn(t)
	ctx := context.Background()
	first := s.User().ID

	gate, entered := make(chan struct{}), make(chan struct{})
	api.mu.Lock()
	api.createGate, api.createEntered = gate, entered
	api.mu.Unlock()

	done := make(chan Result, 1)
	go func() {
		done <- s.AddTask(ctx, model.Task{Title: "First user's secret"})
	}()
	<-entered

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if err := s.Register(ctx, "B", "b@x.com", "secret2"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	second := s.User().ID
	close(gate)

	res := <-done
	if res.Status != Superseded {
		t.Errorf("Expected Superseded, got %v", res.Status)
	}
	if n := len(s.Tasks()); n != 0 {
		t.Errorf("Expected no tasks for the second user, got %d", n)
	}
	if n := len(local.tasks(tasksKey(second))); n != 0 {
		t.Errorf("Expected nothing saved under the second user, got %d", n)
	}

	// the server kept it for its owner
	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if err := s.Login(ctx, "a@x.com", "secret1"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].UserID != first {
		t.Errorf("Expected the task back for its owner, got %+v", tasks)
	}
}

func TestLoadUserDataCollapsesConcurrentCalls(t *testing.T) {
	s, api, _ := signedIn(t)
	api.mu.Lock()
	before := api.listCalls
	api.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.LoadUserData(context.Background())
		}()
	}
	wg.Wait()

	api.mu.Lock()
	calls := api.listCalls - before
	api.mu.Unlock()
	if calls < 1 || calls > 8 {
		t.Errorf("Expected between 1 and 8 list calls, got %d", calls)
	}
}

func TestMergeTasks(t *testing.T) {
	now := time.Now()
	remote := []model.Task{
		{ID: "both-remote-newer", Title: "remote", UpdatedAt: now, CreatedAt: now.Add(-4 * time.Hour)},
		{ID: "both-local-newer", Title: "remote", UpdatedAt: now.Add(-time.Hour), CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "remote-only", CreatedAt: now.Add(-2 * time.Hour)},
	}
	local := []model.Task{
		{ID: "both-remote-newer", Title: "local", UpdatedAt: now.Add(-time.Hour)},
		{ID: "both-local-newer", Title: "local", UpdatedAt: now},
		{ID: "offline-new", CreatedAt: now},
		{ID: "deleted-elsewhere", CreatedAt: now.Add(-time.Minute)},
	}
	unsynced := map[string]bool{"offline-new": true, "both-remote-newer": true}

	merged, pending := mergeTasks(remote, local, unsynced)

	byID := map[string]model.Task{}
	for _, task := range merged {
		byID[task.ID] = task
	}
	if len(merged) != 4 {
		t.Fatalf("Expected 4 tasks, got %d", len(merged))
	}
	if byID["both-remote-newer"].Title != "remote" {
		t.Error("Expected newer remote copy to win")
	}
	if byID["both-local-newer"].Title != "local" {
		t.Error("Expected newer local copy to win")
	}
	if _, ok := byID["deleted-elsewhere"]; ok {
		t.Error("Expected local-only synced task dropped")
	}
	if merged[0].ID != "offline-new" {
		t.Errorf("Expected newest first, got %s", merged[0].ID)
	}
	if len(pending) != 1 || !pending["offline-new"] {
		t.Errorf("Expected only offline-new pending, got %v", pending)
	}
}
