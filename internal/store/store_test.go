package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"perfect-day/internal/agenda"
	"perfect-day/internal/client"
	"perfect-day/internal/model"
)

func signedIn(t *testing.T) (*Store, *fakeAPI, *memStorage) {
	t.Helper()
	api := newFakeAPI()
	local := newMemStorage()
	s := New(api, local, nil)
	if err := s.Register(context.Background(), "A", "a@x.com", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return s, api, local
}

func TestAddTaskRoundTrip(t *testing.T) {
	s, api, local := signedIn(t)
	ctx := context.Background()
	cat := "cat-1"

	res := s.AddTask(ctx, model.Task{Title: "Plan week", Priority: model.PriorityHigh, CategoryID: &cat})
	if res.Status != Synced || res.Err != nil {
		t.Fatalf("AddTask() = %+v", res)
	}

	tasks := s.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Title != "Plan week" || got.Priority != model.PriorityHigh || got.CategoryID == nil || *got.CategoryID != cat {
		t.Errorf("Round trip mismatch: %+v", got)
	}
	if got.UserID != s.User().ID {
		t.Errorf("Expected task owned by %s, got %s", s.User().ID, got.UserID)
	}
	if _, ok := api.remoteTask(got.ID); !ok {
		t.Error("Expected task on server")
	}
	if n := len(local.tasks(tasksKey(s.User().ID))); n != 1 {
		t.Errorf("Expected 1 task in local storage, got %d", n)
	}
}

func TestAddTaskWhileOffline(t *testing.T) {
	s, api, local := signedIn(t)
	api.setOffline(true)

	res := s.AddTask(context.Background(), model.Task{Title: "Offline"})
	if res.Status != LocalOnly {
		t.Fatalf("Expected LocalOnly, got %v", res.Status)
	}
	if !errors.Is(res.Err, client.ErrUnreachable) {
		t.Errorf("Expected ErrUnreachable, got %v", res.Err)
	}

	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Offline" {
		t.Fatalf("Expected task in memory, got %+v", tasks)
	}
	if n := len(local.tasks(tasksKey(s.User().ID))); n != 1 {
		t.Errorf("Expected task in local storage, got %d", n)
	}
	if _, ok := api.remoteTask(tasks[0].ID); ok {
		t.Error("Expected task missing from server")
	}
	if !s.IsUnsynced(tasks[0].ID) {
		t.Error("Expected task to be marked unsynced")
	}
}

func TestDeleteTaskTwice(t *testing.T) {
	s, _, _ := signedIn(t)
	ctx := context.Background()

	res := s.AddTask(ctx, model.Task{Title: "Temp"})
	id := s.Tasks()[0].ID
	if !res.OK() {
		t.Fatalf("AddTask() = %+v", res)
	}

	for i := 0; i < 2; i++ {
		if res := s.DeleteTask(ctx, id); !res.OK() {
			t.Errorf("DeleteTask() call %d = %+v", i+1, res)
		}
	}
	if _, ok := s.Task(id); ok {
		t.Error("Expected task to be gone")
	}
}

func TestDeleteTaskOfflineStillRemovesLocally(t *testing.T) {
	s, api, _ := signedIn(t)
	ctx := context.Background()
	s.AddTask(ctx, model.Task{Title: "Keep remote"})
	id := s.Tasks()[0].ID

	api.setOffline(true)
	res := s.DeleteTask(ctx, id)
	if res.Status != LocalOnly {
		t.Errorf("Expected LocalOnly, got %v", res.Status)
	}
	if len(s.Tasks()) != 0 {
		t.Error("Expected local removal regardless of network")
	}
	if _, ok := api.remoteTask(id); !ok {
		t.Error("Expected server copy to remain")
	}
}

func TestUpdateTaskServerWins(t *testing.T) {
	s, api, _ := signedIn(t)
	ctx := context.Background()
	s.AddTask(ctx, model.Task{Title: "Draft"})
	task := s.Tasks()[0]

	task.Completed = true
	res := s.UpdateTask(ctx, task)
	if res.Status != Synced {
		t.Fatalf("UpdateTask() = %+v", res)
	}
	remote, _ := api.remoteTask(task.ID)
	got, _ := s.Task(task.ID)
	if !got.Completed || !got.UpdatedAt.Equal(remote.UpdatedAt) {
		t.Errorf("Expected server copy locally, got %+v want updatedAt %v", got, remote.UpdatedAt)
	}
}

func TestUpdateTaskOfflineKeepsClientCopy(t *testing.T) {
	s, api, _ := signedIn(t)
	ctx := context.Background()
	s.AddTask(ctx, model.Task{Title: "Draft"})
	task := s.Tasks()[0]

	api.setOffline(true)
	task.Title = "Final"
	res := s.UpdateTask(ctx, task)
	if res.Status != LocalOnly || !errors.Is(res.Err, client.ErrUnreachable) {
		t.Fatalf("UpdateTask() = %+v", res)
	}
	if got, _ := s.Task(task.ID); got.Title != "Final" {
		t.Errorf("Expected client copy, got %q", got.Title)
	}
}

func TestUpdateTaskDropsStaleResponse(t *testing.T) {
	s, api, _ := signedIn(t)
	ctx := context.Background()
	s.AddTask(ctx, model.Task{Title: "v0"})
	task := s.Tasks()[0]

	gates := map[string]chan struct{}{"v1": make(chan struct{}), "v2": make(chan struct{})}
	api.mu.Lock()
	api.updateGates = gates
	api.mu.Unlock()

	waitSeq := func(n uint64) {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			s.mu.Lock()
			got := s.seq[task.ID]
			s.mu.Unlock()
			if got >= n {
				return
			}
			time.Sleep(time.Millisecond)
		}
		t.Fatalf("timed out waiting for seq %d", n)
	}

	first, second := task, task
	first.Title, second.Title = "v1", "v2"

	firstDone := make(chan Result, 1)
	go func() { firstDone <- s.UpdateTask(ctx, first) }()
	waitSeq(1)
	secondDone := make(chan Result, 1)
	go func() { secondDone <- s.UpdateTask(ctx, second) }()
	waitSeq(2)

	close(gates["v2"])
	if res := <-secondDone; res.Status != Synced {
		t.Errorf("Expected newer edit Synced, got %v", res.Status)
	}
	close(gates["v1"])
	if res := <-firstDone; res.Status != Superseded {
		t.Errorf("Expected older edit Superseded, got %v", res.Status)
	}

	if got, _ := s.Task(task.ID); got.Title != "v2" {
		t.Errorf("Expected latest edit v2 to win, got %q", got.Title)
	}
}

func TestFiltersAndClear(t *testing.T) {
	s, _, _ := signedIn(t)
	ctx := context.Background()
	for _, p := range []model.Priority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityUrgent} {
		s.AddTask(ctx, model.Task{Title: string(p), Priority: p})
	}
	if err := s.SetActiveView(agenda.ViewAll); err != nil {
		t.Fatalf("SetActiveView() error = %v", err)
	}

	high := model.PriorityHigh
	s.SetFilterPriority(&high)
	visible := s.VisibleTasks(time.Now())
	if len(visible) != 1 || visible[0].Priority != model.PriorityHigh {
		t.Errorf("Expected only HIGH, got %+v", visible)
	}

	s.ClearFilters()
	visible = s.VisibleTasks(time.Now())
	if len(visible) != 4 {
		t.Fatalf("Expected 4 tasks after ClearFilters, got %d", len(visible))
	}
	if visible[0].Priority != model.PriorityUrgent || visible[3].Priority != model.PriorityLow {
		t.Errorf("Expected priority order, got %s..%s", visible[0].Priority, visible[3].Priority)
	}
}

func TestStorageFailureSurfaces(t *testing.T) {
	s, _, local := signedIn(t)
	local.mu.Lock()
	local.failSet = true
	local.mu.Unlock()

	res := s.AddTask(context.Background(), model.Task{Title: "x"})
	if res.Status != Synced {
		t.Errorf("Expected Synced, got %v", res.Status)
	}
	if !errors.Is(res.Err, ErrStorage) {
		t.Errorf("Expected ErrStorage, got %v", res.Err)
	}
	if len(s.Tasks()) != 1 {
		t.Error("Expected memory state updated despite storage failure")
	}
}

func TestMoodsAndCategoriesLocal(t *testing.T) {
	s, _, local := signedIn(t)
	uid := s.User().ID

	if err := s.SetMoods([]model.Mood{{ID: "old", Value: 2}}); err != nil {
		t.Fatalf("SetMoods() error = %v", err)
	}
	if err := s.AddMood(model.Mood{ID: "new", Value: 5}); err != nil {
		t.Fatalf("AddMood() error = %v", err)
	}
	moods := s.Moods()
	if len(moods) != 2 || moods[0].ID != "new" {
		t.Errorf("Expected new mood first, got %+v", moods)
	}
	if err := s.SetCategories([]model.Category{{ID: "c1", Name: "Work"}}); err != nil {
		t.Fatalf("SetCategories() error = %v", err)
	}
	if !local.has(moodsKey(uid)) || !local.has(categoriesKey(uid)) {
		t.Error("Expected moods and categories persisted")
	}
}

func TestMergeMoodsKeepsOfflineMoods(t *testing.T) {
	s, _, _ := signedIn(t)
	now := time.Now()

	offline := model.Mood{ID: "offline", Value: 3, CreatedAt: now}
	if err := s.SetMoods([]model.Mood{offline, {ID: "synced", Value: 1, CreatedAt: now.Add(-2 * time.Hour)}}); err != nil {
		t.Fatalf("SetMoods() error = %v", err)
	}
	remote := []model.Mood{
		{ID: "synced", Value: 2, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "elsewhere", Value: 4, CreatedAt: now.Add(-time.Hour)},
	}
	if err := s.MergeMoods(remote); err != nil {
		t.Fatalf("MergeMoods() error = %v", err)
	}

	moods := s.Moods()
	want := []string{"offline", "elsewhere", "synced"}
	if len(moods) != len(want) {
		t.Fatalf("Expected %d moods, got %+v", len(want), moods)
	}
	for i, id := range want {
		if moods[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, moods[i].ID)
		}
	}
	if moods[2].Value != 2 {
		t.Errorf("Expected the server copy of a known mood, got %d", moods[2].Value)
	}
}

func TestUIStatePersists(t *testing.T) {
	local := newMemStorage()
	s := New(newFakeAPI(), local, nil)
	if got := s.UI(); got.ActiveView != agenda.ViewToday || got.Theme != ThemeSystem || !got.SidebarOpen {
		t.Fatalf("Unexpected defaults %+v", got)
	}

	if err := s.SetTheme(ThemeDark); err != nil {
		t.Fatalf("SetTheme() error = %v", err)
	}
	if err := s.SetActiveView(agenda.ViewWeek); err != nil {
		t.Fatalf("SetActiveView() error = %v", err)
	}
	if err := s.ToggleSidebar(); err != nil {
		t.Fatalf("ToggleSidebar() error = %v", err)
	}
	if err := s.SetTheme("neon"); err == nil {
		t.Error("Expected error for unknown theme")
	}
	if err := s.SetActiveView("year"); err == nil {
		t.Error("Expected error for unknown view")
	}

	again := New(newFakeAPI(), local, nil)
	if got := again.UI(); got.Theme != ThemeDark || got.ActiveView != agenda.ViewWeek || got.SidebarOpen {
		t.Errorf("Expected persisted UI state, got %+v", got)
	}
}

func TestResetData(t *testing.T) {
	s, _, local := signedIn(t)
	ctx := context.Background()
	uid := s.User().ID
	s.AddTask(ctx, model.Task{Title: "x"})
	s.AddMood(model.Mood{Value: 3})
	local.Save(ctx, routinesKey(uid), []string{"r"})
	local.Save(ctx, journalKey(uid), []string{"j"})

	if err := s.ResetData(ctx); err != nil {
		t.Fatalf("ResetData() error = %v", err)
	}
	if len(s.Tasks()) != 0 || len(s.Moods()) != 0 {
		t.Error("Expected memory cleared")
	}
	for _, key := range userKeys(uid) {
		if local.has(key) {
			t.Errorf("Expected %s removed", key)
		}
	}
	if !local.has(keySession) {
		t.Error("Expected session untouched by reset")
	}
}

func TestRoutineAndJournalCache(t *testing.T) {
	ctx := context.Background()
	anon := New(newFakeAPI(), newMemStorage(), nil)
	if err := anon.CacheRoutines(ctx, []model.Routine{{ID: "r1"}}); err == nil {
		t.Error("Expected error caching without a user")
	}

	s, _, local := signedIn(t)
	uid := s.User().ID
	if err := s.CacheRoutines(ctx, []model.Routine{{ID: "r1", Title: "Run"}}); err != nil {
		t.Fatalf("CacheRoutines() error = %v", err)
	}
	if err := s.CacheJournal(ctx, []model.JournalEntry{{ID: "j1", Content: "hi"}}); err != nil {
		t.Fatalf("CacheJournal() error = %v", err)
	}
	if !local.has(routinesKey(uid)) || !local.has(journalKey(uid)) {
		t.Error("Expected routines and journal under per-user keys")
	}
	got, saved := s.CachedRoutines(ctx)
	if len(got) != 1 || got[0].Title != "Run" {
		t.Errorf("CachedRoutines() = %+v", got)
	}
	if saved.IsZero() || time.Since(saved) > time.Minute {
		t.Errorf("Expected a recent save time, got %v", saved)
	}
	if entries, _ := s.CachedJournal(ctx); len(entries) != 1 || entries[0].Content != "hi" {
		t.Errorf("CachedJournal() = %+v", entries)
	}

	if err := s.ResetData(ctx); err != nil {
		t.Fatalf("ResetData() error = %v", err)
	}
	if got, saved := s.CachedRoutines(ctx); len(got) != 0 || !saved.IsZero() {
		t.Errorf("Expected routines cache cleared, got %+v saved at %v", got, saved)
	}
}
