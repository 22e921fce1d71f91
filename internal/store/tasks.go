package store

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"perfect-day/internal/client"
	"perfect-day/internal/model"
)

// SetTasks replaces the task list and persists it. No network call.
func (s *Store) SetTasks(tasks []model.Task) error {
	s.mu.Lock()
	s.tasks = append([]model.Task(nil), tasks...)
	s.mu.Unlock()
	return s.persistTasks(context.Background())
}

// AddTask creates the task on the server and appends the result. When the
// server cannot be reached or rejects the task, the client copy is appended
// instead and remembered as unsynced. If the signed-in user changes while
// the call is in flight the result is dropped and Superseded is returned.
func (s *Store) AddTask(ctx context.Context, task model.Task) Result {
	s.mu.Lock()
	now := s.now()
	uid := s.userID()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.UserID == "" {
		task.UserID = uid
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = now
	}
	s.mu.Unlock()

	created, err := s.api.CreateTask(ctx, task)

	res := Result{Status: Synced}
	s.mu.Lock()
	if s.userID() != uid {
		// signed out or switched user while the create was in flight
		s.mu.Unlock()
		s.log.Info("user changed during create, dropping result", zap.String("task", task.ID), zap.Error(err))
		return Result{Status: Superseded, Err: err}
	}
	if err == nil {
		s.tasks = append(s.tasks, *created)
		delete(s.unsynced, created.ID)
	} else {
		s.log.Warn("create task failed, keeping local copy", zap.String("task", task.ID), zap.Error(err))
		s.tasks = append(s.tasks, task)
		s.unsynced[task.ID] = true
		res = Result{Status: LocalOnly, Err: err}
	}
	s.mu.Unlock()

	res.Err = errors.Join(res.Err, s.persistTasks(ctx))
	return res
}

// UpdateTask sends the whole task and replaces the local copy with the
// server's answer, or with the client copy when the call fails. A response
// that arrives after a newer edit or a delete of the same task started is
// dropped.
func (s *Store) UpdateTask(ctx context.Context, task model.Task) Result {
	s.mu.Lock()
	s.seq[task.ID]++
	mine := s.seq[task.ID]
	task.UpdatedAt = s.now()
	localOnly := s.unsynced[task.ID]
	s.mu.Unlock()

	var (
		updated *model.Task
		err     error
	)
	if localOnly {
		// never reached the server, a PATCH would 404
		err = ErrNotSynced
	} else {
		updated, err = s.api.UpdateTask(ctx, task)
	}

	s.mu.Lock()
	if s.seq[task.ID] != mine {
		s.mu.Unlock()
		return Result{Status: Superseded, Err: err}
	}
	res := Result{Status: Synced}
	next := task
	if err == nil {
		next = *updated
	} else {
		if !localOnly {
			s.log.Warn("update task failed, keeping local copy", zap.String("task", task.ID), zap.Error(err))
		}
		res = Result{Status: LocalOnly, Err: err}
	}
	found := false
	for i := range s.tasks {
		if s.tasks[i].ID == task.ID {
			s.tasks[i] = next
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return res
	}
	res.Err = errors.Join(res.Err, s.persistTasks(ctx))
	return res
}

// DeleteTask removes the task on the server and always removes it locally.
// A 404 from the server counts as success, so deleting twice is harmless.
func (s *Store) DeleteTask(ctx context.Context, id string) Result {
	s.mu.Lock()
	s.seq[id]++
	localOnly := s.unsynced[id]
	s.mu.Unlock()

	var err error
	if !localOnly {
		err = s.api.DeleteTask(ctx, id)
		if client.IsStatus(err, http.StatusNotFound) {
			err = nil
		}
	}

	s.mu.Lock()
	kept := s.tasks[:0:0]
	for _, t := range s.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	delete(s.unsynced, id)
	s.mu.Unlock()

	res := Result{Status: Synced}
	if err != nil {
		s.log.Warn("delete task failed, removed locally", zap.String("task", id), zap.Error(err))
		res = Result{Status: LocalOnly, Err: err}
	}
	res.Err = errors.Join(res.Err, s.persistTasks(ctx))
	return res
}

// persistTasks writes the task list and the unsynced id set of the current user.
func (s *Store) persistTasks(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	uid := s.userID()
	snapshot := append([]model.Task(nil), s.tasks...)
	unsynced := make([]string, 0, len(s.unsynced))
	for id := range s.unsynced {
		unsynced = append(unsynced, id)
	}
	s.mu.Unlock()

	if uid == "" {
		return nil
	}
	sort.Strings(unsynced)
	return errors.Join(
		s.save(ctx, tasksKey(uid), snapshot),
		s.save(ctx, unsyncedKey(uid), unsynced),
	)
}
