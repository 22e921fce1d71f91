package store

import (
	"context"
	"errors"
	"time"

	"perfect-day/internal/model"
)

var errNoUser = errors.New("no signed-in user")

// Routines and journal entries are not part of the store state. Views fetch
// them from the server and keep the last answer here for offline reads. The
// cached getters also return when the copy was saved, zero when there is none.

func (s *Store) CacheRoutines(ctx context.Context, routines []model.Routine) error {
	return s.cache(ctx, routinesKey, routines)
}

func (s *Store) CachedRoutines(ctx context.Context) ([]model.Routine, time.Time) {
	var routines []model.Routine
	saved := s.cached(ctx, routinesKey, &routines)
	return routines, saved
}

func (s *Store) CacheJournal(ctx context.Context, entries []model.JournalEntry) error {
	return s.cache(ctx, journalKey, entries)
}

func (s *Store) CachedJournal(ctx context.Context) ([]model.JournalEntry, time.Time) {
	var entries []model.JournalEntry
	saved := s.cached(ctx, journalKey, &entries)
	return entries, saved
}

func (s *Store) cache(ctx context.Context, key func(string) string, value any) error {
	s.mu.Lock()
	uid := s.userID()
	s.mu.Unlock()
	if uid == "" {
		return errNoUser
	}
	return s.save(ctx, key(uid), value)
}

func (s *Store) cached(ctx context.Context, key func(string) string, out any) time.Time {
	s.mu.Lock()
	uid := s.userID()
	s.mu.Unlock()
	if uid == "" {
		return time.Time{}
	}
	return s.loadLocal(ctx, key(uid), out)
}
