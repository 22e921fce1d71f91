package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"perfect-day/internal/client"
	"perfect-day/internal/localstore"
	"perfect-day/internal/model"
)

// AuthState is the bootstrap state machine.
type AuthState int

const (
	Checking AuthState = iota
	Unauthenticated
	Authenticated
)

func (a AuthState) String() string {
	switch a {
	case Checking:
		return "checking"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("authstate(%d)", int(a))
	}
}

// LoginPath is the one path reachable without a session.
const LoginPath = "/login"

// Redirect returns where a view at path should go for the given state, and
// whether a redirect is needed at all. Nothing redirects while Checking.
func Redirect(state AuthState, path string) (string, bool) {
	switch {
	case state == Unauthenticated && path != LoginPath:
		return LoginPath, true
	case state == Authenticated && path == LoginPath:
		return "/", true
	default:
		return path, false
	}
}

func (s *Store) setAuth(state AuthState, user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authState = state
	s.authenticated = state == Authenticated
	if user != nil {
		u := *user
		s.user = &u
	} else if state == Unauthenticated {
		s.user = nil
	}
}

// Bootstrap restores a session from local storage. The token is checked with
// the server; when the server is unreachable the cached user is trusted. A
// token the server rejects is discarded.
func (s *Store) Bootstrap(ctx context.Context) (AuthState, error) {
	s.setAuth(Checking, nil)

	var token string
	entry, err := s.local.Load(ctx, keySession)
	if err == nil {
		err = entry.Decode(&token)
	}
	if err != nil || token == "" {
		if err != nil && !errors.Is(err, localstore.ErrNotFound) {
			s.log.Warn("read session", zap.Error(err))
		}
		s.setAuth(Unauthenticated, nil)
		return Unauthenticated, nil
	}

	var cached *model.User
	if entry, err := s.local.Load(ctx, keyUser); err == nil {
		var u model.User
		if err := entry.Decode(&u); err == nil && u.ID != "" {
			cached = &u
		}
	}

	user, err := s.api.Session(ctx, token)
	switch {
	case err == nil:
		if serr := s.save(ctx, keyUser, user); serr != nil {
			s.log.Warn("cache user", zap.Error(serr))
		}
	case client.IsStatus(err, http.StatusUnauthorized):
		s.log.Info("stored session rejected", zap.Error(err))
		s.clearSession(ctx)
		s.setAuth(Unauthenticated, nil)
		return Unauthenticated, nil
	case cached != nil:
		s.log.Warn("session check failed, using cached user", zap.Error(err))
		user = cached
	default:
		s.setAuth(Unauthenticated, nil)
		return Unauthenticated, err
	}

	s.setAuth(Authenticated, user)
	res := s.LoadUserData(ctx)
	return Authenticated, res.Err
}

// LoadUserData fetches the user's tasks and merges them with the local copy,
// falling back to the local copy when the server cannot be reached.
// Categories come from local storage, refreshed from the server when it
// answers; moods come from local storage. Concurrent calls share one load.
func (s *Store) LoadUserData(ctx context.Context) Result {
	s.mu.Lock()
	uid := s.userID()
	s.mu.Unlock()
	if uid == "" {
		return Result{Status: LocalOnly, Err: errors.New("no user")}
	}

	v, _, _ := s.loads.Do("load:"+uid, func() (interface{}, error) {
		return s.loadUserData(ctx, uid), nil
	})
	return v.(Result)
}

func (s *Store) loadUserData(ctx context.Context, uid string) Result {
	var localTasks []model.Task
	localSaved := s.loadLocal(ctx, tasksKey(uid), &localTasks)
	var unsyncedIDs []string
	s.loadLocal(ctx, unsyncedKey(uid), &unsyncedIDs)
	unsynced := make(map[string]bool, len(unsyncedIDs))
	for _, id := range unsyncedIDs {
		unsynced[id] = true
	}

	var categories []model.Category
	s.loadLocal(ctx, categoriesKey(uid), &categories)
	var moods []model.Mood
	s.loadLocal(ctx, moodsKey(uid), &moods)

	res := Result{Status: Synced}
	tasks := localTasks
	remote, err := s.api.ListTasks(ctx, uid)
	if err == nil {
		tasks, unsynced = mergeTasks(remote, localTasks, unsynced)
	} else {
		s.log.Warn("load tasks failed, using local copy",
			zap.String("user", uid),
			zap.Time("savedAt", localSaved),
			zap.Error(err),
		)
		res = Result{Status: LocalOnly, Err: err}
	}
	if remoteCats, err := s.api.ListCategories(ctx); err == nil {
		categories = remoteCats
	}

	s.mu.Lock()
	if s.userID() != uid {
		// logged out or switched user meanwhile
		s.mu.Unlock()
		return Result{Status: Superseded}
	}
	s.tasks = tasks
	s.unsynced = unsynced
	s.categories = categories
	s.moods = moods
	s.mu.Unlock()

	res.Err = errors.Join(res.Err, s.persistTasks(ctx), s.persistCategories(ctx))
	return res
}

// loadLocal decodes the entry at key into out and returns when it was saved,
// the zero time when there is nothing usable.
func (s *Store) loadLocal(ctx context.Context, key string, out any) time.Time {
	entry, err := s.local.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			s.log.Warn("read local entry", zap.String("key", key), zap.Error(err))
		}
		return time.Time{}
	}
	if err := entry.Decode(out); err != nil {
		s.log.Warn("decode local entry", zap.String("key", key), zap.Error(err))
		return time.Time{}
	}
	return entry.SavedAt
}

// Login authenticates, persists the session and loads the user's data.
func (s *Store) Login(ctx context.Context, email, password string) error {
	user, token, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return s.startSession(ctx, user, token)
}

// Register creates the account and signs in with it.
func (s *Store) Register(ctx context.Context, name, email, password string) error {
	if _, err := s.api.Register(ctx, name, email, password); err != nil {
		return err
	}
	return s.Login(ctx, email, password)
}

func (s *Store) startSession(ctx context.Context, user *model.User, token string) error {
	s.mu.Lock()
	if prev := s.userID(); prev != "" && prev != user.ID {
		s.clearLocked()
	}
	s.mu.Unlock()

	s.setAuth(Authenticated, user)
	err := errors.Join(s.save(ctx, keySession, token), s.save(ctx, keyUser, user))
	res := s.LoadUserData(ctx)
	if res.Status == LocalOnly {
		// signed in, data load is best effort
		s.log.Warn("initial load fell back to local data", zap.Error(res.Err))
		return err
	}
	return errors.Join(err, res.Err)
}

// Logout saves the current user's data under their keys, clears the store
// and forgets the session.
func (s *Store) Logout(ctx context.Context) error {
	err := errors.Join(s.persistTasks(ctx), s.persistCategories(ctx), s.persistMoods(ctx))

	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()

	err = errors.Join(err, s.clearSession(ctx))
	s.setAuth(Unauthenticated, nil)
	return err
}

func (s *Store) clearSession(ctx context.Context) error {
	if err := s.local.Remove(ctx, keySession, keyUser); err != nil {
		s.log.Error("clear session", zap.Error(err))
		return storageErr(err)
	}
	return nil
}
