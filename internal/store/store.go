// Package store is the client-side application state: the signed-in user,
// their tasks, categories and moods, UI filters, and the actions that keep
// them in step with the REST API and local storage.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"perfect-day/internal/agenda"
	"perfect-day/internal/localstore"
	"perfect-day/internal/model"
)

// API is the slice of the REST client the store uses.
type API interface {
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Session(ctx context.Context, token string) (*model.User, error)
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	ListTasks(ctx context.Context, userID string) ([]model.Task, error)
	CreateTask(ctx context.Context, task model.Task) (*model.Task, error)
	UpdateTask(ctx context.Context, task model.Task) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// Theme values.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// UIState is the persisted UI slice.
type UIState struct {
	Theme       string      `json:"theme"`
	ActiveView  agenda.View `json:"activeView"`
	SidebarOpen bool        `json:"isSidebarOpen"`
}

func defaultUI() UIState {
	return UIState{Theme: ThemeSystem, ActiveView: agenda.ViewToday, SidebarOpen: true}
}

type Store struct {
	api   API
	local localstore.Storage
	log   *zap.Logger
	now   func() time.Time

	// persistMu orders snapshot writes so the latest snapshot lands last.
	persistMu sync.Mutex
	loads     singleflight.Group

	mu            sync.Mutex
	user          *model.User
	authenticated bool
	authState     AuthState
	tasks         []model.Task
	categories    []model.Category
	moods         []model.Mood
	filters       agenda.Filters
	ui            UIState
	seq           map[string]uint64
	unsynced      map[string]bool
}

func New(api API, local localstore.Storage, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		api:       api,
		local:     local,
		log:       log,
		now:       time.Now,
		authState: Unauthenticated,
		ui:        defaultUI(),
		seq:       make(map[string]uint64),
		unsynced:  make(map[string]bool),
	}
	s.loadUI()
	return s
}

func (s *Store) loadUI() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry, err := s.local.Load(ctx, keyUI)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			s.log.Warn("load ui state", zap.Error(err))
		}
		return
	}
	ui := defaultUI()
	if err := entry.Decode(&ui); err != nil {
		s.log.Warn("decode ui state", zap.Error(err))
		return
	}
	if _, ok := agenda.ParseView(string(ui.ActiveView)); !ok {
		ui.ActiveView = agenda.ViewToday
	}
	s.ui = ui
}

// save writes one value and logs failures.
func (s *Store) save(ctx context.Context, key string, value any) error {
	if err := s.local.Save(ctx, key, value); err != nil {
		s.log.Error("local save failed", zap.String("key", key), zap.Error(err))
		return storageErr(err)
	}
	return nil
}

func (s *Store) userID() string {
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// Getters return copies.

func (s *Store) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *Store) AuthState() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authState
}

func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Task(nil), s.tasks...)
}

func (s *Store) Task(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (s *Store) Categories() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Category(nil), s.categories...)
}

func (s *Store) Moods() []model.Mood {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Mood(nil), s.moods...)
}

func (s *Store) Filters() agenda.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

func (s *Store) UI() UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ui
}

// IsUnsynced reports whether a task exists only locally.
func (s *Store) IsUnsynced(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsynced[id]
}

func (s *Store) SetUser(user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.user = nil
		return
	}
	u := *user
	s.user = &u
}

func (s *Store) SetIsAuthenticated(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = v
}

func (s *Store) SetCategories(categories []model.Category) error {
	s.mu.Lock()
	s.categories = append([]model.Category(nil), categories...)
	s.mu.Unlock()
	return s.persistCategories(context.Background())
}

func (s *Store) SetMoods(moods []model.Mood) error {
	s.mu.Lock()
	s.moods = append([]model.Mood(nil), moods...)
	s.mu.Unlock()
	return s.persistMoods(context.Background())
}

// MergeMoods replaces the list with the server's moods, keeping local moods
// the server does not have (recorded while offline).
func (s *Store) MergeMoods(remote []model.Mood) error {
	s.mu.Lock()
	s.moods = mergeMoods(remote, s.moods)
	s.mu.Unlock()
	return s.persistMoods(context.Background())
}

// AddMood puts the mood first, the list is newest first.
func (s *Store) AddMood(mood model.Mood) error {
	s.mu.Lock()
	s.moods = append([]model.Mood{mood}, s.moods...)
	s.mu.Unlock()
	return s.persistMoods(context.Background())
}

func (s *Store) persistCategories(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	uid := s.userID()
	snapshot := append([]model.Category(nil), s.categories...)
	s.mu.Unlock()
	if uid == "" {
		return nil
	}
	return s.save(ctx, categoriesKey(uid), snapshot)
}

func (s *Store) persistMoods(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	uid := s.userID()
	snapshot := append([]model.Mood(nil), s.moods...)
	s.mu.Unlock()
	if uid == "" {
		return nil
	}
	return s.save(ctx, moodsKey(uid), snapshot)
}

func (s *Store) SetFilterPriority(p *model.Priority) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Priority = p
}

func (s *Store) SetFilterCategory(categoryID *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.CategoryID = categoryID
}

func (s *Store) SetFilterCompleted(completed *bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Completed = completed
}

func (s *Store) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = agenda.Filters{}
}

func (s *Store) SetActiveView(view agenda.View) error {
	if _, ok := agenda.ParseView(string(view)); !ok {
		return errors.New("unknown view " + string(view))
	}
	s.mu.Lock()
	s.ui.ActiveView = view
	s.mu.Unlock()
	return s.persistUI(context.Background())
}

func (s *Store) SetTheme(theme string) error {
	switch theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return errors.New("unknown theme " + theme)
	}
	s.mu.Lock()
	s.ui.Theme = theme
	s.mu.Unlock()
	return s.persistUI(context.Background())
}

func (s *Store) ToggleSidebar() error {
	s.mu.Lock()
	s.ui.SidebarOpen = !s.ui.SidebarOpen
	s.mu.Unlock()
	return s.persistUI(context.Background())
}

func (s *Store) persistUI(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	ui := s.ui
	s.mu.Unlock()
	return s.save(ctx, keyUI, ui)
}

// VisibleTasks applies the active view, the filters and priority order.
func (s *Store) VisibleTasks(now time.Time) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return agenda.Visible(s.tasks, s.ui.ActiveView, s.filters, now)
}

// ClearUserData drops in-memory user data. The server is not touched.
func (s *Store) ClearUserData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Store) clearLocked() {
	s.tasks = nil
	s.categories = nil
	s.moods = nil
	s.filters = agenda.Filters{}
	s.seq = make(map[string]uint64)
	s.unsynced = make(map[string]bool)
}

// ResetData clears user data in memory and removes every per-user key from local storage.
func (s *Store) ResetData(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	uid := s.userID()
	s.clearLocked()
	s.mu.Unlock()

	if uid == "" {
		return nil
	}
	if err := s.local.Remove(ctx, userKeys(uid)...); err != nil {
		s.log.Error("reset local data", zap.String("user", uid), zap.Error(err))
		return storageErr(err)
	}
	return nil
}
