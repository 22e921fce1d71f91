package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"perfect-day/internal/repository"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.NewDB("file:"+uuid.NewString()+"?mode=memory&cache=shared", nil)
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	svc := NewServices(db, "test-secret", time.Hour)
	svc.Users.WithCost(bcrypt.MinCost)
	return NewRouter(svc, Options{LoginRate: rate.Inf, LoginBurst: 1}, nil)
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func register(t *testing.T, r http.Handler, name, email, password string) map[string]any {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/users", gin.H{"name": name, "email": email, "password": password})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 on register, got %d: %s", w.Code, w.Body.String())
	}
	return decode[map[string]any](t, w)
}

func TestRegisterLoginScenario(t *testing.T) {
	r := setupRouter(t)
	user := register(t, r, "A", "a@x.com", "secret1")

	w := doJSON(t, r, http.MethodPost, "/api/auth", gin.H{"email": "a@x.com", "password": "secret1"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 on login, got %d", w.Code)
	}
	got := decode[map[string]any](t, w)
	if got["id"] != user["id"] {
		t.Errorf("Expected id %v, got %v", user["id"], got["id"])
	}
	if _, ok := got["password"]; ok {
		t.Error("Expected no password field in login response")
	}
	if w.Header().Get(SessionHeader) == "" {
		t.Error("Expected session token header")
	}

	w = doJSON(t, r, http.MethodPost, "/api/auth", gin.H{"email": "a@x.com", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong password, got %d", w.Code)
	}
}

func TestLoginFailuresShareMessage(t *testing.T) {
	r := setupRouter(t)
	register(t, r, "A", "a@x.com", "secret1")

	wrongPassword := doJSON(t, r, http.MethodPost, "/api/auth", gin.H{"email": "a@x.com", "password": "nope"})
	unknownEmail := doJSON(t, r, http.MethodPost, "/api/auth", gin.H{"email": "b@x.com", "password": "secret1"})

	if wrongPassword.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401/401, got %d/%d", wrongPassword.Code, unknownEmail.Code)
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Errorf("Expected identical bodies, got %q and %q", wrongPassword.Body.String(), unknownEmail.Body.String())
	}

	w := doJSON(t, r, http.MethodPost, "/api/auth", gin.H{"email": "a@x.com"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing password, got %d", w.Code)
	}
}

func TestSessionEndpoint(t *testing.T) {
	r := setupRouter(t)
	user := register(t, r, "A", "a@x.com", "secret1")
	login := doJSON(t, r, http.MethodPost, "/api/auth", gin.H{"email": "a@x.com", "password": "secret1"})
	token := login.Header().Get(SessionHeader)

	w := doJSON(t, r, http.MethodGet, "/api/auth", nil, "Authorization", "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for valid session, got %d", w.Code)
	}
	if got := decode[map[string]any](t, w); got["id"] != user["id"] {
		t.Errorf("Expected user %v, got %v", user["id"], got["id"])
	}

	for _, header := range []string{"", "Bearer garbage", "Basic " + token} {
		w := doJSON(t, r, http.MethodGet, "/api/auth", nil, "Authorization", header)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Authorization %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestDuplicateEmailConflict(t *testing.T) {
	r := setupRouter(t)
	register(t, r, "A", "a@x.com", "secret1")

	w := doJSON(t, r, http.MethodPost, "/api/users", gin.H{"name": "B", "email": "a@x.com", "password": "x"})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/api/users", gin.H{"name": "B"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing fields, got %d", w.Code)
	}
}

func TestCreateTaskRequiresUserID(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/tasks", gin.H{"title": "Orphan"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if got := decode[map[string]string](t, w); got["error"] != "User ID is required to create a task" {
		t.Errorf("Unexpected error message %q", got["error"])
	}

	w = doJSON(t, r, http.MethodGet, "/api/tasks", nil)
	if list := decode[[]map[string]any](t, w); len(list) != 0 {
		t.Errorf("Expected no tasks persisted, got %d", len(list))
	}
}

func TestTaskCRUD(t *testing.T) {
	r := setupRouter(t)
	uid := register(t, r, "Ann", "ann@x.com", "secret1")["id"].(string)

	w := doJSON(t, r, http.MethodPost, "/api/categories", gin.H{"name": "Work", "color": "#ff0000"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 for category, got %d", w.Code)
	}
	category := decode[map[string]any](t, w)

	clientID := uuid.NewString()
	w = doJSON(t, r, http.MethodPost, "/api/tasks", gin.H{
		"id":         clientID,
		"title":      "Ship it",
		"priority":   "URGENT",
		"dueDate":    "2030-01-02",
		"userId":     uid,
		"categoryId": category["id"],
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	task := decode[map[string]any](t, w)
	if task["id"] != clientID {
		t.Errorf("Expected client id to be kept, got %v", task["id"])
	}
	if cat, ok := task["category"].(map[string]any); !ok || cat["name"] != "Work" {
		t.Errorf("Expected joined category, got %v", task["category"])
	}

	w = doJSON(t, r, http.MethodPatch, "/api/tasks/"+clientID, gin.H{"completed": true, "dueDate": nil})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 on patch, got %d: %s", w.Code, w.Body.String())
	}
	patched := decode[map[string]any](t, w)
	if patched["completed"] != true || patched["dueDate"] != nil {
		t.Errorf("Unexpected patched task %v", patched)
	}

	w = doJSON(t, r, http.MethodPatch, "/api/tasks/"+clientID, gin.H{"priority": "SOMEDAY"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad priority, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/tasks?userId="+uid, nil)
	if list := decode[[]map[string]any](t, w); len(list) != 1 {
		t.Errorf("Expected 1 task for the owner, got %d", len(list))
	}
	w = doJSON(t, r, http.MethodGet, "/api/tasks?userId=someone-else", nil)
	if list := decode[[]map[string]any](t, w); len(list) != 0 {
		t.Errorf("Expected 0 tasks for another user, got %d", len(list))
	}

	w = doJSON(t, r, http.MethodDelete, "/api/tasks/"+clientID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 on delete, got %d", w.Code)
	}
	if got := decode[map[string]string](t, w); got["message"] != "Task deleted successfully" {
		t.Errorf("Unexpected delete message %q", got["message"])
	}
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w = doJSON(t, r, method, "/api/tasks/"+clientID, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s after delete: expected 404, got %d", method, w.Code)
		}
	}
}

func TestCreateTaskRejectsUnknownCategory(t *testing.T) {
	r := setupRouter(t)
	uid := register(t, r, "Ann", "ann@x.com", "secret1")["id"].(string)
	w := doJSON(t, r, http.MethodPost, "/api/tasks", gin.H{"title": "x", "userId": uid, "categoryId": "missing"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestCreateRejectsUnknownOwner(t *testing.T) {
	r := setupRouter(t)

	tests := []struct {
		path string
		body gin.H
	}{
		{"/api/tasks", gin.H{"title": "x", "userId": "no-such-user"}},
		{"/api/moods", gin.H{"value": 3, "userId": "no-such-user"}},
		{"/api/routines", gin.H{"title": "Stretch", "userId": "no-such-user"}},
		{"/api/journal", gin.H{"content": "Quiet morning", "userId": "no-such-user"}},
	}
	for _, tt := range tests {
		w := doJSON(t, r, http.MethodPost, tt.path, tt.body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("POST %s: expected 400, got %d: %s", tt.path, w.Code, w.Body.String())
		}
		if got := decode[map[string]string](t, w); got["error"] != "unknown user" {
			t.Errorf("POST %s: unexpected error %q", tt.path, got["error"])
		}
	}

	for _, path := range []string{"/api/tasks", "/api/moods", "/api/routines?userId=no-such-user", "/api/journal?userId=no-such-user"} {
		w := doJSON(t, r, http.MethodGet, path, nil)
		if list := decode[[]map[string]any](t, w); len(list) != 0 {
			t.Errorf("GET %s: expected nothing persisted, got %d", path, len(list))
		}
	}
}

func TestMoodValidation(t *testing.T) {
	r := setupRouter(t)
	uid := register(t, r, "Ann", "ann@x.com", "secret1")["id"].(string)

	tests := []struct {
		body gin.H
		want int
	}{
		{gin.H{"value": 3, "userId": uid}, http.StatusCreated},
		{gin.H{"value": 0, "userId": uid}, http.StatusBadRequest},
		{gin.H{"value": 6, "userId": uid}, http.StatusBadRequest},
		{gin.H{"value": 3}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := doJSON(t, r, http.MethodPost, "/api/moods", tt.body)
		if w.Code != tt.want {
			t.Errorf("POST /api/moods %v: expected %d, got %d", tt.body, tt.want, w.Code)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/api/moods", nil)
	if list := decode[[]map[string]any](t, w); len(list) != 1 {
		t.Errorf("Expected 1 mood, got %d", len(list))
	}
}

func TestRoutinesAndJournal(t *testing.T) {
	r := setupRouter(t)
	uid := register(t, r, "Ann", "ann@x.com", "secret1")["id"].(string)

	w := doJSON(t, r, http.MethodPost, "/api/routines", gin.H{"title": "Stretch", "time": "07:00", "frequency": "weekdays", "userId": uid})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 for routine, got %d: %s", w.Code, w.Body.String())
	}
	routine := decode[map[string]any](t, w)

	w = doJSON(t, r, http.MethodPatch, "/api/routines/"+routine["id"].(string), gin.H{"isActive": false})
	if w.Code != http.StatusOK || decode[map[string]any](t, w)["isActive"] != false {
		t.Errorf("Expected routine deactivated, got %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodDelete, "/api/routines/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing routine, got %d", w.Code)
	}

	doJSON(t, r, http.MethodPost, "/api/journal", gin.H{"content": "Quiet morning", "tags": []string{"calm"}, "userId": uid})
	doJSON(t, r, http.MethodPost, "/api/journal", gin.H{"content": "Busy day", "tags": []string{"work"}, "userId": uid})

	w = doJSON(t, r, http.MethodGet, "/api/journal?userId="+uid+"&q=calm", nil)
	if list := decode[[]map[string]any](t, w); len(list) != 1 {
		t.Errorf("Expected 1 journal entry matching calm, got %d", len(list))
	}
	w = doJSON(t, r, http.MethodPost, "/api/journal", gin.H{"content": "  ", "userId": uid})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty entry, got %d", w.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/login", RateLimiter(rate.Limit(1), 1), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{}"))
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}
	if code := send(); code != http.StatusOK {
		t.Errorf("Expected first attempt to pass, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Errorf("Expected second attempt to be limited, got %d", code)
	}
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	v := newVisitors(rate.Limit(1), 1, time.Minute)
	v.now = func() time.Time { return now }

	if !v.allow("10.0.0.1") || !v.allow("10.0.0.2") {
		t.Fatal("Expected first requests to pass")
	}
	if v.allow("10.0.0.1") {
		t.Error("Expected second immediate request to be limited")
	}
	if v.len() != 2 {
		t.Fatalf("Expected 2 visitors, got %d", v.len())
	}

	now = now.Add(30 * time.Second)
	v.allow("10.0.0.2")
	now = now.Add(45 * time.Second)
	v.allow("10.0.0.3")

	if v.len() != 2 {
		t.Errorf("Expected the idle visitor swept, got %d visitors", v.len())
	}
	if _, ok := v.byIP["10.0.0.1"]; ok {
		t.Error("Expected 10.0.0.1 to be evicted")
	}
}

func TestRecoveryReturns500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Recovery(zap.NewNop()))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := setupRouter(t)
	w := doJSON(t, r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}
