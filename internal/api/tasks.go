package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"perfect-day/internal/model"
	"perfect-day/internal/service"
)

type createTaskRequest struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Completed   bool    `json:"completed"`
	Priority    string  `json:"priority"`
	UserID      string  `json:"userId"`
	CategoryID  *string `json:"categoryId"`
	RoutineID   *string `json:"routineId"`
}

func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.svc.Tasks.ListTasks(c.Request.Context(), c.Query("userId"))
	if err != nil {
		h.fail(c, err, "Failed to fetch tasks")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid task payload")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		badRequest(c, "User ID is required to create a task")
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	input := service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
		Completed:   req.Completed,
		Priority:    req.Priority,
		UserID:      req.UserID,
		CategoryID:  req.CategoryID,
		RoutineID:   req.RoutineID,
	}
	// client generated ids are kept so offline copies reconcile by id
	if _, err := uuid.Parse(req.ID); err == nil {
		input.ID = req.ID
	}

	task, err := h.svc.Tasks.CreateTask(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrMissingFields) {
			badRequest(c, "Title is required")
			return
		}
		h.fail(c, err, "Failed to create task")
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *Handler) GetTask(c *gin.Context) {
	task, err := h.svc.Tasks.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		h.fail(c, err, "Failed to fetch task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) UpdateTask(c *gin.Context) {
	patch, err := decodeTaskPatch(c.Request.Body)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	task, err := h.svc.Tasks.UpdateTask(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		h.fail(c, err, "Failed to update task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	if err := h.svc.Tasks.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		h.fail(c, err, "Failed to delete task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// decodeTaskPatch reads a partial task. An explicit null clears
// description, dueDate and categoryId.
func decodeTaskPatch(body io.Reader) (service.TaskPatch, error) {
	var patch service.TaskPatch
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return patch, fmt.Errorf("Invalid task payload")
	}

	isNull := func(v json.RawMessage) bool { return string(v) == "null" }

	for key, value := range raw {
		var err error
		switch key {
		case "title":
			err = json.Unmarshal(value, &patch.Title)
		case "description":
			if isNull(value) {
				patch.ClearDescription = true
			} else {
				err = json.Unmarshal(value, &patch.Description)
			}
		case "dueDate":
			if isNull(value) {
				patch.ClearDueDate = true
				continue
			}
			var s string
			if err = json.Unmarshal(value, &s); err == nil {
				patch.DueDate, err = parseDate(&s)
				if patch.DueDate == nil && err == nil {
					patch.ClearDueDate = true
				}
			}
		case "completed":
			err = json.Unmarshal(value, &patch.Completed)
		case "priority":
			err = json.Unmarshal(value, &patch.Priority)
		case "categoryId":
			if isNull(value) {
				patch.ClearCategory = true
			} else {
				err = json.Unmarshal(value, &patch.CategoryID)
			}
		}
		if err != nil {
			return patch, fmt.Errorf("Invalid value for %s", key)
		}
	}
	return patch, nil
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates. Empty means no date.
func parseDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("Invalid dueDate %q", v)
}
