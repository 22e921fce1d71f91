package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"perfect-day/internal/model"
	"perfect-day/internal/service"
)

type routineRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Time        *string `json:"time"`
	IsActive    *bool   `json:"isActive"`
	Frequency   *string `json:"frequency"`
	Days        []int   `json:"days"`
	UserID      string  `json:"userId"`
}

func (h *Handler) ListRoutines(c *gin.Context) {
	routines, err := h.svc.Routines.List(c.Request.Context(), c.Query("userId"))
	if err != nil {
		h.fail(c, err, "Failed to fetch routines")
		return
	}
	if routines == nil {
		routines = []model.Routine{}
	}
	c.JSON(http.StatusOK, routines)
}

func (h *Handler) CreateRoutine(c *gin.Context) {
	var req routineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid routine payload")
		return
	}
	input := service.RoutineInput{
		Description: req.Description,
		Time:        req.Time,
		IsActive:    req.IsActive,
		Days:        req.Days,
		UserID:      req.UserID,
	}
	if req.Title != nil {
		input.Title = *req.Title
	}
	if req.Frequency != nil {
		input.Frequency = *req.Frequency
	}

	routine, err := h.svc.Routines.Create(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err, "Failed to create routine")
		return
	}
	c.JSON(http.StatusCreated, routine)
}

func (h *Handler) UpdateRoutine(c *gin.Context) {
	var req routineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid routine payload")
		return
	}
	routine, err := h.svc.Routines.Update(c.Request.Context(), c.Param("id"), service.RoutinePatch{
		Title:       req.Title,
		Description: req.Description,
		Time:        req.Time,
		IsActive:    req.IsActive,
		Frequency:   req.Frequency,
		Days:        req.Days,
	})
	if err != nil {
		h.fail(c, err, "Failed to update routine")
		return
	}
	c.JSON(http.StatusOK, routine)
}

func (h *Handler) DeleteRoutine(c *gin.Context) {
	if err := h.svc.Routines.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete routine")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Routine deleted successfully"})
}
