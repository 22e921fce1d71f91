package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"perfect-day/internal/model"
)

type createMoodRequest struct {
	Value  int     `json:"value"`
	Note   *string `json:"note"`
	UserID string  `json:"userId"`
}

func (h *Handler) ListMoods(c *gin.Context) {
	moods, err := h.svc.Moods.List(c.Request.Context(), c.Query("userId"))
	if err != nil {
		h.fail(c, err, "Failed to fetch moods")
		return
	}
	if moods == nil {
		moods = []model.Mood{}
	}
	c.JSON(http.StatusOK, moods)
}

func (h *Handler) CreateMood(c *gin.Context) {
	var req createMoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid mood payload")
		return
	}
	mood, err := h.svc.Moods.Record(c.Request.Context(), req.UserID, req.Value, req.Note)
	if err != nil {
		h.fail(c, err, "Failed to create mood")
		return
	}
	c.JSON(http.StatusCreated, mood)
}
