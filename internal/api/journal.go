package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"perfect-day/internal/model"
)

type createJournalRequest struct {
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	UserID  string   `json:"userId"`
}

func (h *Handler) ListJournal(c *gin.Context) {
	entries, err := h.svc.Journal.List(c.Request.Context(), c.Query("userId"), c.Query("q"))
	if err != nil {
		h.fail(c, err, "Failed to fetch journal entries")
		return
	}
	if entries == nil {
		entries = []model.JournalEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) CreateJournal(c *gin.Context) {
	var req createJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid journal payload")
		return
	}
	entry, err := h.svc.Journal.Create(c.Request.Context(), req.UserID, req.Content, req.Tags)
	if err != nil {
		h.fail(c, err, "Failed to create journal entry")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) DeleteJournal(c *gin.Context) {
	if err := h.svc.Journal.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete journal entry")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Journal entry deleted successfully"})
}
