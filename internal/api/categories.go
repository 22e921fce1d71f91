package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"perfect-day/internal/model"
)

type createCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.svc.Categories.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to fetch categories")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid category payload")
		return
	}
	category, err := h.svc.Categories.Create(c.Request.Context(), req.Name, req.Color)
	if err != nil {
		h.fail(c, err, "Failed to create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}
