package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"perfect-day/internal/model"
	"perfect-day/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and returns the user with a session token header.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email and password are required")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		badRequest(c, "Email and password are required")
		return
	}

	user, err := h.svc.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err, "Authentication failed")
		return
	}
	token, err := h.svc.Sessions.Issue(user.ID)
	if err != nil {
		h.fail(c, err, "Authentication failed")
		return
	}
	c.Header(SessionHeader, token)
	c.JSON(http.StatusOK, user)
}

// Session returns the user behind a bearer token.
func (h *Handler) Session(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
		return
	}
	userID, err := h.svc.Sessions.Verify(token)
	if err != nil {
		h.fail(c, err, "Session check failed")
		return
	}
	user, err := h.svc.Users.Get(c.Request.Context(), userID)
	if errors.Is(err, service.ErrNotFound) {
		err = service.ErrInvalidSession
	}
	if err != nil {
		h.fail(c, err, "Session check failed")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.Users.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to fetch users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Missing required fields")
		return
	}
	user, err := h.svc.Users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(c, err, "Failed to create user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
