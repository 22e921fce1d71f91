package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"perfect-day/internal/service"
)

// SessionHeader carries the signed session token returned by POST /api/auth.
const SessionHeader = "X-Session-Token"

// Services groups what the handlers need.
type Services struct {
	Users      *service.UserService
	Sessions   *service.SessionService
	Tasks      *service.TaskService
	Categories *service.CategoryService
	Moods      *service.MoodService
	Routines   *service.RoutineService
	Journal    *service.JournalService
}

// Options tunes router behaviour.
type Options struct {
	LoginRate  rate.Limit
	LoginBurst int
}

// Handler holds the REST handlers.
type Handler struct {
	svc Services
	log *zap.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(svc Services, opts Options, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.LoginRate == 0 {
		opts.LoginRate = rate.Limit(1)
	}
	if opts.LoginBurst == 0 {
		opts.LoginBurst = 5
	}

	r := gin.New()
	r.Use(Recovery(log), RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", SessionHeader},
		MaxAge:        12 * time.Hour,
	}))

	h := &Handler{svc: svc, log: log}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := r.Group("/api")
	api.POST("/auth", RateLimiter(opts.LoginRate, opts.LoginBurst), h.Login)
	api.GET("/auth", h.Session)

	api.GET("/users", h.ListUsers)
	api.POST("/users", h.CreateUser)

	api.GET("/tasks", h.ListTasks)
	api.POST("/tasks", h.CreateTask)
	api.GET("/tasks/:id", h.GetTask)
	api.PATCH("/tasks/:id", h.UpdateTask)
	api.DELETE("/tasks/:id", h.DeleteTask)

	api.GET("/moods", h.ListMoods)
	api.POST("/moods", h.CreateMood)

	api.GET("/categories", h.ListCategories)
	api.POST("/categories", h.CreateCategory)

	api.GET("/routines", h.ListRoutines)
	api.POST("/routines", h.CreateRoutine)
	api.PATCH("/routines/:id", h.UpdateRoutine)
	api.DELETE("/routines/:id", h.DeleteRoutine)

	api.GET("/journal", h.ListJournal)
	api.POST("/journal", h.CreateJournal)
	api.DELETE("/journal/:id", h.DeleteJournal)

	return r
}
