// Package web exposes the task engine as a JSON API.
package web

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jyang234/mull/internal/core"
)

// TaskEngine defines the engine operations the handlers use.
// Implementations: engine.Engine
type TaskEngine interface {
	CreateTask(ctx context.Context, in core.CreateTaskInput) (*core.Task, error)
	GetTask(ctx context.Context, id string) (*core.Task, error)
	ListTasks(ctx context.Context, userID string, filter core.ListFilter) ([]core.Task, error)
	UpdateTask(ctx context.Context, id string, u core.TaskUpdate) (*core.Task, error)
	AddCheckIn(ctx context.Context, taskID string, in core.CheckInInput) (*core.Task, error)
	CompleteTask(ctx context.Context, id string) (*core.Task, error)
	Analyze(checkIns []core.CheckIn) core.TemporalAnalysis
	DeleteTask(ctx context.Context, id string) (bool, error)
	ListOutbox(ctx context.Context, taskID string) ([]core.OutboxEntry, error)
}

// Server is the Mull API server
type Server struct {
	engine TaskEngine
	router *gin.Engine
}

// NewServer creates a new API server
func NewServer(engine TaskEngine) *Server {
	router := gin.Default()

	s := &Server{
		engine: engine,
		router: router,
	}
	s.registerRoutes(router)

	return s
}

func (s *Server) registerRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/tasks", s.handleCreateTask)
		api.GET("/tasks", s.handleListTasks)
		api.GET("/tasks/:id", s.handleGetTask)
		api.PATCH("/tasks/:id", s.handleUpdateTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)
		api.POST("/tasks/:id/checkins", s.handleAddCheckIn)
		api.POST("/tasks/:id/complete", s.handleCompleteTask)
		api.GET("/tasks/:id/outbox", s.handleListOutbox)
		api.POST("/analysis/preview", s.handleAnalysisPreview)
	}
}

// Run starts the API server
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
