// Package api exposes the engine over HTTP for the dashboard frontend.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"semflow/domain/core"
	"semflow/internal"
	"semflow/internal/ingest"
	"semflow/internal/report"
	"semflow/internal/workflow"
)

// Server is the HTTP surface over one workflow coordinator.
type Server struct {
	router      *gin.Engine
	coordinator *workflow.Coordinator
	reader      *ingest.Reader
	renderer    *report.Renderer
	log         *internal.Logger

	maxUploadBytes int64
}

// NewServer assembles the router. maxUploadBytes bounds dataset uploads.
func NewServer(coordinator *workflow.Coordinator, maxUploadBytes int64, log *internal.Logger) *Server {
	if log == nil {
		log = internal.NewDefaultLogger("api")
	}
	s := &Server{
		router:         gin.New(),
		coordinator:    coordinator,
		reader:         ingest.NewReader(),
		renderer:       report.NewRenderer(),
		log:            log,
		maxUploadBytes: maxUploadBytes,
	}
	s.router.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

// setupRoutes configures the application routes.
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.POST("/datasets", s.handleUpload)

		api.GET("/workflow/status", s.handleWorkflowStatus)
		api.POST("/workflow/step", s.handleWorkflowStep)
		api.POST("/workflow/reset", s.handleWorkflowReset)

		api.GET("/variables", s.handleVariables)
		api.GET("/quality", s.handleQuality)
		api.GET("/quality/report", s.handleQualityReport)

		api.GET("/groups/suggestions", s.handleGroupSuggestions)
		api.GET("/groups", s.handleGroups)
		api.POST("/groups", s.handleCreateGroup)
		api.DELETE("/groups/:id", s.handleDeleteGroup)

		api.GET("/demographics", s.handleDemographics)
		api.PUT("/demographics/:column", s.handleUpdateDemographic)

		api.GET("/roles", s.handleRoles)
		api.GET("/modelspec", s.handleModelSpec)

		api.POST("/analyses", s.handleRunAnalyses)
		api.GET("/results", s.handleResults)
		api.GET("/results/report", s.handleResultsReport)
	}
}

// Handler exposes the router for an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// statusFor maps taxonomy errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidTransition):
		return http.StatusConflict
	case core.IsBackendRejected(err):
		return http.StatusUnprocessableEntity
	case core.IsBackendUnavailable(err):
		return http.StatusServiceUnavailable
	case core.IsMalformedInput(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
