package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"semflow/domain/analytics"
	"semflow/domain/core"
	"semflow/internal/workflow"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// session returns the active session or writes a 409 and returns nil.
func (s *Server) session(c *gin.Context) *workflow.WorkflowSession {
	session := s.coordinator.Session()
	if session == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no dataset uploaded yet"})
		return nil
	}
	return session
}

func (s *Server) handleUpload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		s.fail(c, fmt.Errorf("%w: missing file field: %v", core.ErrMalformedInput, err))
		return
	}
	defer file.Close()

	table, err := s.reader.Read(io.LimitReader(file, s.maxUploadBytes), header.Filename)
	if err != nil {
		s.fail(c, err)
		return
	}

	datasetID := core.DatasetID(core.NewID())
	session, err := s.coordinator.Start(c.Request.Context(), datasetID, table)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.log.Info("dataset uploaded: id=%s file=%s rows=%d", datasetID, header.Filename, table.RowCount())
	c.JSON(http.StatusCreated, gin.H{
		"dataset_id": datasetID,
		"rows":       table.RowCount(),
		"columns":    len(table.Headers),
		"variables":  session.Variables(),
	})
}

func (s *Server) handleWorkflowStatus(c *gin.Context) {
	session := s.session(c)
	if session == nil {
		return
	}
	c.JSON(http.StatusOK, session.Status())
}

func (s *Server) handleWorkflowStep(c *gin.Context) {
	var body struct {
		Step string `json:"step" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", core.ErrMalformedInput, err))
		return
	}
	if session := s.session(c); session == nil {
		return
	}
	if err := s.coordinator.GoTo(c.Request.Context(), workflow.Step(body.Step)); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.coordinator.Session().Status())
}

func (s *Server) handleWorkflowReset(c *gin.Context) {
	session, err := s.coordinator.Reset()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Status())
}

func (s *Server) handleVariables(c *gin.Context) {
	session := s.session(c)
	if session == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"variables": session.Variables()})
}

func (s *Server) handleQuality(c *gin.Context) {
	session := s.session(c)
	if session == nil {
		return
	}
	if session.Health() == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "quality check has not run yet; advance to the health step"})
		return
	}
	c.JSON(http.StatusOK, session.Health())
}

func (s *Server) handleQualityReport(c *gin.Context) {
	session := s.session(c)
	if session == nil {
		return
	}
	if session.Health() == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "quality check has not run yet; advance to the health step"})
		return
	}
	md := s.renderer.QualityMarkdown(session.Health())
	c.Data(http.StatusOK, "text/html; charset=utf-8", s.renderer.HTML(md))
}

func (s *Server) handleGroupSuggestions(c *gin.Context) {
	session := s.session(c)
	if session == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": session.GroupSuggestions()})
}

func (s *Server) handleGroups(c *gin.Context) {
	session := s.session(c)
	if session == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": session.Groups()})
}

func (s *Server) handleCreateGroup(c *gin.Context) {
	var body struct {
		Name    string   `json:"name" binding:"required"`
		Members []string `json:"members" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", core.ErrMalformedInput, err))
		return
	}
	group, err := s.coordinator.CreateGroup(c.Request.Context(), body.Name, body.Members)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (s *Server) handleDeleteGroup(c *gin.Context) {
	id, err := core.ParseGroupID(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.coordinator.DeleteGroup(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDemographics(c *gin.Context) {
	session := s.session(c)
	if session == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"demographics": session.Demographics()})
}

func (s *Server) handleUpdateDemographic(c *gin.Context) {
	var body struct {
		Selected *bool `json:"selected" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", core.ErrMalformedInput, err))
		return
	}
	if err := s.coordinator.SetDemographicSelected(c.Request.Context(), c.Param("column"), *body.Selected); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRoles(c *gin.Context) {
	if session := s.session(c); session == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": s.coordinator.Roles()})
}

func (s *Server) handleModelSpec(c *gin.Context) {
	if session := s.session(c); session == nil {
		return
	}
	kind := analytics.AnalysisKind(c.DefaultQuery("kind", string(analytics.KindCFA)))
	spec, err := s.coordinator.BuildModelSpec(kind)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, spec)
}

func (s *Server) handleRunAnalyses(c *gin.Context) {
	var body struct {
		Configs []analytics.Config `json:"configs" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", core.ErrMalformedInput, err))
		return
	}
	session := s.session(c)
	if session == nil {
		return
	}
	if err := s.coordinator.SelectAnalyses(body.Configs); err != nil {
		s.fail(c, err)
		return
	}

	// Dispatch runs detached so the client can keep polling status; errors
	// land in the session for the status endpoint to surface.
	go func() {
		if err := s.coordinator.RunSelected(context.Background()); err != nil {
			s.log.Error("analysis dispatch failed: %v", err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "dispatched"})
}

func (s *Server) handleResults(c *gin.Context) {
	session := s.session(c)
	if session == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"step":      session.Step(),
		"analyzing": session.Analyzing(),
		"error":     session.LastError(),
		"results":   session.Results(),
	})
}

func (s *Server) handleResultsReport(c *gin.Context) {
	session := s.session(c)
	if session == nil {
		return
	}
	md := s.renderer.ResultsMarkdown(session.Results())
	c.Data(http.StatusOK, "text/html; charset=utf-8", s.renderer.HTML(md))
}
