package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gokaycavdar/go-urlguard/pkg/widget"
)

// AnalyzeRequest is the body of POST /api/v1/analyze and PUT .../url.
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// KeyRequest is the body of POST .../keys.
type KeyRequest struct {
	Key string `json:"key" binding:"required"`
}

// RunResponse reports whether a run request started a run.
type RunResponse struct {
	Started  bool            `json:"started"`
	Snapshot widget.Snapshot `json:"snapshot"`
}

// SessionResponse is returned when a session is created.
type SessionResponse struct {
	ID       string          `json:"id"`
	Snapshot widget.Snapshot `json:"snapshot"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.store.Len()})
}

// handleAnalyze runs a one-shot analysis outside any session. The request
// context bounds the run, so a client that disconnects aborts it.
func (s *Server) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if isEmpty(req.URL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	res, err := s.analyzer.Analyze(c.Request.Context(), strings.TrimSpace(req.URL), nil)
	if err != nil {
		s.logger.WithError(err).Warn("one-shot analysis aborted")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis aborted"})
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveResult(res)
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleCreateSession(c *gin.Context) {
	w := s.newWidget()
	id, err := s.store.Create(w)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}
	s.logger.WithField("session", id).Info("session created")
	c.JSON(http.StatusCreated, SessionResponse{ID: id, Snapshot: w.Snapshot()})
}

func (s *Server) handleGetSession(c *gin.Context) {
	w, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, w.Snapshot())
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if err := s.store.Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// handleSetURL accepts any text, including empty; validation happens only
// when a run is requested.
func (s *Server) handleSetURL(c *gin.Context) {
	w, ok := s.session(c)
	if !ok {
		return
	}
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w.SetURL(req.URL)
	c.JSON(http.StatusOK, w.Snapshot())
}

// handleRun is the "Check" control. Ignored requests are not errors.
func (s *Server) handleRun(c *gin.Context) {
	w, ok := s.session(c)
	if !ok {
		return
	}
	started := w.Request(widget.TriggerCheck)
	c.JSON(runStatus(started), RunResponse{Started: started, Snapshot: w.Snapshot()})
}

func (s *Server) handleKey(c *gin.Context) {
	w, ok := s.session(c)
	if !ok {
		return
	}
	var req KeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	started := w.KeyPress(req.Key)
	c.JSON(runStatus(started), RunResponse{Started: started, Snapshot: w.Snapshot()})
}

func runStatus(started bool) int {
	if started {
		return http.StatusAccepted
	}
	return http.StatusOK
}
