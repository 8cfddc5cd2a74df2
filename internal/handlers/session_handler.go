package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"exam-service/internal/db"
	"exam-service/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	Service *service.SessionService
}

func NewSessionHandler(s *service.SessionService) *SessionHandler {
	return &SessionHandler{Service: s}
}

// InitializeSession starts a new exam session for the authenticated user.
func (h *SessionHandler) InitializeSession(c *gin.Context) {
	var req struct {
		TestType string `json:"test_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID is required"})
		return
	}

	session, err := h.Service.InitializeSession(context.Background(), userID, req.TestType)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTestType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to initialize session",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session":   session,
		"next_step": "Call /next to get the first question",
	})
}

// NextQuestion issues the next question for the session. Re-fetching while a
// question is pending returns the same question.
func (h *SessionHandler) NextQuestion(c *gin.Context) {
	sessionID := c.Param("id")

	question, result, err := h.Service.NextQuestion(context.Background(), sessionID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"question": question.Sanitized()})
	case errors.Is(err, service.ErrQuestionsExhausted):
		c.JSON(http.StatusOK, gin.H{
			"completed": true,
			"result":    result,
			"message":   "No further questions available; session finalized",
		})
	case errors.Is(err, service.ErrSessionComplete):
		c.JSON(http.StatusOK, gin.H{
			"completed": true,
			"message":   "Session has been completed",
		})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get next question",
			"details": err.Error(),
		})
	}
}

// SubmitAnswer grades the submitted answer against the pending question.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	sessionID := c.Param("id")

	var req struct {
		QuestionID string `json:"question_id" binding:"required"`
		Answer     string `json:"answer"`
		TimeSpent  int    `json:"time_spent_seconds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid answer format",
			"details": err.Error(),
		})
		return
	}

	outcome, err := h.Service.SubmitAnswer(context.Background(), sessionID, req.QuestionID, req.Answer, req.TimeSpent)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		case errors.Is(err, service.ErrSessionComplete):
			c.JSON(http.StatusConflict, gin.H{"error": "Session has been completed"})
		case errors.Is(err, service.ErrNoPendingQuestion), errors.Is(err, service.ErrQuestionMismatch):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to process answer",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// FinalizeSession completes the session on the test taker's request.
func (h *SessionHandler) FinalizeSession(c *gin.Context) {
	sessionID := c.Param("id")

	result, err := h.Service.FinalizeSession(context.Background(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to finalize session",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":  result,
		"message": "Session finalized",
	})
}

// RecordProctorEvent appends a proctoring observation to the session.
func (h *SessionHandler) RecordProctorEvent(c *gin.Context) {
	sessionID := c.Param("id")

	var req struct {
		Type    string `json:"type" binding:"required"`
		Details string `json:"details"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Service.RecordProctorEvent(context.Background(), sessionID, req.Type, req.Details); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to record event",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recorded": true})
}

// GetSessionAnswers returns the graded answer records for a session.
func (h *SessionHandler) GetSessionAnswers(c *gin.Context) {
	sessionID := c.Param("id")

	answers, err := h.Service.GetSessionAnswers(context.Background(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get answers",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answers":    answers,
		"count":      len(answers),
		"session_id": sessionID,
	})
}

// GetSessionStatus returns the current state of a session without touching it.
func (h *SessionHandler) GetSessionStatus(c *gin.Context) {
	sessionID := c.Param("id")

	session, err := h.Service.GetSession(context.Background(), sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":         session.ID,
		"status":             session.Status,
		"test_type":          session.Type,
		"current_difficulty": session.CurrentDifficulty,
		"current_score":      session.RunningScore(),
		"questions_answered": len(session.History),
		"incorrect_answers":  session.IncorrectAnswers,
		"has_pending":        session.PendingQuestionID != "",
		"started_at":         session.StartTime,
		"session_duration":   time.Since(session.StartTime).String(),
	})
}

// ValidateSessionAccess checks the session belongs to the authenticated user.
func (h *SessionHandler) ValidateSessionAccess(c *gin.Context) {
	sessionID := c.Param("id")
	userID := c.GetString("user_id")

	session, err := h.Service.GetSession(context.Background(), sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if session.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"session_id": sessionID,
		"user_id":    userID,
	})
}

var startedAt = time.Now()

// HealthCheck reports liveness and the database connection state.
func (h *SessionHandler) HealthCheck(c *gin.Context) {
	status := "healthy"
	if !db.IsConnected() {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"service":   "exam-service",
		"status":    status,
		"uptime":    time.Since(startedAt).String(),
		"timestamp": time.Now(),
	})
}
