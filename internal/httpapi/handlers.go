package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"voicecoach/internal/auth"
	"voicecoach/internal/session"
	"voicecoach/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call the controller, return JSON.

type Handlers struct {
	Auth     *auth.Manager
	Sessions *Registry
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Login issues a JWT token pair.
//
// NOTE: Identity is asserted, not proven; real deployments sit behind an
// identity provider and exchange its assertion here.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || !strings.Contains(req.Email, "@") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id and email required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Email)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Session ---

func (h Handlers) controller(c *gin.Context) (*session.Controller, bool) {
	if h.Sessions == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sessions not configured"})
		return nil, false
	}
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "identity required"})
		return nil, false
	}
	email, _ := auth.Email(c.Request.Context())

	ctrl, err := h.Sessions.Get(c.Request.Context(), userID, email)
	if err != nil {
		logger.FromGin(c).Error("session init failed", "user_id", userID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
		return nil, false
	}
	return ctrl, true
}

// GetSession returns the controller snapshot for rendering.
func (h Handlers) GetSession(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// ListAssistants returns the selectable assistant configurations.
func (h Handlers) ListAssistants(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"assistants": ctrl.Snapshot().Assistants})
}

type selectAssistantRequest struct {
	AssistantID string `json:"assistant_id"`
}

func (h Handlers) SelectAssistant(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var req selectAssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AssistantID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "assistant_id required"})
		return
	}
	if err := ctrl.SelectAssistant(req.AssistantID); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, session.ErrCallActive) {
			status = http.StatusConflict
		}
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h Handlers) StartCall(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctrl.RequestStart(c.Request.Context()); err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, session.ErrNoAssistantSelected):
			status = http.StatusBadRequest
		case errors.Is(err, session.ErrCallActive):
			status = http.StatusConflict
		}
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h Handlers) StopCall(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	ctrl.RequestStop(c.Request.Context())
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h Handlers) ResetSession(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	ctrl.Reset()
	c.JSON(http.StatusOK, ctrl.Snapshot())
}
