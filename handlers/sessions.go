package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"formfill/services"
	"formfill/utils"
)

// SessionHandler is the operator's control surface over browsers left open after a fill.
type SessionHandler struct {
	sessions *services.SessionRegistry
}

func NewSessionHandler(sessions *services.SessionRegistry) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) List(c *gin.Context) {
	sessions := h.sessions.List()
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions)})
}

// Get reports one session and restarts its idle clock.
func (h *SessionHandler) Get(c *gin.Context) {
	session, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		utils.NotFoundError(c, "session not found")
		return
	}
	c.JSON(http.StatusOK, session.Info())
}

func (h *SessionHandler) Close(c *gin.Context) {
	id := c.Param("id")
	err := h.sessions.Close(id)
	if errors.Is(err, services.ErrSessionNotFound) {
		utils.NotFoundError(c, "session not found")
		return
	}
	if err != nil {
		// The session is already out of the registry; report the teardown problem.
		utils.LogError("Session close reported an error", err, map[string]interface{}{"session_id": id})
		utils.InternalServerError(c, "Failed to close session", "details", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "closed", "session_id": id})
}

func (h *SessionHandler) CloseAll(c *gin.Context) {
	closed := h.sessions.CloseAll()
	c.JSON(http.StatusOK, gin.H{"status": "closed", "closed": closed})
}

func (h *SessionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "open_sessions": h.sessions.Len()})
}
