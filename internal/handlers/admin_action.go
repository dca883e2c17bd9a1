package handlers

import (
	"encoding/json"
	"net/http"

	"launchcontrol/internal/handlers/business"

	"github.com/gin-gonic/gin"
)

// RequestAdminActionRequest proposes a high-risk mutation
type RequestAdminActionRequest struct {
	ActionType string          `json:"action_type" binding:"required"`
	Payload    json.RawMessage `json:"payload"`
}

// RequestAdminAction submits an action for dual control
func RequestAdminAction(c *gin.Context) {
	var request RequestAdminActionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := currentPrincipal(c)
	if p.ID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "principal identity required"})
		return
	}

	action, err := business.RequestAdminAction(p, request.ActionType, request.Payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, action)
}

// ListAdminActions returns pending actions or full history
func ListAdminActions(c *gin.Context) {
	actions, err := business.ListAdminActions(c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, actions)
}

// GetAdminAction returns one action with its audit trail
func GetAdminAction(c *gin.Context) {
	id, ok := roundIDParam(c)
	if !ok {
		return
	}

	action, err := business.GetAdminAction(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, action)
}

type decisionRequest struct {
	Reason string `json:"reason"`
}

// ApproveAdminAction records an approval decision
func ApproveAdminAction(c *gin.Context) {
	id, ok := roundIDParam(c)
	if !ok {
		return
	}

	var request decisionRequest
	if err := c.ShouldBindJSON(&request); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := currentPrincipal(c)
	if p.ID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "principal identity required"})
		return
	}

	action, err := business.ApproveAdminAction(id, p, request.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, action)
}

// RejectAdminAction records a rejection decision
func RejectAdminAction(c *gin.Context) {
	id, ok := roundIDParam(c)
	if !ok {
		return
	}

	var request decisionRequest
	if err := c.ShouldBindJSON(&request); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := currentPrincipal(c)
	if p.ID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "principal identity required"})
		return
	}

	action, err := business.RejectAdminAction(id, p, request.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, action)
}

// ExecuteAdminAction executes an approved action (idempotent)
func ExecuteAdminAction(c *gin.Context) {
	id, ok := roundIDParam(c)
	if !ok {
		return
	}

	var request decisionRequest
	if err := c.ShouldBindJSON(&request); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := currentPrincipal(c)
	if p.ID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "principal identity required"})
		return
	}

	action, err := business.ExecuteAdminAction(id, p, request.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, action)
}
