package handlers

import (
	"errors"
	"net/http"

	"launchcontrol/internal/handlers/business"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// respondError maps the business error taxonomy onto HTTP statuses.
// Integrity violations carry an explicit flag so callers can distinguish
// "not ready yet, retry" from "stop and escalate to an operator".
func respondError(c *gin.Context, err error) {
	var notFound *business.NotFoundError
	var validation *business.ValidationError
	var conflict *business.ConflictError
	var expired *business.ExpiredActionError
	var integrity *business.IntegrityViolationError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &expired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.As(err, &integrity):
		log.Errorf("integrity violation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":               err.Error(),
			"integrity_violation": true,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// currentPrincipal reads the principal the middleware extracted from the
// gateway-verified identity headers.
func currentPrincipal(c *gin.Context) business.Principal {
	if v, ok := c.Get("principal"); ok {
		if p, ok := v.(business.Principal); ok {
			return p
		}
	}
	return business.Principal{}
}
