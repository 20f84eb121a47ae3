package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/omeshsingh/bnsp/service"
)

// Error codes returned in the error envelope
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeSectionNotFound = "SECTION_NOT_FOUND"
	CodeUpstreamError   = "UPSTREAM_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeNotReady        = "NOT_READY"
)

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// writeServiceError maps a service error onto its HTTP status
func writeServiceError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
	case errors.Is(err, service.ErrSectionNotFound):
		writeError(c, http.StatusNotFound, CodeSectionNotFound, err.Error())
	case service.IsUpstream(err):
		writeError(c, http.StatusInternalServerError, CodeUpstreamError, "An error occurred: "+err.Error())
	default:
		writeError(c, http.StatusInternalServerError, CodeInternalError, "An error occurred: "+err.Error())
	}
}
