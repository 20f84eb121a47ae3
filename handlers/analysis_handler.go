package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/omeshsingh/bnsp/service"
)

// AnalysisService is what the analysis endpoints need from the service layer
type AnalysisService interface {
	AnalyseDescription(ctx context.Context, req service.AnalyseDescriptionRequest) (*service.AnalysisResult, error)
	ConvertIPCToBNS(ctx context.Context, req service.ConvertIPCRequest) (*service.AnalysisResult, error)
}

// AnalysisHandler handles HTTP requests for the retrieval-augmented endpoints
type AnalysisHandler struct {
	analysis AnalysisService
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analysis AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis}
}

// AnalyseDescriptionRequest represents the request body for description analysis
type AnalyseDescriptionRequest struct {
	Description string `json:"description" binding:"required,notblank"`
}

// ConvertIPCRequest represents the request body for IPC to BNS mapping
type ConvertIPCRequest struct {
	IPCSection  string `json:"ipc_section" binding:"required,notblank"`
	Description string `json:"description"`
}

// AnalyseDescription handles POST /analyse-description
func (h *AnalysisHandler) AnalyseDescription(c *gin.Context) {
	var req AnalyseDescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, CodeInvalidRequest, bindingErrorMessage(err))
		return
	}

	result, err := h.analysis.AnalyseDescription(c.Request.Context(), service.AnalyseDescriptionRequest{
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.Analysis)
}

// ConvertIPCToBNS handles POST /convert-ipc-to-bns
func (h *AnalysisHandler) ConvertIPCToBNS(c *gin.Context) {
	var req ConvertIPCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, CodeInvalidRequest, bindingErrorMessage(err))
		return
	}

	result, err := h.analysis.ConvertIPCToBNS(c.Request.Context(), service.ConvertIPCRequest{
		IPCSection:  req.IPCSection,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.Analysis)
}
