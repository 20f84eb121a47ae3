package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/omeshsingh/bnsp/models"
	"github.com/omeshsingh/bnsp/service"
)

// SectionService is what the section endpoints need from the service layer
type SectionService interface {
	SuggestSections(ctx context.Context, req service.SuggestSectionsRequest) (*service.SuggestSectionsResult, error)
	GetSection(ctx context.Context, number string) (*models.Section, error)
}

// SectionHandler handles HTTP requests for keyword suggestions and section lookups
type SectionHandler struct {
	sections SectionService
}

// NewSectionHandler creates a new section handler
func NewSectionHandler(sections SectionService) *SectionHandler {
	return &SectionHandler{sections: sections}
}

// SuggestSectionsRequest represents the request body for keyword suggestions
type SuggestSectionsRequest struct {
	Keywords []string `json:"keywords" binding:"required"`
}

// SuggestSections handles POST /suggest-sections
func (h *SectionHandler) SuggestSections(c *gin.Context) {
	var req SuggestSectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, CodeInvalidRequest, bindingErrorMessage(err))
		return
	}

	result, err := h.sections.SuggestSections(c.Request.Context(), service.SuggestSectionsRequest{
		Keywords: req.Keywords,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.Sections)
}

// GetSection handles GET /sections/:section_number
func (h *SectionHandler) GetSection(c *gin.Context) {
	section, err := h.sections.GetSection(c.Request.Context(), c.Param("section_number"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, section)
}
