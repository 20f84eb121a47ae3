package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API endpoints on r
func RegisterRoutes(r gin.IRouter, sections *SectionHandler, analysis *AnalysisHandler, health *HealthHandler) {
	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)

	r.POST("/suggest-sections", sections.SuggestSections)
	r.GET("/sections/:section_number", sections.GetSection)

	r.POST("/analyse-description", analysis.AnalyseDescription)
	r.POST("/convert-ipc-to-bns", analysis.ConvertIPCToBNS)
}

// NoRoute answers unknown paths with the error envelope
func NoRoute(c *gin.Context) {
	writeError(c, http.StatusNotFound, CodeNotFound, "route not found: "+c.Request.URL.Path)
}
