package http

import (
	"net/http"

	"angostura-trivia-service/internal/content"
	"github.com/gin-gonic/gin"
)

// ContentHandler serves the static park information.
type ContentHandler struct {
	park content.Park
}

func NewContentHandler(park content.Park) *ContentHandler {
	return &ContentHandler{park: park}
}

// Park handles GET /api/content/park.
func (h *ContentHandler) Park(c *gin.Context) {
	c.JSON(http.StatusOK, h.park)
}

// Attractions handles GET /api/content/attractions.
func (h *ContentHandler) Attractions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"attractions": h.park.Attractions})
}

// Communities handles GET /api/content/communities.
func (h *ContentHandler) Communities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"communities": h.park.Communities})
}

// Project handles GET /api/content/project.
func (h *ContentHandler) Project(c *gin.Context) {
	c.JSON(http.StatusOK, h.park.Project)
}
