package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sneakerscope/models"
)

// SiteLister reports the supported sites.
type SiteLister interface {
	Sites() []models.SiteInfo
}

// Sites returns a handler for GET /api/sites.
func Sites(sl SiteLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.SitesResponse{Sites: sl.Sites()})
	}
}
