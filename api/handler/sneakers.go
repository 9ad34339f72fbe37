package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sneakerscope/models"
)

// SneakerRouter runs one scrape invocation for a site.
type SneakerRouter interface {
	Route(ctx context.Context, siteID string, q models.SearchQuery) ([]models.Sneaker, error)
}

// Sneakers returns a handler for GET /api/sneakers/:site.
//
// Query parameters:
//
//	brand  keep only records of this brand (case-insensitive)
//	limit  1..100, default defaultLimit
//	q      search text, default is the site's own query
func Sneakers(sr SneakerRouter, defaultLimit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SneakersRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			respondInvalid(c, err.Error())
			return
		}
		if _, given := c.GetQuery("limit"); given && req.Limit == 0 {
			respondInvalid(c, "limit must be between 1 and 100")
			return
		}
		req.Defaults(defaultLimit)

		sneakers, err := sr.Route(c.Request.Context(), c.Param("site"), models.SearchQuery{
			ProductText: req.Query,
			Limit:       req.Limit,
			Brand:       req.Brand,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SneakersResponse{Sneakers: sneakers})
	}
}

func respondInvalid(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: msg},
	})
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}
	c.JSON(mapErrorToStatus(scrapeErr), models.ErrorResponse{Error: scrapeErr.ToDetail()})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeUnsupportedSite:
		return http.StatusNotFound // 404
	case models.ErrCodeLaunch,
		models.ErrCodeNavigationTimeout,
		models.ErrCodeNavigation,
		models.ErrCodeReadinessTimeout,
		models.ErrCodeUpstream,
		models.ErrCodeExtraction:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
