package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Geocode proxies a free-text place query to the configured geocoder
func (h *Handler) Geocode(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}

	limit := 5
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 20 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 20"})
			return
		}
		limit = parsed
	}

	results, err := h.Geocoder.Search(c.Request.Context(), query, limit)
	if err != nil {
		log.Printf("[ERROR] Geocode proxy failed: query=%s err=%v", query, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "geocoding service unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}
