package handlers

import (
	"net/http"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/token"

	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	refresher *token.Refresher
}

func NewTokenHandler(r *token.Refresher) *TokenHandler {
	return &TokenHandler{refresher: r}
}

// Status reports whether a location's access token is still valid.
// Read-only: an expired token is reported, not refreshed.
func (h *TokenHandler) Status(c *gin.Context) {
	locationID := c.Param("locationId")
	if locationID == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "location_id is required")
		return
	}

	validation := h.refresher.Validate(locationID)

	resp := gin.H{
		"locationId": locationID,
		"valid":      validation.Valid,
		"message":    validation.Message,
	}
	if !validation.ExpiresAt.IsZero() {
		resp["expiresAt"] = validation.ExpiresAt
	}

	c.JSON(http.StatusOK, resp)
}
