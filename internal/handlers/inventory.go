package handlers

import (
	"errors"
	"net/http"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/inventory"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/token"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventory *inventory.Service
}

func NewInventoryHandler(s *inventory.Service) *InventoryHandler {
	return &InventoryHandler{inventory: s}
}

// Summary computes a fresh inventory summary for one location.
func (h *InventoryHandler) Summary(c *gin.Context) {
	summary, err := h.inventory.QuerySummary(c.Request.Context(), c.Param("locationId"))
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrEmptyLocationID):
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		case errors.Is(err, token.ErrRefreshFailed):
			respondError(c, http.StatusUnauthorized, "TOKEN_REFRESH_FAILED", err.Error())
		case errors.Is(err, inventory.ErrInventoryAPI):
			respondError(c, http.StatusBadGateway, "INVENTORY_API_ERROR", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "SERVER_ERROR", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, summary)
}
