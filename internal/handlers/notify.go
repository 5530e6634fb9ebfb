package handlers

import (
	"errors"
	"net/http"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/cache"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/notifier"

	"github.com/gin-gonic/gin"
)

type NotifyHandler struct {
	notifier *notifier.BatchNotifier
}

func NewNotifyHandler(n *notifier.BatchNotifier) *NotifyHandler {
	return &NotifyHandler{notifier: n}
}

// Run executes one synchronous sweep over every stored location and
// returns the run report. Per-location failures are inside the report;
// only a credential listing failure produces an error response.
func (h *NotifyHandler) Run(c *gin.Context) {
	report, err := h.notifier.ProcessAllClients(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "BATCH_RUN_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, report)
}

// LastReport returns the most recent run report, if one is retained.
func (h *NotifyHandler) LastReport(c *gin.Context) {
	report, err := h.notifier.LastReport(c.Request.Context())
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			respondError(c, http.StatusNotFound, "NO_RUN_REPORT",
				"no batch run has completed recently")
			return
		}
		respondError(c, http.StatusInternalServerError, "SERVER_ERROR", err.Error())
		return
	}

	c.JSON(http.StatusOK, report)
}
