package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/services"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/store"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/token"

	"github.com/gin-gonic/gin"
)

// OAuthHandler consumes the marketplace authorization callback and turns
// the one-time code into a stored credential.
type OAuthHandler struct {
	refresher   *token.Refresher
	credentials *services.CredentialService
}

func NewOAuthHandler(r *token.Refresher, cs *services.CredentialService) *OAuthHandler {
	return &OAuthHandler{refresher: r, credentials: cs}
}

// Callback exchanges the authorization code and inserts the credential.
// The recipient list starts empty; alerts stay silent until emails are
// configured through the credentials API.
func (h *OAuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST",
			"authorization code is required")
		return
	}

	pair, err := h.refresher.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		log.Printf("[OAuth] Code exchange failed: %v", err)
		respondError(c, http.StatusBadGateway, "CODE_EXCHANGE_FAILED", err.Error())
		return
	}

	cred, err := h.credentials.InsertCredential(services.InsertCredentialRequest{
		LocationID:   pair.LocationID,
		CompanyID:    pair.CompanyID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateLocation) {
			respondError(c, http.StatusConflict, "DUPLICATE_LOCATION",
				"this location is already installed")
			return
		}
		respondError(c, http.StatusInternalServerError, "SERVER_ERROR", err.Error())
		return
	}

	log.Printf("[OAuth] Installed location=%s company=%s", cred.LocationID, cred.CompanyID)

	c.JSON(http.StatusCreated, gin.H{
		"status":     "OK",
		"locationId": cred.LocationID,
		"companyId":  cred.CompanyID,
		"expiresAt":  cred.ExpiresAt,
	})
}
