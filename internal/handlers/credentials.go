package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/services"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/store"

	"github.com/gin-gonic/gin"
)

type CredentialHandler struct {
	credentials *services.CredentialService
}

func NewCredentialHandler(cs *services.CredentialService) *CredentialHandler {
	return &CredentialHandler{credentials: cs}
}

// GetCredential returns one location's credential. Token fields never
// serialize (json:"-" on the model).
func (h *CredentialHandler) GetCredential(c *gin.Context) {
	cred, err := h.credentials.GetCredential(c.Param("locationId"))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCredentialNotFound):
			respondError(c, http.StatusNotFound, "CREDENTIAL_NOT_FOUND",
				"no credential stored for this location")
		case errors.Is(err, services.ErrLocationIDRequired):
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "SERVER_ERROR", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, cred)
}

// ListCredentials returns every stored credential.
func (h *CredentialHandler) ListCredentials(c *gin.Context) {
	credentials, err := h.credentials.ListCredentials()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "SERVER_ERROR", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"credentials": credentials,
		"total":       len(credentials),
	})
}

type insertCredentialRequest struct {
	LocationID     string    `json:"locationId" binding:"required"`
	CompanyID      string    `json:"companyId"`
	AccessToken    string    `json:"accessToken" binding:"required"`
	RefreshToken   string    `json:"refreshToken"`
	ExpiresAt      time.Time `json:"expiresAt"`
	ReceiverEmails []string  `json:"receiverEmails"`
}

// InsertCredential stores a new location credential. Duplicate locations
// are rejected; use the update endpoints to change an existing one.
func (h *CredentialHandler) InsertCredential(c *gin.Context) {
	var req insertCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	cred, err := h.credentials.InsertCredential(services.InsertCredentialRequest{
		LocationID:     req.LocationID,
		CompanyID:      req.CompanyID,
		AccessToken:    req.AccessToken,
		RefreshToken:   req.RefreshToken,
		ExpiresAt:      req.ExpiresAt,
		ReceiverEmails: req.ReceiverEmails,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateLocation):
			respondError(c, http.StatusConflict, "DUPLICATE_LOCATION",
				"a credential already exists for this location")
		case errors.Is(err, services.ErrLocationIDRequired),
			errors.Is(err, services.ErrAccessTokenRequired),
			errors.Is(err, services.ErrInvalidEmail):
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "SERVER_ERROR", err.Error())
		}
		return
	}

	c.JSON(http.StatusCreated, cred)
}

type updateEmailsRequest struct {
	ReceiverEmails []string `json:"receiverEmails"`
}

// UpdateReceiverEmails replaces the recipient list for one location.
// An empty list is valid and silences alerts for the location.
func (h *CredentialHandler) UpdateReceiverEmails(c *gin.Context) {
	var req updateEmailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	err := h.credentials.UpdateReceiverEmails(c.Param("locationId"), req.ReceiverEmails)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCredentialNotFound):
			respondError(c, http.StatusNotFound, "CREDENTIAL_NOT_FOUND",
				"no credential stored for this location")
		case errors.Is(err, services.ErrInvalidEmail),
			errors.Is(err, services.ErrLocationIDRequired):
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "SERVER_ERROR", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

type updateTokensRequest struct {
	AccessToken  string    `json:"accessToken" binding:"required"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// UpdateTokenPair overwrites the stored token fields for one location.
func (h *CredentialHandler) UpdateTokenPair(c *gin.Context) {
	var req updateTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	err := h.credentials.UpdateTokenPair(
		c.Param("locationId"),
		req.AccessToken,
		req.RefreshToken,
		req.ExpiresAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCredentialNotFound):
			respondError(c, http.StatusNotFound, "CREDENTIAL_NOT_FOUND",
				"no credential stored for this location")
		case errors.Is(err, services.ErrLocationIDRequired),
			errors.Is(err, services.ErrAccessTokenRequired):
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "SERVER_ERROR", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

// DeleteCredential removes one location's credential.
func (h *CredentialHandler) DeleteCredential(c *gin.Context) {
	err := h.credentials.DeleteCredential(c.Param("locationId"))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCredentialNotFound):
			respondError(c, http.StatusNotFound, "CREDENTIAL_NOT_FOUND",
				"no credential stored for this location")
		case errors.Is(err, services.ErrLocationIDRequired):
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "SERVER_ERROR", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}
