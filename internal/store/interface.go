package store

import (
	"time"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/models"
)

// CredentialStore is the contract every consumer of the credential table
// depends on. Only *Store implements it in production; tests substitute
// in-memory fakes.
type CredentialStore interface {
	GetCredential(locationID string) (*models.Credential, error)
	ListCredentials() ([]models.Credential, error)
	InsertCredential(cred *models.Credential) error
	UpdateTokenPair(locationID, accessToken, refreshToken string, expiresAt time.Time) error
	UpdateReceiverEmails(locationID string, emails models.EmailList) error
	DeleteCredential(locationID string) error
}

// Compile-time interface check.
var _ CredentialStore = (*Store)(nil)
