package services

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/models"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/store"
)

var (
	ErrLocationIDRequired  = errors.New("location_id is required")
	ErrAccessTokenRequired = errors.New("access_token is required")
	ErrInvalidEmail        = errors.New("invalid email address")
)

// CredentialService validates input before it reaches the credential
// store. Storage errors (not found, duplicate) pass through unchanged
// so callers can match them with errors.Is.
type CredentialService struct {
	store store.CredentialStore
}

func NewCredentialService(s store.CredentialStore) *CredentialService {
	return &CredentialService{store: s}
}

type InsertCredentialRequest struct {
	LocationID     string
	CompanyID      string
	AccessToken    string
	RefreshToken   string
	ExpiresAt      time.Time
	ReceiverEmails []string
}

func (s *CredentialService) GetCredential(locationID string) (*models.Credential, error) {
	locationID = strings.TrimSpace(locationID)
	if locationID == "" {
		return nil, ErrLocationIDRequired
	}
	return s.store.GetCredential(locationID)
}

func (s *CredentialService) ListCredentials() ([]models.Credential, error) {
	return s.store.ListCredentials()
}

func (s *CredentialService) InsertCredential(req InsertCredentialRequest) (*models.Credential, error) {
	locationID := strings.TrimSpace(req.LocationID)
	if locationID == "" {
		return nil, ErrLocationIDRequired
	}
	if strings.TrimSpace(req.AccessToken) == "" {
		return nil, ErrAccessTokenRequired
	}

	emails, err := normalizeEmails(req.ReceiverEmails)
	if err != nil {
		return nil, err
	}

	cred := &models.Credential{
		LocationID:     locationID,
		CompanyID:      strings.TrimSpace(req.CompanyID),
		AccessToken:    req.AccessToken,
		RefreshToken:   req.RefreshToken,
		ExpiresAt:      req.ExpiresAt,
		ReceiverEmails: emails,
	}

	if err := s.store.InsertCredential(cred); err != nil {
		return nil, err
	}
	return cred, nil
}

func (s *CredentialService) UpdateReceiverEmails(locationID string, emails []string) error {
	locationID = strings.TrimSpace(locationID)
	if locationID == "" {
		return ErrLocationIDRequired
	}

	normalized, err := normalizeEmails(emails)
	if err != nil {
		return err
	}
	return s.store.UpdateReceiverEmails(locationID, normalized)
}

func (s *CredentialService) UpdateTokenPair(
	locationID, accessToken, refreshToken string,
	expiresAt time.Time,
) error {
	locationID = strings.TrimSpace(locationID)
	if locationID == "" {
		return ErrLocationIDRequired
	}
	if strings.TrimSpace(accessToken) == "" {
		return ErrAccessTokenRequired
	}
	return s.store.UpdateTokenPair(locationID, accessToken, refreshToken, expiresAt)
}

func (s *CredentialService) DeleteCredential(locationID string) error {
	locationID = strings.TrimSpace(locationID)
	if locationID == "" {
		return ErrLocationIDRequired
	}
	return s.store.DeleteCredential(locationID)
}

// normalizeEmails trims, drops empty entries, and rejects anything that
// does not parse as an address. An empty input yields an empty list, not
// nil, so the stored value is always a JSON array.
func normalizeEmails(emails []string) (models.EmailList, error) {
	normalized := make(models.EmailList, 0, len(emails))
	for _, email := range emails {
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, ErrInvalidEmail
		}
		normalized = append(normalized, email)
	}
	return normalized, nil
}
