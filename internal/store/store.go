package store

import (
	"errors"
	"time"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the durable per-location credential table. All mutations go
// through one Store instance per deployment; a credential row is always
// fully consistent (pre-update or post-update values, never a mix).
type Store struct {
	db *gorm.DB
}

func New(driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Auto migrate
	if err := db.AutoMigrate(&models.Credential{}); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// GetCredential returns the credential for one location
func (s *Store) GetCredential(locationID string) (*models.Credential, error) {
	var cred models.Credential
	if err := s.db.Where("location_id = ?", locationID).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}
	return &cred, nil
}

// ListCredentials returns all registered locations
func (s *Store) ListCredentials() ([]models.Credential, error) {
	var creds []models.Credential
	if err := s.db.Order("created_at ASC").Find(&creds).Error; err != nil {
		return nil, err
	}
	return creds, nil
}

// InsertCredential persists a new location record. The insert is
// non-overwriting: a second insert for the same location fails with
// ErrDuplicateLocation and leaves the existing row untouched.
func (s *Store) InsertCredential(cred *models.Credential) error {
	if cred.ReceiverEmails == nil {
		cred.ReceiverEmails = models.EmailList{}
	}
	if err := s.db.Create(cred).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateLocation
		}
		return err
	}
	return nil
}

// UpdateTokenPair replaces only the three token fields, leaving company_id
// and receiver_emails untouched
func (s *Store) UpdateTokenPair(
	locationID, accessToken, refreshToken string,
	expiresAt time.Time,
) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var cred models.Credential
		if err := tx.Where("location_id = ?", locationID).First(&cred).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCredentialNotFound
			}
			return err
		}
		return tx.Model(&cred).Updates(map[string]any{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"expires_at":    expiresAt,
		}).Error
	})
}

// UpdateReceiverEmails replaces the full recipient list for a location
func (s *Store) UpdateReceiverEmails(locationID string, emails models.EmailList) error {
	if emails == nil {
		emails = models.EmailList{}
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var cred models.Credential
		if err := tx.Where("location_id = ?", locationID).First(&cred).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCredentialNotFound
			}
			return err
		}
		return tx.Model(&cred).Update("receiver_emails", emails).Error
	})
}

// DeleteCredential removes a location's record
func (s *Store) DeleteCredential(locationID string) error {
	result := s.db.Where("location_id = ?", locationID).Delete(&models.Credential{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

// Health checks the database connection
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// DB returns the underlying GORM database connection (for transactions)
func (s *Store) DB() *gorm.DB {
	return s.db
}
