package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EmailList stores the notification recipient addresses as a JSON array string
type EmailList []string

// Value implements the driver.Valuer interface for database storage
func (e EmailList) Value() (driver.Value, error) {
	if e == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(e))
}

// Scan implements the sql.Scanner interface for database retrieval
func (e *EmailList) Scan(value any) error {
	if value == nil {
		*e = EmailList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal EmailList value: %v", value)
	}

	var result []string
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}

	*e = EmailList(result)
	return nil
}

// Credential holds one marketplace location's OAuth token pair and
// notification recipients. One row per location; LocationID is immutable
// once created.
type Credential struct {
	LocationID     string    `gorm:"primaryKey;type:varchar(64)" json:"locationId"`
	CompanyID      string    `gorm:"type:varchar(64)"            json:"companyId"`
	AccessToken    string    `gorm:"not null"                    json:"-"`
	RefreshToken   string    `gorm:"not null"                    json:"-"`
	ExpiresAt      time.Time `gorm:"not null"                    json:"expiresAt"`
	ReceiverEmails EmailList `gorm:"type:text"                   json:"receiverEmails"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// IsExpired reports whether the access token's expiry instant has passed
func (c *Credential) IsExpired() bool {
	return !time.Now().Before(c.ExpiresAt)
}

// HasCompleteTokens reports whether the token triple is usable for API calls.
// A record missing any of access token, refresh token, or expiry is incomplete.
func (c *Credential) HasCompleteTokens() bool {
	return c.AccessToken != "" && c.RefreshToken != "" && !c.ExpiresAt.IsZero()
}
