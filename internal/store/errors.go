package store

import "errors"

var (
	// ErrCredentialNotFound wraps GORM's not found error for consistency
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrDuplicateLocation is returned by InsertCredential when a row for
	// the location already exists. Insert never overwrites.
	ErrDuplicateLocation = errors.New("location already registered")
)
