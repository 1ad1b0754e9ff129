package advertiser

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Get when no settings document exists
// for the advertiser. It is distinct from a store failure: an advertiser
// without settings is a normal state, not an error condition.
var ErrNotFound = errors.New("advertiser settings not found")

// Store reads and updates advertiser settings documents.
type Store interface {
	// Get returns the settings for advertiserID, ErrNotFound when no
	// document exists, or another error when the store is unreachable.
	Get(ctx context.Context, advertiserID string) (*Settings, error)

	// SavePrompt persists a freshly synthesized prompt and its timestamp
	// onto the advertiser's document.
	SavePrompt(ctx context.Context, advertiserID, prompt string, updatedAt time.Time) error
}
