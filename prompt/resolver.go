package prompt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/advergate/advergate/advertiser"
)

// Resolver answers "what is this advertiser's current prompt?". It is
// the only component that touches both the cache and the settings store.
type Resolver struct {
	store advertiser.Store
	cache Cache
	log   *log.Logger
	now   func() time.Time
}

func NewResolver(store advertiser.Store, cache Cache, logger *log.Logger) *Resolver {
	return &Resolver{
		store: store,
		cache: cache,
		log:   logger,
		now:   time.Now,
	}
}

// Resolve returns the advertiser's synthesized prompt, from cache when a
// live entry exists, otherwise fetched and synthesized fresh. An
// advertiser with no settings document yields an empty entry and is
// deliberately not cached, so settings created afterwards are visible on
// the very next request. Store failures propagate unretried.
func (r *Resolver) Resolve(ctx context.Context, advertiserID string) (Entry, error) {
	if entry, ok := r.cache.Get(ctx, advertiserID); ok {
		r.log.Debug("prompt fetched from cache", "advertiser_id", advertiserID)
		return entry, nil
	}

	settings, err := r.store.Get(ctx, advertiserID)
	if err != nil {
		if errors.Is(err, advertiser.ErrNotFound) {
			return Entry{AdvertiserID: advertiserID}, nil
		}
		return Entry{}, fmt.Errorf("resolve prompt for %s: %w", advertiserID, err)
	}

	entry := r.synthesize(advertiserID, settings)
	r.cache.Set(ctx, advertiserID, entry)
	r.log.Info("prompt generated and cached", "advertiser_id", advertiserID, "missing_fields", entry.MissingFields)
	return entry, nil
}

// ForceRefresh re-synthesizes the prompt regardless of any live cache
// entry, persists it back onto the settings document, and replaces the
// cache entry. Unlike Resolve, an unknown advertiser is an error here:
// there is nothing to regenerate.
func (r *Resolver) ForceRefresh(ctx context.Context, advertiserID string) (Entry, error) {
	settings, err := r.store.Get(ctx, advertiserID)
	if err != nil {
		if errors.Is(err, advertiser.ErrNotFound) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("refresh prompt for %s: %w", advertiserID, err)
	}

	entry := r.synthesize(advertiserID, settings)
	if err := r.store.SavePrompt(ctx, advertiserID, entry.Prompt, entry.GeneratedAt); err != nil {
		return Entry{}, fmt.Errorf("refresh prompt for %s: %w", advertiserID, err)
	}

	r.cache.Set(ctx, advertiserID, entry)
	r.log.Info("prompt regenerated", "advertiser_id", advertiserID, "missing_fields", entry.MissingFields)
	return entry, nil
}

func (r *Resolver) synthesize(advertiserID string, settings *advertiser.Settings) Entry {
	text, missing := Synthesize(settings)
	return Entry{
		AdvertiserID:  advertiserID,
		Prompt:        text,
		MissingFields: missing,
		GeneratedAt:   r.now(),
	}
}
