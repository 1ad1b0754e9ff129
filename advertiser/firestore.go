package advertiser

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore reads advertiser settings from a Firestore collection,
// one document per advertiser keyed by advertiser ID.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore connects to Firestore with the given service-account
// credentials JSON.
func NewFirestoreStore(ctx context.Context, projectID, collection string, credentialsJSON []byte) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return &FirestoreStore{client: client, collection: collection}, nil
}

// Get implements Store.
func (s *FirestoreStore) Get(ctx context.Context, advertiserID string) (*Settings, error) {
	doc, err := s.client.Collection(s.collection).Doc(advertiserID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read advertiser settings: %w", err)
	}

	var settings Settings
	if err := doc.DataTo(&settings); err != nil {
		return nil, fmt.Errorf("failed to decode advertiser settings: %w", err)
	}
	return &settings, nil
}

// SavePrompt implements Store.
func (s *FirestoreStore) SavePrompt(ctx context.Context, advertiserID, prompt string, updatedAt time.Time) error {
	_, err := s.client.Collection(s.collection).Doc(advertiserID).Update(ctx, []firestore.Update{
		{Path: "Prompt", Value: prompt},
		{Path: "Prompt_last_updated", Value: updatedAt},
	})
	if err != nil {
		return fmt.Errorf("failed to save prompt: %w", err)
	}
	return nil
}

// Close releases the underlying Firestore client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
