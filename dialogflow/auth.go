package dialogflow

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// TokenSource yields a short-lived bearer token for the NLU platform.
// Tokens are requested per call; the source handles expiry and rotation.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// googleTokenSource wraps an oauth2 source built from service-account
// credentials JSON.
type googleTokenSource struct {
	source oauth2.TokenSource
}

// NewGoogleTokenSource builds a TokenSource from service-account
// credentials JSON scoped to the Google Cloud platform.
func NewGoogleTokenSource(ctx context.Context, credentialsJSON []byte) (TokenSource, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Dialogflow credentials: %w", err)
	}
	return &googleTokenSource{source: creds.TokenSource}, nil
}

func (s *googleTokenSource) Token(_ context.Context) (string, error) {
	tok, err := s.source.Token()
	if err != nil {
		return "", fmt.Errorf("failed to obtain access token: %w", err)
	}
	return tok.AccessToken, nil
}
