package auth

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/naga-sai1/inv-ecommerce/internal/platform/config"
)

// NewFirebaseVerifier returns the Admin SDK auth client for the configured project. The client
// checks signatures against Google's cached public keys; the Authenticator bounds each call.
func NewFirebaseVerifier(ctx context.Context, cfg config.FirebaseConfig) (TokenVerifier, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firebase project id is required")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, ClientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("firebase app for project %s: %w", cfg.ProjectID, err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return client, nil
}

// ClientOptions turns the Firebase credentials into Google API client options. It is shared
// with the Firestore provider. Inline JSON wins over a credentials file.
func ClientOptions(cfg config.FirebaseConfig) []option.ClientOption {
	if cfg.CredentialsJSON != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))}
	}
	if cfg.CredentialsFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}
	}
	return nil
}
