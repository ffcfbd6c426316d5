// Package firebase verifies Firebase ID tokens with the Admin SDK.
package firebase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/logger"
)

// Config holds Firebase Admin settings. CredentialsJSON wins over
// CredentialsPath; with neither, application default credentials are used.
type Config struct {
	ProjectID       string
	CredentialsPath string
	CredentialsJSON string
}

type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Verifier checks Firebase ID tokens
type Verifier struct {
	client tokenVerifier
}

// NewVerifier initializes the Firebase app and its auth client
func NewVerifier(ctx context.Context, cfg Config) (*Verifier, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		if !json.Valid([]byte(cfg.CredentialsJSON)) {
			return nil, fmt.Errorf("firebase credentials are not valid JSON")
		}
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsPath != "":
		if _, err := os.Stat(cfg.CredentialsPath); err != nil {
			return nil, fmt.Errorf("firebase credentials file: %w", err)
		}
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	var appCfg *firebase.Config
	if cfg.ProjectID != "" {
		appCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get firebase auth client: %w", err)
	}

	logger.Named("firebase").Infow("token verification enabled", "project", cfg.ProjectID)
	return &Verifier{client: client}, nil
}

// VerifyToken returns the uid of a valid ID token
func (v *Verifier) VerifyToken(ctx context.Context, idToken string) (string, error) {
	if idToken == "" {
		return "", domain.ErrUnauthorized
	}
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return token.UID, nil
}
