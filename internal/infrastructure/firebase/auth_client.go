package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"eventcraft/pkg/config"
	"eventcraft/pkg/logger"
)

// Clients holds the Firebase services the server talks to. Firestore is nil
// unless STORAGE_DRIVER=firestore and Auth is nil unless AUTH_ENABLED is set.
type Clients struct {
	Firestore *firestore.Client
	Auth      *auth.Client
}

// credentials prefers the inline service account JSON and falls back to a
// file path for local development.
func credentials(cfg *config.Config) (option.ClientOption, error) {
	if cfg.ServiceAccountRaw != "" {
		logger.Info("Using Firebase service account from environment variable")
		return option.WithCredentialsJSON([]byte(cfg.ServiceAccountRaw)), nil
	}

	if cfg.ServiceAccountPath == "" {
		return nil, fmt.Errorf("FIREBASE_SERVICE_ACCOUNT_JSON or FIREBASE_SERVICE_ACCOUNT_PATH is required")
	}
	if _, err := os.Stat(cfg.ServiceAccountPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("service account file does not exist: %s", cfg.ServiceAccountPath)
	}
	logger.Info("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
	return option.WithCredentialsFile(cfg.ServiceAccountPath), nil
}

// NewClients is only called when at least one Firebase service is needed.
func NewClients(ctx context.Context, cfg *config.Config) (*Clients, error) {
	opt, err := credentials(cfg)
	if err != nil {
		return nil, err
	}

	app, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase: %w", err)
	}

	clients := &Clients{}
	if cfg.StorageDriver == config.StorageFirestore {
		clients.Firestore, err = app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("create firestore client: %w", err)
		}
	}

	if cfg.AuthEnabled {
		clients.Auth, err = app.Auth(ctx)
		if err != nil {
			clients.Close()
			return nil, fmt.Errorf("initialize firebase auth: %w", err)
		}
	}
	return clients, nil
}

func (c *Clients) Close() error {
	if c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}
