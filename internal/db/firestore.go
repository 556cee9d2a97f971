package db

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"livewall-backend-go/internal/config"
)

// FirebaseClients groups the Firebase Admin SDK clients the application uses.
type FirebaseClients struct {
	Firestore *firestore.Client
	Auth      *auth.Client
	Bucket    *storage.BucketHandle // nil when FIREBASE_STORAGE_BUCKET is unset
}

// Close releases the Firestore connection.
func (c *FirebaseClients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}

// ClientOptions returns the Google API credential options derived from the config.
// An empty slice means Application Default Credentials.
func ClientOptions(appConfig *config.Config, logger *zap.Logger) ([]option.ClientOption, error) {
	switch {
	case appConfig.GoogleApplicationCredentials != "":
		if _, err := os.Stat(appConfig.GoogleApplicationCredentials); os.IsNotExist(err) {
			logger.Warn("Credentials file in GOOGLE_APPLICATION_CREDENTIALS does not exist",
				zap.String("path", appConfig.GoogleApplicationCredentials))
		}
		return []option.ClientOption{option.WithCredentialsFile(appConfig.GoogleApplicationCredentials)}, nil
	case appConfig.FirebaseServiceAccountJSONBase64 != "":
		decodedJSON, err := base64.StdEncoding.DecodeString(appConfig.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FirebaseServiceAccountJSONBase64: %w", err)
		}
		return []option.ClientOption{option.WithCredentialsJSON(decodedJSON)}, nil
	default:
		logger.Info("Using Application Default Credentials (ADC) for Google APIs.")
		return nil, nil
	}
}

// InitFirebase initializes the Firebase Admin SDK and returns the Firestore, Auth and
// (optionally) Storage clients.
func InitFirebase(ctx context.Context, appConfig *config.Config, logger *zap.Logger) (*FirebaseClients, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("InitFirebase: appConfig cannot be nil")
	}

	opts, err := ClientOptions(appConfig, logger)
	if err != nil {
		return nil, err
	}

	fbConfig := &firebase.Config{
		ProjectID:     appConfig.FirebaseProjectID,
		StorageBucket: appConfig.FirebaseStorageBucket,
	}
	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Firestore: %w", err)
	}
	logger.Info("Firestore client initialized successfully.")

	authClient, err := app.Auth(ctx)
	if err != nil {
		fsClient.Close()
		return nil, fmt.Errorf("app.Auth: %w", err)
	}
	logger.Info("Firebase Auth client initialized successfully.")

	clients := &FirebaseClients{Firestore: fsClient, Auth: authClient}

	if appConfig.FirebaseStorageBucket != "" {
		storageClient, err := app.Storage(ctx)
		if err != nil {
			fsClient.Close()
			return nil, fmt.Errorf("app.Storage: %w", err)
		}
		bucket, err := storageClient.Bucket(appConfig.FirebaseStorageBucket)
		if err != nil {
			fsClient.Close()
			return nil, fmt.Errorf("storage bucket %q: %w", appConfig.FirebaseStorageBucket, err)
		}
		clients.Bucket = bucket
		logger.Info("Firebase Storage bucket initialized", zap.String("bucket", appConfig.FirebaseStorageBucket))
	}

	return clients, nil
}
