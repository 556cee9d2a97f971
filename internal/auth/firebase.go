package auth

import (
	"context"
	"fmt"

	firebaseauth "firebase.google.com/go/v4/auth"

	"livewall-backend-go/internal/models"
)

// IDTokenVerifier turns a third-party ID token into a verified identity.
type IDTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (models.Identity, error)
}

// FirebaseVerifier verifies Firebase Authentication ID tokens.
type FirebaseVerifier struct {
	client *firebaseauth.Client
}

// NewFirebaseVerifier wraps a Firebase Auth client.
func NewFirebaseVerifier(client *firebaseauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (models.Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return models.Identity{}, fmt.Errorf("verify firebase id token: %w", err)
	}
	identity := models.Identity{Subject: token.UID, Provider: "firebase"}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		identity.Name = name
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		identity.Picture = picture
	}
	return identity, nil
}
