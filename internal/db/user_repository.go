package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"livewall-backend-go/internal/models"
)

const usersCollection = "users"

// firestoreUserRepository implements the UserRepository interface using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	return &firestoreUserRepository{client: client}
}

// Create adds a new user document. The user.ID (identity subject) is the document ID.
func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Create operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(user.ID).Create(ctx, user)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("user with ID '%s': %w", user.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user with ID '%s': %w", user.ID, err)
	}
	return nil
}

// GetByID retrieves a user document by its ID.
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}
	return decodeUser(docSnap)
}

// GetByEmail returns the first user whose email matches exactly.
func (r *firestoreUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	iter := r.client.Collection(usersCollection).Where("email", "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()

	docSnap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, fmt.Errorf("user with email '%s' not found: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	return decodeUser(docSnap)
}

// UpdateSubscription writes only the billing fields. The document must exist.
func (r *firestoreUserRepository) UpdateSubscription(ctx context.Context, userID string, change models.SubscriptionChange) error {
	updates := []firestore.Update{
		{Path: "subscriptionStatus", Value: change.Status},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	}
	switch {
	case change.Reference != nil:
		updates = append(updates,
			firestore.Update{Path: "subscriptionId", Value: change.Reference.ID},
			firestore.Update{Path: "subscriptionEndDate", Value: change.Reference.EndDate},
		)
	case change.ClearReference:
		updates = append(updates,
			firestore.Update{Path: "subscriptionId", Value: firestore.Delete},
			firestore.Update{Path: "subscriptionEndDate", Value: firestore.Delete},
		)
	}

	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to update subscription for user '%s': %w", userID, err)
	}
	return nil
}

// IncrementAIImagesGenerated applies a server-side increment so concurrent generations
// never lose a count.
func (r *firestoreUserRepository) IncrementAIImagesGenerated(ctx context.Context, userID string) error {
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "aiImagesGenerated", Value: firestore.Increment(1)},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to increment generation counter for user '%s': %w", userID, err)
	}
	return nil
}

func decodeUser(docSnap *firestore.DocumentSnapshot) (*models.User, error) {
	var user models.User
	if err := docSnap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", docSnap.Ref.ID, err)
	}
	user.ID = docSnap.Ref.ID
	return &user, nil
}
