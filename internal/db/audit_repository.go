package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"livewall-backend-go/internal/models"
)

const auditLogsCollection = "auditLogs"

type firestoreAuditRepository struct {
	client *firestore.Client
}

// NewFirestoreAuditRepository creates a new Firestore-backed AuditRepository.
func NewFirestoreAuditRepository(client *firestore.Client) AuditRepository {
	return &firestoreAuditRepository{client: client}
}

func (r *firestoreAuditRepository) Create(ctx context.Context, logEntry models.AuditLog) error {
	if _, _, err := r.client.Collection(auditLogsCollection).Add(ctx, logEntry); err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}
