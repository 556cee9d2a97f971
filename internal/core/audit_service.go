package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"livewall-backend-go/internal/db"
	"livewall-backend-go/internal/models"
)

// auditService implements the AuditService interface.
type auditService struct {
	auditRepo db.AuditRepository
}

// NewAuditService creates a new AuditService instance.
func NewAuditService(auditRepo db.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

// CreateAuditLog creates a new audit log entry.
func (s *auditService) CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error {
	if err := s.auditRepo.Create(ctx, logEntry); err != nil {
		return fmt.Errorf("failed to create audit log via repository: %w", err)
	}
	return nil
}

// recordAudit writes an audit entry without affecting the caller's outcome.
func recordAudit(ctx context.Context, audit AuditService, logger *zap.Logger, entry models.AuditLog) {
	if audit == nil {
		return
	}
	if err := audit.CreateAuditLog(ctx, entry); err != nil {
		logger.Warn("Failed to write audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}
