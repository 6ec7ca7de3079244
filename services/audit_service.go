package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ostendo-io/wawagardenbar-app-sub002/models"
	"github.com/ostendo-io/wawagardenbar-app-sub002/repository"
)

// AuditService records privileged mutations for forensics. Recording is
// best-effort: a failed append is logged and never fails the operation
// that triggered it.
type AuditService struct {
	repo   repository.AuditRepository
	logger *zap.Logger
}

func NewAuditService(repo repository.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

func (s *AuditService) Record(ctx context.Context, actor, action, resource, resourceID string, details map[string]interface{}) {
	entry := models.AuditEntry{
		Actor:      actor,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append audit entry",
			zap.String("action", action),
			zap.String("resource", resource),
			zap.String("resource_id", resourceID),
			zap.Error(err),
		)
	}
}
