package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/application/workflow"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// ExportResult describes a rendered audit export
type ExportResult struct {
	FileName   string
	Path       string
	Content    []byte
	EntryCount int
}

// ExportService renders the audit trail for compliance review
type ExportService interface {
	// ExportAuditLog exports one request's trail, or every entry when requestID is 0
	ExportAuditLog(ctx context.Context, actorID, requestID int64) (*ExportResult, error)
}

type exportServiceImpl struct {
	users     port.UserDirectory
	requests  port.RequestRepository
	auditLogs port.AuditLogRepository
	renderer  port.AuditRenderer
	storage   port.ExportStorage
	policy    port.OperationPolicy
	now       func() time.Time
	logger    Logger
}

// NewExportService creates a new ExportService. storage may be nil to skip saving.
func NewExportService(
	users port.UserDirectory,
	requests port.RequestRepository,
	auditLogs port.AuditLogRepository,
	renderer port.AuditRenderer,
	storage port.ExportStorage,
	policy port.OperationPolicy,
	logger Logger,
) ExportService {
	return &exportServiceImpl{
		users:     users,
		requests:  requests,
		auditLogs: auditLogs,
		renderer:  renderer,
		storage:   storage,
		policy:    policy,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *exportServiceImpl) ExportAuditLog(ctx context.Context, actorID, requestID int64) (*ExportResult, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("get actor: %w", err)
	}
	if actor == nil {
		return nil, fmt.Errorf("%w: user %d", domainwf.ErrNotFound, actorID)
	}

	allowed, err := s.policy.Allowed(actor.Role, workflow.OperationExportAudit)
	if err != nil {
		return nil, fmt.Errorf("check export policy: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: role %s may not export audit logs", domainwf.ErrUnauthorized, actor.Role)
	}

	var logs []*entity.AuditLog
	scope := "all"
	if requestID > 0 {
		req, err := s.requests.GetByID(ctx, requestID)
		if err != nil {
			return nil, fmt.Errorf("get request: %w", err)
		}
		if req == nil {
			return nil, fmt.Errorf("%w: request %d", domainwf.ErrNotFound, requestID)
		}
		logs, err = s.auditLogs.GetByRequestID(ctx, requestID)
		if err != nil {
			return nil, fmt.Errorf("get audit logs: %w", err)
		}
		scope = fmt.Sprintf("request_%d", requestID)
	} else {
		logs, err = s.auditLogs.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list audit logs: %w", err)
		}
	}

	content, err := s.renderer.Render(ctx, logs)
	if err != nil {
		s.logger.Error("Failed to render audit export", "error", err, "scope", scope)
		return nil, fmt.Errorf("render audit export: %w", err)
	}

	result := &ExportResult{
		FileName:   fmt.Sprintf("audit_%s_%s.xlsx", scope, s.now().UTC().Format("20060102T150405Z")),
		Content:    content,
		EntryCount: len(logs),
	}

	if s.storage != nil {
		path, err := s.storage.Save(ctx, result.FileName, content)
		if err != nil {
			s.logger.Error("Failed to save audit export", "error", err, "file_name", result.FileName)
			return nil, fmt.Errorf("save audit export: %w", err)
		}
		result.Path = path
	}

	s.logger.Info("Audit log exported",
		"actor_id", actorID,
		"scope", scope,
		"entry_count", result.EntryCount,
		"path", result.Path,
	)

	return result, nil
}
