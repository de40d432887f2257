package workflow

import (
	"context"
	"fmt"

	"github.com/garyjia/travel-approval/internal/domain/access"
	"github.com/garyjia/travel-approval/internal/domain/entity"
)

func (s *serviceImpl) GetRequest(ctx context.Context, requestID int64) (*entity.TravelRequest, error) {
	return s.getRequest(ctx, requestID)
}

func (s *serviceImpl) GetUserRequests(ctx context.Context, userID int64) ([]*entity.TravelRequest, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	reqs, err := s.store.Requests.ListByRequester(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list requests of user %d: %w", userID, err)
	}
	return reqs, nil
}

func (s *serviceImpl) CanUserActOnRequest(ctx context.Context, userID, requestID int64) (bool, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return false, err
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.resolver.CanAct(user, req), nil
}

func (s *serviceImpl) GetNextApprover(ctx context.Context, requestID int64) (*entity.User, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	id, ok := s.resolver.NextApprover(req)
	if !ok {
		return nil, nil
	}
	return s.getUser(ctx, id)
}

// GetPendingApprovals lists requests waiting on userID, oldest first. Drafts are excluded.
func (s *serviceImpl) GetPendingApprovals(ctx context.Context, userID int64) ([]*entity.TravelRequest, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	statuses := access.StatusesForRole(user.Role)
	if len(statuses) == 0 {
		return []*entity.TravelRequest{}, nil
	}

	reqs, err := s.store.Requests.ListByStatuses(ctx, statuses)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}

	pending := make([]*entity.TravelRequest, 0, len(reqs))
	for _, req := range reqs {
		if s.resolver.CanAct(user, req) {
			pending = append(pending, req)
		}
	}
	return pending, nil
}

func (s *serviceImpl) GetRequestAuditLogs(ctx context.Context, requestID int64) ([]*entity.AuditLog, error) {
	if _, err := s.getRequest(ctx, requestID); err != nil {
		return nil, err
	}
	logs, err := s.store.AuditLogs.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list audit logs of request %d: %w", requestID, err)
	}
	return logs, nil
}

func (s *serviceImpl) GetTicketOptions(ctx context.Context, requestID int64) ([]*entity.TicketOption, error) {
	if _, err := s.getRequest(ctx, requestID); err != nil {
		return nil, err
	}
	options, err := s.store.TicketOptions.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list ticket options of request %d: %w", requestID, err)
	}
	return options, nil
}

func (s *serviceImpl) GetApprovals(ctx context.Context, requestID int64) ([]*entity.Approval, error) {
	if _, err := s.getRequest(ctx, requestID); err != nil {
		return nil, err
	}
	approvals, err := s.store.Approvals.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list approvals of request %d: %w", requestID, err)
	}
	return approvals, nil
}

func (s *serviceImpl) GetUserNotifications(ctx context.Context, userID int64) ([]*entity.Notification, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	notes, err := s.store.Notifications.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications of user %d: %w", userID, err)
	}
	return notes, nil
}
