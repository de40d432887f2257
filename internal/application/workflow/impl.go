package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/travel-approval/internal/application/dispatcher"
	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/access"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/domain/event"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// Store groups the persistence ports the workflow writes through
type Store struct {
	Requests      port.RequestRepository
	Approvals     port.ApprovalRepository
	TicketOptions port.TicketOptionRepository
	AuditLogs     port.AuditLogRepository
	Notifications port.NotificationRepository
	Tx            port.TransactionManager
}

// serviceImpl is the concrete implementation of Workflow
type serviceImpl struct {
	store      Store
	users      port.UserDirectory
	resolver   *access.Resolver
	policy     port.OperationPolicy
	dispatcher dispatcher.Dispatcher
	locks      *lockTable
	logger     Logger
	now        func() time.Time
}

// Option configures the workflow service
type Option func(*serviceImpl)

// WithDispatcher sets the event dispatcher for emitting events after commit
func WithDispatcher(d dispatcher.Dispatcher) Option {
	return func(s *serviceImpl) {
		s.dispatcher = d
	}
}

// WithAuthorizationMode selects strict (chain-bound) or role-only reviewer matching
func WithAuthorizationMode(mode access.Mode) Option {
	return func(s *serviceImpl) {
		s.resolver = access.NewResolver(mode)
	}
}

// WithOperationPolicy replaces the admin-only policy for administrative operations
func WithOperationPolicy(p port.OperationPolicy) Option {
	return func(s *serviceImpl) {
		s.policy = p
	}
}

// WithLockShards sets the size of the per-request lock table
func WithLockShards(n int) Option {
	return func(s *serviceImpl) {
		s.locks = newLockTable(n)
	}
}

// WithLogger sets the logger
func WithLogger(l Logger) Option {
	return func(s *serviceImpl) {
		s.logger = l
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) {
		s.now = now
	}
}

// NewService creates the workflow service
func NewService(store Store, users port.UserDirectory, opts ...Option) Workflow {
	s := &serviceImpl{
		store:    store,
		users:    users,
		resolver: access.NewResolver(access.ModeStrict),
		policy:   adminOnlyPolicy{},
		locks:    newLockTable(defaultLockShards),
		logger:   nopLogger{},
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger.Info("Workflow service ready", "authorization_mode", s.resolver.Mode())

	return s
}

// CreateRequest stores a new draft owned by the acting user
func (s *serviceImpl) CreateRequest(
	ctx context.Context,
	actor Actor,
	details entity.TravelDetails,
	chain entity.ApprovalChain,
) (*entity.TravelRequest, error) {
	if _, err := s.getUser(ctx, actor.UserID); err != nil {
		return nil, err
	}

	if err := details.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domainwf.ErrInvalidInput, err)
	}
	if err := chain.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domainwf.ErrInvalidInput, err)
	}
	for _, step := range chain {
		user, err := s.getUser(ctx, step.UserID)
		if err != nil {
			return nil, fmt.Errorf("approval chain %s: %w", step.Role, err)
		}
		if user.Role != step.Role {
			return nil, fmt.Errorf("%w: user %d bound as %s holds role %s",
				domainwf.ErrInvalidInput, user.ID, step.Role, user.Role)
		}
	}

	now := s.now()
	req := &entity.TravelRequest{
		Status:        domainwf.StateDraft,
		RequesterID:   actor.UserID,
		TravelDetails: details,
		ApprovalChain: append(entity.ApprovalChain(nil), chain...),
		CreatedAt:     now,
	}
	req.Record(now, actor.UserID, entity.CreateChange{})

	err := s.store.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.store.Requests.Create(txCtx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		after := req.Snapshot()
		after.TravelDetails = &req.TravelDetails
		log, err := auditEntry(req.ID, actor, entity.AuditActionCreate, entity.StateSnapshot{}, after, now)
		if err != nil {
			return err
		}
		if err := s.store.AuditLogs.Create(txCtx, log); err != nil {
			return fmt.Errorf("create audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create request", "requester_id", actor.UserID, "error", err)
		return nil, err
	}

	s.logger.Info("Request created", "request_id", req.ID, "requester_id", actor.UserID)
	s.publish(ctx, event.NewEvent(event.TypeRequestCreated, req.ID, actor.UserID), req)

	return req, nil
}

// EditRequest replaces the travel details of a draft
func (s *serviceImpl) EditRequest(
	ctx context.Context,
	requestID int64,
	actor Actor,
	details entity.TravelDetails,
) (*entity.TravelRequest, error) {
	return s.transition(ctx, requestID, actor, operation{
		trigger:     domainwf.TriggerEdit,
		audit:       entity.AuditActionEdit,
		withDetails: true,
		authorize:   s.requireRequester,
		eventType:   event.TypeRequestEdited,
		prepare: func(ctx context.Context, req *entity.TravelRequest) error {
			if err := details.Validate(); err != nil {
				return fmt.Errorf("%w: %w", domainwf.ErrInvalidInput, err)
			}
			return nil
		},
		apply: func(req *entity.TravelRequest, from, to domainwf.State) entity.Changeset {
			fields := changedFields(req.TravelDetails, details)
			req.TravelDetails = details
			return entity.EditChange{Fields: fields}
		},
	})
}

// SubmitRequest sends a draft to the chain-bound manager
func (s *serviceImpl) SubmitRequest(ctx context.Context, requestID int64, actor Actor) (*entity.TravelRequest, error) {
	return s.transition(ctx, requestID, actor, operation{
		trigger:   domainwf.TriggerSubmit,
		audit:     entity.AuditActionSubmit,
		authorize: s.requireRequester,
		eventType: event.TypeRequestSubmitted,
		apply: func(req *entity.TravelRequest, from, to domainwf.State) entity.Changeset {
			return entity.SubmitChange{}
		},
		recipient: s.nextApprover,
	})
}

// ApproveRequest advances the request one review stage
func (s *serviceImpl) ApproveRequest(ctx context.Context, requestID int64, actor Actor, comments string) (*entity.TravelRequest, error) {
	return s.transition(ctx, requestID, actor, operation{
		trigger:   domainwf.TriggerApprove,
		audit:     entity.AuditActionApprove,
		authorize: s.requireReviewer,
		comments:  comments,
		decision:  entity.ApprovalActionApproved,
		apply: func(req *entity.TravelRequest, from, to domainwf.State) entity.Changeset {
			return entity.ApproveChange{From: from, To: to, Comments: comments}
		},
		eventFor: func(to domainwf.State) event.Type {
			if to == domainwf.StateApproved {
				return event.TypeRequestApproved
			}
			return event.TypeRequestAdvanced
		},
		recipient: func(req *entity.TravelRequest, to domainwf.State) (int64, bool) {
			if to == domainwf.StateApproved {
				return req.RequesterID, true
			}
			return s.resolver.NextApprover(req)
		},
	})
}

// RejectRequest ends the request from any review stage
func (s *serviceImpl) RejectRequest(ctx context.Context, requestID int64, actor Actor, comments string) (*entity.TravelRequest, error) {
	return s.transition(ctx, requestID, actor, operation{
		trigger:   domainwf.TriggerReject,
		audit:     entity.AuditActionReject,
		authorize: s.requireReviewer,
		comments:  comments,
		decision:  entity.ApprovalActionRejected,
		eventType: event.TypeRequestRejected,
		apply: func(req *entity.TravelRequest, from, to domainwf.State) entity.Changeset {
			return entity.RejectChange{From: from, Comments: comments}
		},
		recipient: requester,
	})
}

// ReturnForReview moves the request one stage back
func (s *serviceImpl) ReturnForReview(ctx context.Context, requestID int64, actor Actor, comments string) (*entity.TravelRequest, error) {
	return s.transition(ctx, requestID, actor, operation{
		trigger:   domainwf.TriggerReturn,
		audit:     entity.AuditActionReturn,
		authorize: s.requireReviewer,
		comments:  comments,
		decision:  entity.ApprovalActionReturned,
		eventType: event.TypeRequestReturned,
		apply: func(req *entity.TravelRequest, from, to domainwf.State) entity.Changeset {
			return entity.ReturnChange{From: from, To: to, Comments: comments}
		},
		recipient: s.resolver.ReturnTarget,
	})
}

// SelectTicketOption records the manager's ticket choice and sends the request to final sign-off
func (s *serviceImpl) SelectTicketOption(ctx context.Context, requestID, optionID int64, actor Actor) (*entity.TravelRequest, error) {
	return s.transition(ctx, requestID, actor, operation{
		trigger:   domainwf.TriggerSelectTicket,
		audit:     entity.AuditActionSelectTicket,
		authorize: s.requireReviewer,
		decision:  entity.ApprovalActionApproved,
		ticketID:  &optionID,
		eventType: event.TypeTicketSelected,
		prepare: func(ctx context.Context, req *entity.TravelRequest) error {
			option, err := s.store.TicketOptions.GetByID(ctx, optionID)
			if err != nil {
				return fmt.Errorf("get ticket option: %w", err)
			}
			if option == nil || option.RequestID != req.ID {
				return fmt.Errorf("%w: ticket option %d for request %d", domainwf.ErrNotFound, optionID, req.ID)
			}
			return nil
		},
		apply: func(req *entity.TravelRequest, from, to domainwf.State) entity.Changeset {
			id := optionID
			req.SelectedTicketID = &id
			return entity.SelectTicketChange{TicketOptionID: optionID}
		},
		recipient: s.nextApprover,
	})
}

// CloseRequest archives an approved request
func (s *serviceImpl) CloseRequest(ctx context.Context, requestID int64, actor Actor, comments string) (*entity.TravelRequest, error) {
	return s.transition(ctx, requestID, actor, operation{
		trigger:   domainwf.TriggerClose,
		audit:     entity.AuditActionClose,
		authorize: s.requireOperation(OperationClose),
		comments:  comments,
		eventType: event.TypeRequestClosed,
		apply: func(req *entity.TravelRequest, from, to domainwf.State) entity.Changeset {
			return entity.CloseChange{Comments: comments}
		},
		recipient: requester,
	})
}

// AddTicketOption attaches a candidate itinerary while the request is in ticket stages
func (s *serviceImpl) AddTicketOption(ctx context.Context, option *entity.TicketOption, actor Actor) (*entity.TicketOption, error) {
	if option == nil {
		return nil, fmt.Errorf("%w: ticket option is required", domainwf.ErrInvalidInput)
	}

	unlock := s.locks.Lock(option.RequestID)
	defer unlock()

	req, err := s.getRequest(ctx, option.RequestID)
	if err != nil {
		return nil, err
	}

	if req.Status != domainwf.StateAdminPending && req.Status != domainwf.StateManagerSelection {
		return nil, fmt.Errorf("%w: cannot add ticket options to request %d in %s",
			domainwf.ErrInvalidState, req.ID, req.Status)
	}

	user, err := s.getUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOperation(OperationAddTicketOption)(ctx, user, req); err != nil {
		return nil, err
	}

	now := s.now()
	stored := *option
	stored.ID = 0
	stored.AddedByAdminID = actor.UserID
	stored.AddedDate = now
	if err := stored.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domainwf.ErrInvalidInput, err)
	}

	err = s.store.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.store.TicketOptions.Create(txCtx, &stored); err != nil {
			return fmt.Errorf("create ticket option: %w", err)
		}

		before := req.Snapshot()
		after := req.Snapshot()
		after.TicketOptionID = &stored.ID
		log, err := auditEntry(req.ID, actor, entity.AuditActionAddTicketOption, before, after, now)
		if err != nil {
			return err
		}
		if err := s.store.AuditLogs.Create(txCtx, log); err != nil {
			return fmt.Errorf("create audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to add ticket option", "request_id", req.ID, "error", err)
		return nil, err
	}

	s.logger.Info("Ticket option added", "request_id", req.ID, "option_id", stored.ID, "admin_id", actor.UserID)
	s.publish(ctx, event.NewEvent(event.TypeTicketOptionAdded, req.ID, actor.UserID).
		WithPayload("ticket_option_id", stored.ID), req)

	return &stored, nil
}

// operation describes how one trigger mutates a request
type operation struct {
	trigger     domainwf.Trigger
	audit       entity.AuditAction
	authorize   func(ctx context.Context, user *entity.User, req *entity.TravelRequest) error
	prepare     func(ctx context.Context, req *entity.TravelRequest) error
	apply       func(req *entity.TravelRequest, from, to domainwf.State) entity.Changeset
	comments    string
	decision    entity.ApprovalAction
	ticketID    *int64
	withDetails bool
	eventType   event.Type
	eventFor    func(to domainwf.State) event.Type
	recipient   func(req *entity.TravelRequest, to domainwf.State) (int64, bool)
}

// transition runs the shared read, check, write, publish sequence.
// Checks run in order: existence, transition edge, actor, permission.
func (s *serviceImpl) transition(ctx context.Context, requestID int64, actor Actor, op operation) (*entity.TravelRequest, error) {
	unlock := s.locks.Lock(requestID)
	defer unlock()

	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	from := req.Status
	if from.IsTerminal() {
		return nil, fmt.Errorf("%w: request %d is %s", domainwf.ErrInvalidState, requestID, from)
	}
	machine := BuildTravelStateMachine(from)
	if err := machine.Fire(WithRequest(ctx, req), op.trigger); err != nil {
		return nil, fmt.Errorf("%s request %d in %s: %w", op.trigger, requestID, from, err)
	}
	to := machine.State()

	user, err := s.getUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := op.authorize(ctx, user, req); err != nil {
		return nil, err
	}

	if op.prepare != nil {
		if err := op.prepare(ctx, req); err != nil {
			return nil, err
		}
	}

	now := s.now()
	updated := req.Clone()
	updated.Status = to
	updated.Record(now, actor.UserID, op.apply(updated, from, to))

	before := req.Snapshot()
	after := updated.Snapshot()
	if op.withDetails {
		before.TravelDetails = &req.TravelDetails
		after.TravelDetails = &updated.TravelDetails
	}
	log, err := auditEntry(requestID, actor, op.audit, before, after, now)
	if err != nil {
		return nil, err
	}

	err = s.store.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.store.Requests.Update(txCtx, updated, req.Revision); err != nil {
			return fmt.Errorf("update request: %w", err)
		}

		if op.decision != "" {
			approval := &entity.Approval{
				RequestID:      requestID,
				ApproverID:     actor.UserID,
				Action:         op.decision,
				Comments:       op.comments,
				TicketOptionID: op.ticketID,
				DecisionDate:   now,
			}
			if err := s.store.Approvals.Create(txCtx, approval); err != nil {
				return fmt.Errorf("create approval: %w", err)
			}
		}

		if err := s.store.AuditLogs.Create(txCtx, log); err != nil {
			return fmt.Errorf("create audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Workflow transition failed",
			"request_id", requestID,
			"trigger", op.trigger,
			"from", from,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Workflow transition applied",
		"request_id", requestID,
		"trigger", op.trigger,
		"from", from,
		"to", to,
		"actor_id", actor.UserID,
	)

	eventType := op.eventType
	if op.eventFor != nil {
		eventType = op.eventFor(to)
	}
	evt := event.NewEvent(eventType, requestID, actor.UserID)
	evt.From, evt.To, evt.Comments = from, to, op.comments
	if op.recipient != nil {
		if id, ok := op.recipient(updated, to); ok {
			evt.RecipientID = id
		} else {
			s.logger.Info("No recipient bound for notification", "request_id", requestID, "status", to)
		}
	}
	if op.ticketID != nil {
		evt = evt.WithPayload("ticket_option_id", *op.ticketID)
	}
	s.publish(ctx, evt, updated)

	return updated, nil
}

// publish hands a committed event to the dispatcher without waiting
func (s *serviceImpl) publish(ctx context.Context, evt *event.Event, req *entity.TravelRequest) {
	if s.dispatcher == nil {
		return
	}
	evt.RequesterID = req.RequesterID
	s.dispatcher.DispatchAsync(ctx, evt)
}

func (s *serviceImpl) requireRequester(ctx context.Context, user *entity.User, req *entity.TravelRequest) error {
	if req.RequesterID != user.ID {
		return fmt.Errorf("%w: user %d is not the requester of request %d", domainwf.ErrUnauthorized, user.ID, req.ID)
	}
	return nil
}

func (s *serviceImpl) requireReviewer(ctx context.Context, user *entity.User, req *entity.TravelRequest) error {
	if !s.resolver.CanAct(user, req) {
		return fmt.Errorf("%w: user %d (%s) cannot act on request %d in %s",
			domainwf.ErrUnauthorized, user.ID, user.Role, req.ID, req.Status)
	}
	return nil
}

func (s *serviceImpl) requireOperation(operation string) func(context.Context, *entity.User, *entity.TravelRequest) error {
	return func(ctx context.Context, user *entity.User, req *entity.TravelRequest) error {
		allowed, err := s.policy.Allowed(user.Role, operation)
		if err != nil {
			return fmt.Errorf("evaluate %s policy: %w", operation, err)
		}
		if !allowed {
			return fmt.Errorf("%w: role %s may not %s", domainwf.ErrUnauthorized, user.Role, operation)
		}
		return nil
	}
}

func (s *serviceImpl) nextApprover(req *entity.TravelRequest, _ domainwf.State) (int64, bool) {
	return s.resolver.NextApprover(req)
}

func requester(req *entity.TravelRequest, _ domainwf.State) (int64, bool) {
	return req.RequesterID, true
}

func (s *serviceImpl) getRequest(ctx context.Context, id int64) (*entity.TravelRequest, error) {
	req, err := s.store.Requests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get request %d: %w", id, err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request %d", domainwf.ErrNotFound, id)
	}
	return req, nil
}

func (s *serviceImpl) getUser(ctx context.Context, id int64) (*entity.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", domainwf.ErrNotFound, id)
	}
	return user, nil
}

// adminOnlyPolicy allows administrative operations to admins only
type adminOnlyPolicy struct{}

func (adminOnlyPolicy) Allowed(role entity.Role, _ string) (bool, error) {
	return role == entity.RoleAdmin, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
