package workflow

import (
	"context"

	"github.com/garyjia/travel-approval/internal/domain/entity"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// BuildTravelStateMachine creates a state machine configured for the travel approval pipeline.
// Guarded edges read the request from the context passed to Fire or Next, see WithRequest.
func BuildTravelStateMachine(initialState domainwf.State) domainwf.StateMachine {
	return travelGraph().Build(initialState)
}

type requestKey struct{}

// WithRequest attaches the request that the machine's guards inspect
func WithRequest(ctx context.Context, req *entity.TravelRequest) context.Context {
	return context.WithValue(ctx, requestKey{}, req)
}

func requestFrom(ctx context.Context) *entity.TravelRequest {
	req, _ := ctx.Value(requestKey{}).(*entity.TravelRequest)
	return req
}

// chainComplete passes when every reviewing role has a bound approver
func chainComplete(ctx context.Context) bool {
	req := requestFrom(ctx)
	return req != nil && req.ApprovalChain.Validate() == nil
}

func ticketSelected(ctx context.Context) bool {
	req := requestFrom(ctx)
	return req != nil && req.SelectedTicketID != nil
}

func travelGraph() domainwf.StateMachineBuilder {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateDraft).
		PermitIf(domainwf.TriggerSubmit, domainwf.StateManagerPending, chainComplete).
		Permit(domainwf.TriggerEdit, domainwf.StateDraft)

	builder.Configure(domainwf.StateManagerPending).
		Permit(domainwf.TriggerApprove, domainwf.StateDUPending).
		Permit(domainwf.TriggerReturn, domainwf.StateDraft)

	builder.Configure(domainwf.StateDUPending).
		Permit(domainwf.TriggerApprove, domainwf.StateAdminPending).
		Permit(domainwf.TriggerReturn, domainwf.StateManagerPending)

	builder.Configure(domainwf.StateAdminPending).
		Permit(domainwf.TriggerApprove, domainwf.StateManagerSelection).
		Permit(domainwf.TriggerReturn, domainwf.StateDUPending)

	// approval at this stage happens only by selecting a ticket
	builder.Configure(domainwf.StateManagerSelection).
		Permit(domainwf.TriggerSelectTicket, domainwf.StateDUFinal).
		Permit(domainwf.TriggerReturn, domainwf.StateAdminPending)

	builder.Configure(domainwf.StateDUFinal).
		PermitIf(domainwf.TriggerApprove, domainwf.StateApproved, ticketSelected).
		Permit(domainwf.TriggerReturn, domainwf.StateManagerSelection)

	for _, s := range domainwf.ReviewStates() {
		builder.Configure(s).Permit(domainwf.TriggerReject, domainwf.StateRejected)
	}

	builder.Configure(domainwf.StateApproved).
		Permit(domainwf.TriggerClose, domainwf.StateClosed)

	// REJECTED and CLOSED are terminal states - no outgoing transitions

	return builder
}
