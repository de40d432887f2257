package workflow

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/wI2L/jsondiff"
)

// auditEntry builds the compliance record for one operation.
// Diff is the JSON patch that turns before into after.
func auditEntry(
	requestID int64,
	actor Actor,
	action entity.AuditAction,
	before, after entity.StateSnapshot,
	at time.Time,
) (*entity.AuditLog, error) {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return nil, fmt.Errorf("marshal before state: %w", err)
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return nil, fmt.Errorf("marshal after state: %w", err)
	}

	patch, err := jsondiff.CompareJSON(beforeJSON, afterJSON)
	if err != nil {
		return nil, fmt.Errorf("diff audit states: %w", err)
	}

	var diff json.RawMessage
	if len(patch) > 0 {
		if diff, err = json.Marshal(patch); err != nil {
			return nil, fmt.Errorf("marshal audit diff: %w", err)
		}
	}

	return &entity.AuditLog{
		RequestID:   requestID,
		UserID:      actor.UserID,
		ActionType:  action,
		BeforeState: before,
		AfterState:  after,
		Diff:        diff,
		IPAddress:   actor.IPAddress,
		Timestamp:   at,
	}, nil
}

// changedFields lists the top-level travel detail fields that differ
func changedFields(before, after entity.TravelDetails) []string {
	var fields []string
	if before.Source != after.Source {
		fields = append(fields, "source")
	}
	if before.Destination != after.Destination {
		fields = append(fields, "destination")
	}
	if !before.StartDate.Equal(after.StartDate) {
		fields = append(fields, "start_date")
	}
	if !before.EndDate.Equal(after.EndDate) {
		fields = append(fields, "end_date")
	}
	if before.Purpose != after.Purpose {
		fields = append(fields, "purpose")
	}
	if before.ProjectCode != after.ProjectCode {
		fields = append(fields, "project_code")
	}
	if !costEqual(before, after) {
		fields = append(fields, "estimated_cost")
	}
	if before.AdditionalNotes != after.AdditionalNotes {
		fields = append(fields, "additional_notes")
	}
	return fields
}

func costEqual(a, b entity.TravelDetails) bool {
	if a.EstimatedCost == nil || b.EstimatedCost == nil {
		return a.EstimatedCost == nil && b.EstimatedCost == nil
	}
	return a.EstimatedCost.Equal(*b.EstimatedCost)
}
