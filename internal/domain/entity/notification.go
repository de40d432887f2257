package entity

import "time"

// NotificationType classifies an in-app notification
type NotificationType string

const (
	NotificationTypeStateChange   NotificationType = "state_change"
	NotificationTypeSLABreach     NotificationType = "sla_breach"
	NotificationTypeBudgetOverrun NotificationType = "budget_overrun"
	NotificationTypeGeneral       NotificationType = "general"
)

// Notification is a message addressed to one user, stored for the in-app inbox
type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
	RequestID *int64           `json:"request_id,omitempty"`
	Type      NotificationType `json:"type"`
}
