package domain

import "time"

// ActivityType captures what happened in a trail entry.
type ActivityType string

const (
	ActivityIngested   ActivityType = "ingested"
	ActivityAssigned   ActivityType = "assigned"
	ActivityReassigned ActivityType = "reassigned"
	ActivityReplied    ActivityType = "replied"
	ActivityEscalated  ActivityType = "escalated"
	ActivityMissed     ActivityType = "missed"
)

// ActivityRecord is an append-only audit entry for a lifecycle transition.
// It is written for observability and never consulted for decisions.
type ActivityRecord struct {
	ID          string
	InquiryID   string
	OperatorID  *string
	Type        ActivityType
	Description string
	CreatedAt   time.Time
}
