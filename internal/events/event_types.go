package events

import (
	"time"

	"github.com/finalapps/orbit/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventInquiryIngested  EventType = "inquiry_ingested"
	EventInquiryAssigned  EventType = "inquiry_assigned"
	EventInquiryReplied   EventType = "inquiry_replied"
	EventInquiryEscalated EventType = "inquiry_escalated"
	EventInquiryMissed    EventType = "inquiry_missed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	InquiryID  string      `json:"inquiry_id"`
	OperatorID *string     `json:"operator_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// InquiryIngestedPayload payload.
type InquiryIngestedPayload struct {
	Title          string                 `json:"title"`
	Category       string                 `json:"category"`
	Priority       domain.InquiryPriority `json:"priority"`
	RelevanceScore int                    `json:"relevance_score"`
}

// InquiryAssignedPayload payload.
type InquiryAssignedPayload struct {
	OperatorID string    `json:"operator_id"`
	DeadlineAt time.Time `json:"deadline_at"`
	Reassigned bool      `json:"reassigned"`
}

// InquiryRepliedPayload payload.
type InquiryRepliedPayload struct {
	ReplyID    string `json:"reply_id"`
	TotalScore int    `json:"total_score"`
}

// InquiryEscalatedPayload payload.
type InquiryEscalatedPayload struct {
	EscalationCount int     `json:"escalation_count"`
	FromOperatorID  *string `json:"from_operator_id,omitempty"`
}

// InquiryMissedPayload payload.
type InquiryMissedPayload struct {
	EscalationCount int `json:"escalation_count"`
}
