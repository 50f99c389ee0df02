package domain

import "time"

// InquiryStatus enumerates lifecycle states for inquiries.
type InquiryStatus string

const (
	InquiryStatusUnassigned InquiryStatus = "unassigned"
	InquiryStatusAssigned   InquiryStatus = "assigned"
	InquiryStatusReplied    InquiryStatus = "replied"
	InquiryStatusEscalated  InquiryStatus = "escalated"
	InquiryStatusMissed     InquiryStatus = "missed"
)

// InquiryPriority enumerates urgency derived from engagement metrics.
type InquiryPriority string

const (
	InquiryPriorityLow    InquiryPriority = "low"
	InquiryPriorityNormal InquiryPriority = "normal"
	InquiryPriorityHigh   InquiryPriority = "high"
	InquiryPriorityUrgent InquiryPriority = "urgent"
)

// Inquiry is the aggregate for ingested questions. The deadline is always
// AssignedAt + BandwidthMinutes and is recomputed on every (re)assignment.
type Inquiry struct {
	ID               string
	ExternalRef      string
	Title            string
	Content          string
	Category         string
	Priority         InquiryPriority
	Status           InquiryStatus
	AssignedTo       *string
	BandwidthMinutes int
	AssignedAt       *time.Time
	DeadlineAt       *time.Time
	EscalationCount  int
	RelevanceScore   int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Overdue reports whether the inquiry is assigned and past its deadline.
func (i *Inquiry) Overdue(now time.Time) bool {
	return i.Status == InquiryStatusAssigned && i.DeadlineAt != nil && now.After(*i.DeadlineAt)
}
