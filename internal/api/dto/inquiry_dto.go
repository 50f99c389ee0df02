package dto

import (
	"time"

	"github.com/finalapps/orbit/internal/domain"
)

// InquirySummary response.
type InquirySummary struct {
	ID               string                 `json:"id"`
	ExternalRef      string                 `json:"external_ref"`
	Title            string                 `json:"title"`
	Category         string                 `json:"category"`
	Priority         domain.InquiryPriority `json:"priority"`
	Status           domain.InquiryStatus   `json:"status"`
	AssignedTo       *string                `json:"assigned_to"`
	BandwidthMinutes int                    `json:"bandwidth_minutes"`
	AssignedAt       *time.Time             `json:"assigned_at"`
	DeadlineAt       *time.Time             `json:"deadline_at"`
	EscalationCount  int                    `json:"escalation_count"`
	RelevanceScore   int                    `json:"relevance_score"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// InquiryDetailResponse provides full inquiry info.
type InquiryDetailResponse struct {
	InquirySummary
	Content  string             `json:"content"`
	Replies  []ReplyResponse    `json:"replies"`
	Activity []ActivityResponse `json:"activity"`
}

// AssignRequest payload for manual assignment.
type AssignRequest struct {
	OperatorID string `json:"operator_id"`
}

// ActivityResponse represents one trail entry.
type ActivityResponse struct {
	ID          string              `json:"id"`
	InquiryID   string              `json:"inquiry_id"`
	OperatorID  *string             `json:"operator_id"`
	Type        domain.ActivityType `json:"type"`
	Description string              `json:"description"`
	CreatedAt   time.Time           `json:"created_at"`
}

// StatsResponse aggregates pipeline counts.
type StatsResponse struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
	ByCategory map[string]int `json:"by_category"`
}
