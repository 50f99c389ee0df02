package dto

import "time"

// CreateOperatorRequest payload.
type CreateOperatorRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active *bool  `json:"active,omitempty"`
}

// UpdateOperatorRequest payload.
type UpdateOperatorRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active *bool  `json:"active,omitempty"`
}

// OperatorResponse represents an operator with aggregates.
type OperatorResponse struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Active         bool       `json:"active"`
	TotalReplied   int        `json:"total_replied"`
	TotalMissed    int        `json:"total_missed"`
	TotalScore     int        `json:"total_score"`
	AvgReplyTime   int        `json:"avg_reply_time"`
	LastAssignedAt *time.Time `json:"last_assigned_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// OperatorWorkloadResponse pairs an operator with open assignments.
type OperatorWorkloadResponse struct {
	OperatorResponse
	OpenLoad int `json:"open_load"`
}
