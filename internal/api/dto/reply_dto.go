package dto

import "time"

// SubmitReplyRequest payload.
type SubmitReplyRequest struct {
	Body    string `json:"body"`
	Outcome *int   `json:"outcome,omitempty"`
}

// ReviseOutcomeRequest payload.
type ReviseOutcomeRequest struct {
	Outcome int `json:"outcome"`
}

// ReplyResponse represents a scored reply.
type ReplyResponse struct {
	ID               string    `json:"id"`
	InquiryID        string    `json:"inquiry_id"`
	OperatorID       string    `json:"operator_id"`
	Body             string    `json:"body"`
	ScoreSpeed       int       `json:"score_speed"`
	ScoreQuality     int       `json:"score_quality"`
	ScoreOutcome     int       `json:"score_outcome"`
	TotalScore       int       `json:"total_score"`
	ReplyTimeMinutes int       `json:"reply_time_minutes"`
	RepliedAt        time.Time `json:"replied_at"`
	CreatedAt        time.Time `json:"created_at"`
}
