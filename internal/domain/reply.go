package domain

import "time"

// Reply is an operator's answer to an inquiry. Sub-scores are persisted
// individually; the total is their sum at submission time.
type Reply struct {
	ID               string
	InquiryID        string
	OperatorID       string
	Body             string
	ScoreSpeed       int
	ScoreQuality     int
	ScoreOutcome     int
	TotalScore       int
	ReplyTimeMinutes int
	RepliedAt        time.Time
	CreatedAt        time.Time
}
