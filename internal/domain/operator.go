package domain

import "time"

// Operator models a human answering inquiries. The aggregate counters are a
// rebuildable cache over the operator's reply history, not a source of truth.
type Operator struct {
	ID             string
	Name           string
	Email          string
	Active         bool
	TotalReplied   int
	TotalMissed    int
	TotalScore     int
	AvgReplyTime   int
	LastAssignedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
