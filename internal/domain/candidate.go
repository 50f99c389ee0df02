package domain

// Candidate is a raw item supplied by the external content source before
// dedup and relevance filtering.
type Candidate struct {
	Title       string `json:"title" validate:"required"`
	Body        string `json:"body"`
	ExternalRef string `json:"external_ref" validate:"required,max=2048"`
	Views       int    `json:"views" validate:"min=0"`
	Replies     int    `json:"replies" validate:"min=0"`
	Likes       int    `json:"likes" validate:"min=0"`
}
