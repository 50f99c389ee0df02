package dto

// CandidateRequest is one raw inquiry candidate.
type CandidateRequest struct {
	ExternalRef string `json:"external_ref"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Views       int    `json:"views"`
	Replies     int    `json:"replies"`
	Likes       int    `json:"likes"`
}

// IngestBatchRequest payload.
type IngestBatchRequest struct {
	Candidates []CandidateRequest `json:"candidates"`
}

// IngestResultResponse reports the fate of one candidate.
type IngestResultResponse struct {
	Outcome        string          `json:"outcome"`
	RelevanceScore int             `json:"relevance_score"`
	Inquiry        *InquirySummary `json:"inquiry,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// IngestBatchResponse summarizes a batch.
type IngestBatchResponse struct {
	Admitted   int                    `json:"admitted"`
	Rejected   int                    `json:"rejected"`
	Duplicates int                    `json:"duplicates"`
	Failed     int                    `json:"failed"`
	Results    []IngestResultResponse `json:"results"`
}
