package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finalapps/orbit/internal/config"
	"github.com/finalapps/orbit/internal/domain"
	"github.com/finalapps/orbit/internal/events"
	"github.com/finalapps/orbit/internal/ingestion"
	"github.com/finalapps/orbit/internal/repository"
	apperrors "github.com/finalapps/orbit/pkg/util"
)

// IngestionService is the front door of the pipeline: it filters raw
// candidates for relevance, deduplicates on external reference, persists
// admitted inquiries and hands them straight to the balancer.
type IngestionService struct {
	inquiries  repository.InquiryRepository
	activity   repository.ActivityRepository
	assignment *AssignmentService
	dispatcher events.Dispatcher
	cfg        config.PipelineConfig
	validate   *validator.Validate
	logger     *zap.Logger
}

// IngestionDependencies bundles collaborators.
type IngestionDependencies struct {
	InquiryRepo  repository.InquiryRepository
	ActivityRepo repository.ActivityRepository
	Assignment   *AssignmentService
	Dispatcher   events.Dispatcher
	Pipeline     config.PipelineConfig
	Logger       *zap.Logger
}

// NewIngestionService creates the service.
func NewIngestionService(deps IngestionDependencies) *IngestionService {
	return &IngestionService{
		inquiries:  deps.InquiryRepo,
		activity:   deps.ActivityRepo,
		assignment: deps.Assignment,
		dispatcher: deps.Dispatcher,
		cfg:        deps.Pipeline,
		validate:   validator.New(),
		logger:     deps.Logger,
	}
}

// IngestOutcome names what happened to one candidate.
type IngestOutcome string

const (
	OutcomeAdmitted  IngestOutcome = "admitted"
	OutcomeRejected  IngestOutcome = "rejected"
	OutcomeDuplicate IngestOutcome = "duplicate"
	OutcomeFailed    IngestOutcome = "failed"
)

// IngestResult reports the fate of a single candidate.
type IngestResult struct {
	Outcome        IngestOutcome   `json:"outcome"`
	RelevanceScore int             `json:"relevance_score"`
	Inquiry        *domain.Inquiry `json:"inquiry,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// BatchReport aggregates the results of one batch.
type BatchReport struct {
	Admitted   int            `json:"admitted"`
	Rejected   int            `json:"rejected"`
	Duplicates int            `json:"duplicates"`
	Failed     int            `json:"failed"`
	Results    []IngestResult `json:"results"`
}

// Ingest deduplicates one candidate on its external reference, scores the
// survivors and, if the score clears the admission threshold, persists and
// assigns the inquiry. Rejection and duplication are normal outcomes, not
// errors.
func (s *IngestionService) Ingest(ctx context.Context, candidate domain.Candidate, now time.Time) (*IngestResult, error) {
	if err := s.validate.Struct(candidate); err != nil {
		return nil, apperrors.NewValidationError("invalid candidate", map[string]any{"reason": err.Error()})
	}

	// dedup runs before the relevance filter: a known external ref is a
	// duplicate regardless of what its text would score. A store failure
	// here must surface loudly rather than let a duplicate slip in as new.
	exists, err := s.inquiries.ExistsByExternalRef(ctx, candidate.ExternalRef)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if exists {
		return &IngestResult{Outcome: OutcomeDuplicate}, nil
	}

	score := ingestion.Score(candidate)
	if !ingestion.Admit(score, s.cfg.AdmitThreshold) {
		return &IngestResult{Outcome: OutcomeRejected, RelevanceScore: score}, nil
	}

	inquiry := &domain.Inquiry{
		ExternalRef:      candidate.ExternalRef,
		Title:            candidate.Title,
		Content:          candidate.Body,
		Category:         ingestion.Categorize(candidate.Title),
		Priority:         ingestion.Prioritize(candidate),
		Status:           domain.InquiryStatusUnassigned,
		BandwidthMinutes: s.cfg.DefaultBandwidthMinutes,
		RelevanceScore:   score,
	}
	if err := s.inquiries.Create(ctx, inquiry); err != nil {
		if errors.Is(err, repository.ErrDuplicateExternalRef) {
			// lost the insert race to a concurrent ingest of the same ref
			return &IngestResult{Outcome: OutcomeDuplicate, RelevanceScore: score}, nil
		}
		return nil, apperrors.MapError(err)
	}

	_ = s.activity.Create(ctx, &domain.ActivityRecord{
		InquiryID:   inquiry.ID,
		Type:        domain.ActivityIngested,
		Description: fmt.Sprintf("admitted with relevance %d as %s/%s", score, inquiry.Category, inquiry.Priority),
	})
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventInquiryIngested,
			InquiryID: inquiry.ID,
			Timestamp: time.Now(),
			Payload: events.InquiryIngestedPayload{
				Title:          inquiry.Title,
				Category:       inquiry.Category,
				Priority:       inquiry.Priority,
				RelevanceScore: score,
			},
		})
	}

	assigned, err := s.assignment.AssignInquiry(ctx, inquiry.ID,
		[]domain.InquiryStatus{domain.InquiryStatusUnassigned},
		now, inquiry.BandwidthMinutes, false)
	switch {
	case err == nil:
		inquiry = assigned
	case apperrors.IsCode(err, "NO_ELIGIBLE_OPERATOR"):
		// stays unassigned, the sweep will pick it up once operators return
		s.logger.Info("ingested without assignment, operator pool empty",
			zap.String("inquiry_id", inquiry.ID))
	default:
		s.logger.Warn("assignment after ingest failed",
			zap.String("inquiry_id", inquiry.ID),
			zap.Error(err))
	}

	return &IngestResult{Outcome: OutcomeAdmitted, RelevanceScore: score, Inquiry: inquiry}, nil
}

// IngestBatch processes candidates independently: one bad candidate never
// poisons the rest of the batch.
func (s *IngestionService) IngestBatch(ctx context.Context, candidates []domain.Candidate, now time.Time) *BatchReport {
	report := &BatchReport{Results: make([]IngestResult, 0, len(candidates))}
	for i := range candidates {
		result, err := s.Ingest(ctx, candidates[i], now)
		if err != nil {
			report.Failed++
			report.Results = append(report.Results, IngestResult{Outcome: OutcomeFailed, Error: err.Error()})
			continue
		}
		switch result.Outcome {
		case OutcomeAdmitted:
			report.Admitted++
		case OutcomeRejected:
			report.Rejected++
		case OutcomeDuplicate:
			report.Duplicates++
		}
		report.Results = append(report.Results, *result)
	}
	return report
}
