package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finalapps/orbit/internal/config"
	"github.com/finalapps/orbit/internal/domain"
	"github.com/finalapps/orbit/internal/events"
	"github.com/finalapps/orbit/internal/repository"
	apperrors "github.com/finalapps/orbit/pkg/util"
)

// LifecycleService drives deadline escalation. It runs as a periodic sweep:
// overdue assigned inquiries are escalated away from their operator, bounced
// back to the balancer, and retired to missed once they exceed the
// escalation ceiling.
type LifecycleService struct {
	inquiries  repository.InquiryRepository
	operators  repository.OperatorRepository
	activity   repository.ActivityRepository
	assignment *AssignmentService
	dispatcher events.Dispatcher
	cfg        config.PipelineConfig
	logger     *zap.Logger
}

// LifecycleDependencies bundles collaborators.
type LifecycleDependencies struct {
	InquiryRepo  repository.InquiryRepository
	OperatorRepo repository.OperatorRepository
	ActivityRepo repository.ActivityRepository
	Assignment   *AssignmentService
	Dispatcher   events.Dispatcher
	Pipeline     config.PipelineConfig
	Logger       *zap.Logger
}

// NewLifecycleService creates the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		inquiries:  deps.InquiryRepo,
		operators:  deps.OperatorRepo,
		activity:   deps.ActivityRepo,
		assignment: deps.Assignment,
		dispatcher: deps.Dispatcher,
		cfg:        deps.Pipeline,
		logger:     deps.Logger,
	}
}

// SweepReport summarizes one sweep pass.
type SweepReport struct {
	Scanned    int `json:"scanned"`
	Escalated  int `json:"escalated"`
	Reassigned int `json:"reassigned"`
	Missed     int `json:"missed"`
	Retried    int `json:"retried"`
	Failed     int `json:"failed"`
}

// SweepDeadlines escalates every assigned inquiry whose deadline has passed,
// then retries the unassigned/escalated backlog against the operator pool.
// Each inquiry is handled independently; one failure never aborts the sweep.
func (s *LifecycleService) SweepDeadlines(ctx context.Context, now time.Time) (*SweepReport, error) {
	report := &SweepReport{}

	overdue, err := s.inquiries.ListOverdue(ctx, now, s.cfg.SweepBatchSize)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	report.Scanned = len(overdue)

	for i := range overdue {
		if err := s.escalateOne(ctx, &overdue[i], now, report); err != nil {
			report.Failed++
			s.logger.Warn("escalation failed",
				zap.String("inquiry_id", overdue[i].ID),
				zap.Error(err))
		}
	}

	retryable, err := s.inquiries.ListRetryable(ctx, s.cfg.SweepBatchSize)
	if err != nil {
		return report, apperrors.MapError(err)
	}
	for i := range retryable {
		inq := &retryable[i]
		_, err := s.assignment.AssignInquiry(ctx, inq.ID,
			[]domain.InquiryStatus{domain.InquiryStatusUnassigned, domain.InquiryStatusEscalated},
			now, inq.BandwidthMinutes, inq.Status == domain.InquiryStatusEscalated)
		switch {
		case err == nil:
			report.Retried++
		case apperrors.IsCode(err, "NO_ELIGIBLE_OPERATOR"):
			// pool still empty, the backlog waits for the next sweep
			return report, nil
		case apperrors.IsCode(err, "CONTENTION"):
			// someone replied or reassigned between list and claim
		default:
			report.Failed++
			s.logger.Warn("backlog retry failed",
				zap.String("inquiry_id", inq.ID),
				zap.Error(err))
		}
	}

	return report, nil
}

func (s *LifecycleService) escalateOne(ctx context.Context, inquiry *domain.Inquiry, now time.Time, report *SweepReport) error {
	fromOperator := inquiry.AssignedTo

	escalated, err := s.inquiries.Escalate(ctx, inquiry.ID, now)
	if err != nil {
		if errors.Is(err, repository.ErrTransitionConflict) {
			// a reply or concurrent sweep won the race, nothing to do
			return nil
		}
		return err
	}
	report.Escalated++

	_ = s.activity.Create(ctx, &domain.ActivityRecord{
		InquiryID:   escalated.ID,
		OperatorID:  fromOperator,
		Type:        domain.ActivityEscalated,
		Description: fmt.Sprintf("deadline missed, escalation %d", escalated.EscalationCount),
	})
	s.publish(ctx, events.EventInquiryEscalated, escalated.ID, fromOperator, events.InquiryEscalatedPayload{
		EscalationCount: escalated.EscalationCount,
		FromOperatorID:  fromOperator,
	})

	if escalated.EscalationCount >= s.cfg.EscalationCeiling {
		missed, err := s.inquiries.MarkMissed(ctx, escalated.ID)
		if err != nil {
			if errors.Is(err, repository.ErrTransitionConflict) {
				return nil
			}
			return err
		}
		report.Missed++
		if fromOperator != nil {
			if err := s.operators.IncrementMissed(ctx, *fromOperator); err != nil {
				s.logger.Warn("missed counter update failed",
					zap.String("operator_id", *fromOperator),
					zap.Error(err))
			}
		}
		_ = s.activity.Create(ctx, &domain.ActivityRecord{
			InquiryID:   missed.ID,
			OperatorID:  fromOperator,
			Type:        domain.ActivityMissed,
			Description: fmt.Sprintf("retired after %d escalations", missed.EscalationCount),
		})
		s.publish(ctx, events.EventInquiryMissed, missed.ID, fromOperator, events.InquiryMissedPayload{
			EscalationCount: missed.EscalationCount,
		})
		return nil
	}

	_, err = s.assignment.AssignInquiry(ctx, escalated.ID,
		[]domain.InquiryStatus{domain.InquiryStatusEscalated},
		now, escalated.BandwidthMinutes, true)
	switch {
	case err == nil:
		report.Reassigned++
	case apperrors.IsCode(err, "NO_ELIGIBLE_OPERATOR"):
		// stays escalated, retried on a later sweep
	case apperrors.IsCode(err, "CONTENTION"):
		// concurrent transition, already handled elsewhere
	default:
		return err
	}
	return nil
}

func (s *LifecycleService) publish(ctx context.Context, eventType events.EventType, inquiryID string, operatorID *string, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		InquiryID:  inquiryID,
		OperatorID: operatorID,
		Timestamp:  time.Now(),
		Payload:    payload,
	})
}
