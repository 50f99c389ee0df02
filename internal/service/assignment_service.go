package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/finalapps/orbit/internal/domain"
	"github.com/finalapps/orbit/internal/events"
	"github.com/finalapps/orbit/internal/repository"
	apperrors "github.com/finalapps/orbit/pkg/util"
)

// AssignmentService is the workload balancer: it hands each new or
// re-escalated inquiry to the least-recently-assigned active operator.
type AssignmentService struct {
	inquiries  repository.InquiryRepository
	operators  repository.OperatorRepository
	activity   repository.ActivityRepository
	dispatcher events.Dispatcher
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	InquiryRepo  repository.InquiryRepository
	OperatorRepo repository.OperatorRepository
	ActivityRepo repository.ActivityRepository
	Dispatcher   events.Dispatcher
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		inquiries:  deps.InquiryRepo,
		operators:  deps.OperatorRepo,
		activity:   deps.ActivityRepo,
		dispatcher: deps.Dispatcher,
	}
}

// SelectNextOperator picks the operator whose last assignment is oldest,
// never-assigned operators first, ties broken by id for determinism. The
// persisted claim mirrors this ordering in SQL; the function exists so the
// policy has one testable definition.
func SelectNextOperator(operators []domain.Operator) (*domain.Operator, bool) {
	var best *domain.Operator
	for i := range operators {
		op := &operators[i]
		if !op.Active {
			continue
		}
		if best == nil || staleOrder(op, best) {
			best = op
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

func staleOrder(a, b *domain.Operator) bool {
	switch {
	case a.LastAssignedAt == nil && b.LastAssignedAt != nil:
		return true
	case a.LastAssignedAt != nil && b.LastAssignedAt == nil:
		return false
	case a.LastAssignedAt == nil && b.LastAssignedAt == nil:
		return a.ID < b.ID
	case a.LastAssignedAt.Equal(*b.LastAssignedAt):
		return a.ID < b.ID
	default:
		return a.LastAssignedAt.Before(*b.LastAssignedAt)
	}
}

// AssignInquiry claims the next eligible operator and moves the inquiry to
// assigned with a fresh deadline. An empty operator pool is an exhaustion
// signal, not a failure: the inquiry stays where it is and the next sweep
// retries it.
func (s *AssignmentService) AssignInquiry(ctx context.Context, inquiryID string, from []domain.InquiryStatus, now time.Time, bandwidthMinutes int, reassigned bool) (*domain.Inquiry, error) {
	operator, err := s.operators.ClaimNextAssignee(ctx, now)
	if err != nil {
		if errors.Is(err, repository.ErrNoEligibleOperator) {
			return nil, apperrors.NewExhausted("no active operator available")
		}
		return nil, apperrors.MapError(err)
	}

	inquiry, err := s.inquiries.Assign(ctx, inquiryID, operator.ID, from, now, bandwidthMinutes)
	if err != nil {
		if errors.Is(err, repository.ErrTransitionConflict) {
			return nil, apperrors.NewContention("inquiry no longer assignable", map[string]any{"inquiry_id": inquiryID})
		}
		return nil, apperrors.MapError(err)
	}

	s.recordAssignment(ctx, inquiry, operator.ID, reassigned)
	return inquiry, nil
}

// ReassignToOperator assigns a specific operator, resetting assigned_at and
// the deadline. Used by administrators; assigned-to-assigned is permitted.
func (s *AssignmentService) ReassignToOperator(ctx context.Context, inquiryID, operatorID string, now time.Time) (*domain.Inquiry, error) {
	operator, err := s.operators.GetByID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("operator", map[string]any{"operator_id": operatorID})
		}
		return nil, apperrors.MapError(err)
	}
	if !operator.Active {
		return nil, apperrors.NewConflict("operator inactive", map[string]any{"operator_id": operatorID})
	}

	current, err := s.inquiries.GetByID(ctx, inquiryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("inquiry", map[string]any{"inquiry_id": inquiryID})
		}
		return nil, apperrors.MapError(err)
	}

	from := []domain.InquiryStatus{
		domain.InquiryStatusUnassigned,
		domain.InquiryStatusAssigned,
		domain.InquiryStatusEscalated,
	}
	inquiry, err := s.inquiries.Assign(ctx, inquiryID, operatorID, from, now, current.BandwidthMinutes)
	if err != nil {
		if errors.Is(err, repository.ErrTransitionConflict) {
			return nil, apperrors.NewConflict("inquiry not assignable in current status", map[string]any{
				"inquiry_id": inquiryID,
				"status":     current.Status,
			})
		}
		return nil, apperrors.MapError(err)
	}

	s.recordAssignment(ctx, inquiry, operatorID, current.AssignedTo != nil)
	return inquiry, nil
}

func (s *AssignmentService) recordAssignment(ctx context.Context, inquiry *domain.Inquiry, operatorID string, reassigned bool) {
	activityType := domain.ActivityAssigned
	if reassigned {
		activityType = domain.ActivityReassigned
	}
	_ = s.activity.Create(ctx, &domain.ActivityRecord{
		InquiryID:   inquiry.ID,
		OperatorID:  &operatorID,
		Type:        activityType,
		Description: fmt.Sprintf("assigned to operator %s, due %s", operatorID, inquiry.DeadlineAt.Format(time.RFC3339)),
	})

	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       events.EventInquiryAssigned,
		InquiryID:  inquiry.ID,
		OperatorID: &operatorID,
		Timestamp:  time.Now(),
		Payload: events.InquiryAssignedPayload{
			OperatorID: operatorID,
			DeadlineAt: *inquiry.DeadlineAt,
			Reassigned: reassigned,
		},
	})
}
