package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/finalapps/orbit/internal/config"
	"github.com/finalapps/orbit/internal/domain"
	"github.com/finalapps/orbit/internal/events"
	"github.com/finalapps/orbit/internal/repository"
	apperrors "github.com/finalapps/orbit/pkg/util"
)

// ScoringService records operator replies, scores them on speed, quality and
// outcome, and keeps the per-operator aggregates current. Aggregates are a
// cache over the reply history and can always be rebuilt from it.
type ScoringService struct {
	inquiries  repository.InquiryRepository
	operators  repository.OperatorRepository
	replies    repository.ReplyRepository
	activity   repository.ActivityRepository
	dispatcher events.Dispatcher
	cfg        config.ScoringConfig
	logger     *zap.Logger
}

// ScoringDependencies bundles collaborators.
type ScoringDependencies struct {
	InquiryRepo  repository.InquiryRepository
	OperatorRepo repository.OperatorRepository
	ReplyRepo    repository.ReplyRepository
	ActivityRepo repository.ActivityRepository
	Dispatcher   events.Dispatcher
	Scoring      config.ScoringConfig
	Logger       *zap.Logger
}

// NewScoringService creates the service.
func NewScoringService(deps ScoringDependencies) *ScoringService {
	return &ScoringService{
		inquiries:  deps.InquiryRepo,
		operators:  deps.OperatorRepo,
		replies:    deps.ReplyRepo,
		activity:   deps.ActivityRepo,
		dispatcher: deps.Dispatcher,
		cfg:        deps.Scoring,
		logger:     deps.Logger,
	}
}

// ReplyInput is the caller-supplied part of a reply.
type ReplyInput struct {
	InquiryID  string
	OperatorID string
	Body       string
	Outcome    *int
}

// SpeedScore rewards answering early in the bandwidth window: full marks at
// the moment of assignment, decaying linearly to the floor at the deadline.
// Late replies keep the floor so a resolved inquiry never scores zero.
func SpeedScore(cfg config.ScoringConfig, elapsedMinutes, bandwidthMinutes int) int {
	if bandwidthMinutes <= 0 {
		return cfg.SpeedFloor
	}
	if elapsedMinutes < 0 {
		elapsedMinutes = 0
	}
	if elapsedMinutes >= bandwidthMinutes {
		return cfg.SpeedFloor
	}
	span := cfg.SpeedMax - cfg.SpeedFloor
	score := cfg.SpeedMax - (elapsedMinutes*span)/bandwidthMinutes
	if score < cfg.SpeedFloor {
		return cfg.SpeedFloor
	}
	return score
}

// QualityScore is a length-and-substance heuristic over the reply body.
// Bodies shorter than the minimum earn proportionally less; bodies at or
// beyond the minimum earn the full base, with a bonus for structure
// (multiple sentences or paragraphs) up to the cap.
func QualityScore(cfg config.ScoringConfig, body string) int {
	trimmed := strings.TrimSpace(body)
	length := utf8.RuneCountInString(trimmed)
	if length == 0 {
		return 0
	}

	base := (cfg.QualityMax * 2) / 3
	if length < cfg.MinBodyChars {
		return (base * length) / cfg.MinBodyChars
	}

	score := base
	if strings.Count(trimmed, ". ")+strings.Count(trimmed, "\n") >= 2 {
		score += (cfg.QualityMax - base) / 2
	}
	if length >= cfg.MinBodyChars*4 {
		score += cfg.QualityMax - score
	}
	if score > cfg.QualityMax {
		score = cfg.QualityMax
	}
	return score
}

// OutcomeScore clamps a reported outcome into range, defaulting to neutral
// when the caller has no resolution signal yet.
func OutcomeScore(cfg config.ScoringConfig, outcome *int) int {
	if outcome == nil {
		return cfg.OutcomeNeutral
	}
	v := *outcome
	if v < 0 {
		return 0
	}
	if v > cfg.OutcomeMax {
		return cfg.OutcomeMax
	}
	return v
}

// SubmitReply validates and records a reply, transitions the inquiry to
// replied, and folds the reply score into the operator's aggregates. The
// record and the transition commit atomically; the aggregate update is
// applied after and, if it fails, is recovered later by a recompute.
func (s *ScoringService) SubmitReply(ctx context.Context, input ReplyInput, now time.Time) (*domain.Reply, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, apperrors.NewValidationError("reply body is required", nil)
	}
	if utf8.RuneCountInString(body) > s.cfg.MaxBodyChars {
		return nil, apperrors.NewValidationError("reply body too long", map[string]any{"max_chars": s.cfg.MaxBodyChars})
	}

	inquiry, err := s.inquiries.GetByID(ctx, input.InquiryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("inquiry", map[string]any{"inquiry_id": input.InquiryID})
		}
		return nil, apperrors.MapError(err)
	}
	if inquiry.AssignedTo == nil || *inquiry.AssignedTo != input.OperatorID {
		return nil, apperrors.NewForbidden("inquiry is not assigned to this operator")
	}
	if inquiry.AssignedAt == nil {
		return nil, apperrors.NewConflict("inquiry has no assignment timestamp", map[string]any{"inquiry_id": inquiry.ID})
	}

	elapsed := int(now.Sub(*inquiry.AssignedAt).Minutes())
	if elapsed < 0 {
		elapsed = 0
	}

	speed := SpeedScore(s.cfg, elapsed, inquiry.BandwidthMinutes)
	quality := QualityScore(s.cfg, body)
	outcome := OutcomeScore(s.cfg, input.Outcome)

	reply := &domain.Reply{
		InquiryID:        inquiry.ID,
		OperatorID:       input.OperatorID,
		Body:             body,
		ScoreSpeed:       speed,
		ScoreQuality:     quality,
		ScoreOutcome:     outcome,
		TotalScore:       speed + quality + outcome,
		ReplyTimeMinutes: elapsed,
		RepliedAt:        now,
	}

	from := []domain.InquiryStatus{domain.InquiryStatusAssigned, domain.InquiryStatusEscalated}
	if _, err := s.replies.Record(ctx, reply, from); err != nil {
		if errors.Is(err, repository.ErrTransitionConflict) {
			return nil, apperrors.NewContention("inquiry already resolved or retired", map[string]any{
				"inquiry_id": inquiry.ID,
				"status":     inquiry.Status,
			})
		}
		return nil, apperrors.MapError(err)
	}

	if err := s.operators.ApplyReplyAggregates(ctx, input.OperatorID, reply.TotalScore); err != nil {
		// the reply is committed; aggregates are rebuildable, so log and move on
		s.logger.Warn("aggregate update failed",
			zap.String("operator_id", input.OperatorID),
			zap.Error(err))
	}

	_ = s.activity.Create(ctx, &domain.ActivityRecord{
		InquiryID:   inquiry.ID,
		OperatorID:  &input.OperatorID,
		Type:        domain.ActivityReplied,
		Description: fmt.Sprintf("replied in %d min, score %d", elapsed, reply.TotalScore),
	})
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:         uuid.NewString(),
			Type:       events.EventInquiryReplied,
			InquiryID:  inquiry.ID,
			OperatorID: &input.OperatorID,
			Timestamp:  time.Now(),
			Payload: events.InquiryRepliedPayload{
				ReplyID:    reply.ID,
				TotalScore: reply.TotalScore,
			},
		})
	}

	return reply, nil
}

// ReviseOutcome updates a reply's outcome sub-score after the fact, then
// rebuilds the operator's aggregates so the cached totals match the history.
func (s *ScoringService) ReviseOutcome(ctx context.Context, replyID string, outcome int) (*domain.Reply, error) {
	if outcome < 0 || outcome > s.cfg.OutcomeMax {
		return nil, apperrors.NewValidationError("outcome out of range", map[string]any{
			"min": 0,
			"max": s.cfg.OutcomeMax,
		})
	}

	reply, err := s.replies.UpdateOutcome(ctx, replyID, outcome)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("reply", map[string]any{"reply_id": replyID})
		}
		return nil, apperrors.MapError(err)
	}

	if _, err := s.operators.RecomputeAggregates(ctx, reply.OperatorID); err != nil {
		s.logger.Warn("aggregate recompute failed",
			zap.String("operator_id", reply.OperatorID),
			zap.Error(err))
	}
	return reply, nil
}

// RecomputeOperator rebuilds one operator's cached aggregates from the full
// reply history.
func (s *ScoringService) RecomputeOperator(ctx context.Context, operatorID string) (*domain.Operator, error) {
	operator, err := s.operators.RecomputeAggregates(ctx, operatorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("operator", map[string]any{"operator_id": operatorID})
		}
		return nil, apperrors.MapError(err)
	}
	return operator, nil
}

// RepliesForInquiry lists a single inquiry's reply history.
func (s *ScoringService) RepliesForInquiry(ctx context.Context, inquiryID string) ([]domain.Reply, error) {
	replies, err := s.replies.ListByInquiry(ctx, inquiryID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return replies, nil
}
