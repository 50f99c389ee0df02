package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/finalapps/orbit/internal/domain"
	"github.com/finalapps/orbit/internal/repository"
	apperrors "github.com/finalapps/orbit/pkg/util"
)

// InquiryService serves the read side: listings, detail views including the
// reply thread and activity trail, and pipeline statistics.
type InquiryService struct {
	inquiries repository.InquiryRepository
	replies   repository.ReplyRepository
	activity  repository.ActivityRepository
}

// NewInquiryService creates the service.
func NewInquiryService(inquiries repository.InquiryRepository, replies repository.ReplyRepository, activity repository.ActivityRepository) *InquiryService {
	return &InquiryService{inquiries: inquiries, replies: replies, activity: activity}
}

// InquiryDetail combines an inquiry with its replies and recent activity.
type InquiryDetail struct {
	Inquiry  *domain.Inquiry         `json:"inquiry"`
	Replies  []domain.Reply          `json:"replies"`
	Activity []domain.ActivityRecord `json:"activity"`
}

// List returns inquiries matching the filter.
func (s *InquiryService) List(ctx context.Context, filter repository.InquiryFilter) ([]domain.Inquiry, error) {
	inquiries, err := s.inquiries.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return inquiries, nil
}

// Get returns one inquiry with its reply thread and activity trail.
func (s *InquiryService) Get(ctx context.Context, id string) (*InquiryDetail, error) {
	inquiry, err := s.inquiries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("inquiry", map[string]any{"inquiry_id": id})
		}
		return nil, apperrors.MapError(err)
	}

	replies, err := s.replies.ListByInquiry(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	activity, err := s.activity.ListByInquiry(ctx, id, 50, 0)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &InquiryDetail{Inquiry: inquiry, Replies: replies, Activity: activity}, nil
}

// Stats returns pipeline counts grouped by status, priority and category.
func (s *InquiryService) Stats(ctx context.Context) (*repository.InquiryStats, error) {
	stats, err := s.inquiries.Stats(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return stats, nil
}

// RecentActivity returns the newest activity entries across all inquiries.
func (s *InquiryService) RecentActivity(ctx context.Context, limit int) ([]domain.ActivityRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	records, err := s.activity.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return records, nil
}
