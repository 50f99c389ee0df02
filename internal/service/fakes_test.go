package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/finalapps/orbit/internal/domain"
	"github.com/finalapps/orbit/internal/repository"
)

// memStore backs the in-memory repository fakes so tests can exercise full
// service flows without a database.
type memStore struct {
	mu        sync.Mutex
	seq       int
	inquiries map[string]*domain.Inquiry
	operators map[string]*domain.Operator
	replies   []*domain.Reply
	activity  []*domain.ActivityRecord
}

func newMemStore() *memStore {
	return &memStore{
		inquiries: map[string]*domain.Inquiry{},
		operators: map[string]*domain.Operator{},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) addOperator(id string, active bool, lastAssigned *time.Time) *domain.Operator {
	s.mu.Lock()
	defer s.mu.Unlock()
	op := &domain.Operator{
		ID:             id,
		Name:           id,
		Email:          id + "@example.com",
		Active:         active,
		LastAssignedAt: lastAssigned,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	s.operators[id] = op
	return op
}

func statusIn(status domain.InquiryStatus, set []domain.InquiryStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

type fakeInquiryRepo struct{ store *memStore }

func (r *fakeInquiryRepo) Create(_ context.Context, inquiry *domain.Inquiry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.inquiries {
		if existing.ExternalRef == inquiry.ExternalRef {
			return repository.ErrDuplicateExternalRef
		}
	}
	inquiry.ID = r.store.nextID("inq")
	inquiry.CreatedAt = time.Now()
	inquiry.UpdatedAt = inquiry.CreatedAt
	copied := *inquiry
	r.store.inquiries[inquiry.ID] = &copied
	return nil
}

func (r *fakeInquiryRepo) GetByID(_ context.Context, id string) (*domain.Inquiry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	inquiry, ok := r.store.inquiries[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *inquiry
	return &copied, nil
}

func (r *fakeInquiryRepo) ExistsByExternalRef(_ context.Context, ref string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, inquiry := range r.store.inquiries {
		if inquiry.ExternalRef == ref {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInquiryRepo) ListWithFilter(_ context.Context, filter repository.InquiryFilter) ([]domain.Inquiry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Inquiry
	for _, inquiry := range r.store.inquiries {
		if len(filter.Statuses) > 0 && !statusIn(inquiry.Status, filter.Statuses) {
			continue
		}
		out = append(out, *inquiry)
	}
	return out, nil
}

func (r *fakeInquiryRepo) ListOverdue(_ context.Context, now time.Time, limit int) ([]domain.Inquiry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Inquiry
	for _, inquiry := range r.store.inquiries {
		if inquiry.Status == domain.InquiryStatusAssigned && inquiry.DeadlineAt != nil && inquiry.DeadlineAt.Before(now) {
			out = append(out, *inquiry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeadlineAt.Before(*out[j].DeadlineAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeInquiryRepo) ListRetryable(_ context.Context, limit int) ([]domain.Inquiry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Inquiry
	for _, inquiry := range r.store.inquiries {
		if inquiry.Status == domain.InquiryStatusUnassigned || inquiry.Status == domain.InquiryStatusEscalated {
			out = append(out, *inquiry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeInquiryRepo) Assign(_ context.Context, id, operatorID string, from []domain.InquiryStatus, now time.Time, bandwidthMinutes int) (*domain.Inquiry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	inquiry, ok := r.store.inquiries[id]
	if !ok || !statusIn(inquiry.Status, from) {
		return nil, repository.ErrTransitionConflict
	}
	deadline := now.Add(time.Duration(bandwidthMinutes) * time.Minute)
	inquiry.Status = domain.InquiryStatusAssigned
	inquiry.AssignedTo = &operatorID
	inquiry.AssignedAt = &now
	inquiry.DeadlineAt = &deadline
	inquiry.BandwidthMinutes = bandwidthMinutes
	inquiry.UpdatedAt = time.Now()
	copied := *inquiry
	return &copied, nil
}

func (r *fakeInquiryRepo) Escalate(_ context.Context, id string, overdueAt time.Time) (*domain.Inquiry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	inquiry, ok := r.store.inquiries[id]
	if !ok || inquiry.Status != domain.InquiryStatusAssigned ||
		inquiry.DeadlineAt == nil || !inquiry.DeadlineAt.Before(overdueAt) {
		return nil, repository.ErrTransitionConflict
	}
	inquiry.Status = domain.InquiryStatusEscalated
	inquiry.EscalationCount++
	inquiry.UpdatedAt = time.Now()
	copied := *inquiry
	return &copied, nil
}

func (r *fakeInquiryRepo) MarkMissed(_ context.Context, id string) (*domain.Inquiry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	inquiry, ok := r.store.inquiries[id]
	if !ok || inquiry.Status != domain.InquiryStatusEscalated {
		return nil, repository.ErrTransitionConflict
	}
	inquiry.Status = domain.InquiryStatusMissed
	inquiry.UpdatedAt = time.Now()
	copied := *inquiry
	return &copied, nil
}

func (r *fakeInquiryRepo) Stats(_ context.Context) (*repository.InquiryStats, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stats := &repository.InquiryStats{
		ByStatus:   map[string]int{},
		ByPriority: map[string]int{},
		ByCategory: map[string]int{},
	}
	for _, inquiry := range r.store.inquiries {
		stats.Total++
		stats.ByStatus[string(inquiry.Status)]++
		stats.ByPriority[string(inquiry.Priority)]++
		stats.ByCategory[inquiry.Category]++
	}
	return stats, nil
}

type fakeOperatorRepo struct{ store *memStore }

func (r *fakeOperatorRepo) Create(_ context.Context, operator *domain.Operator) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.operators {
		if existing.Email == operator.Email {
			return repository.ErrDuplicateEmail
		}
	}
	operator.ID = r.store.nextID("op")
	operator.CreatedAt = time.Now()
	operator.UpdatedAt = operator.CreatedAt
	copied := *operator
	r.store.operators[operator.ID] = &copied
	return nil
}

func (r *fakeOperatorRepo) Update(_ context.Context, operator *domain.Operator) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.operators[operator.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Name = operator.Name
	existing.Email = operator.Email
	existing.Active = operator.Active
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *fakeOperatorRepo) GetByID(_ context.Context, id string) (*domain.Operator, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	operator, ok := r.store.operators[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *operator
	return &copied, nil
}

func (r *fakeOperatorRepo) List(_ context.Context, filter repository.OperatorFilter) ([]domain.Operator, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Operator
	for _, operator := range r.store.operators {
		if filter.Active != nil && operator.Active != *filter.Active {
			continue
		}
		out = append(out, *operator)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeOperatorRepo) ClaimNextAssignee(_ context.Context, now time.Time) (*domain.Operator, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	candidates := make([]domain.Operator, 0, len(r.store.operators))
	for _, operator := range r.store.operators {
		candidates = append(candidates, *operator)
	}
	chosen, ok := SelectNextOperator(candidates)
	if !ok {
		return nil, repository.ErrNoEligibleOperator
	}
	stamp := now
	r.store.operators[chosen.ID].LastAssignedAt = &stamp
	copied := *r.store.operators[chosen.ID]
	return &copied, nil
}

func (r *fakeOperatorRepo) ApplyReplyAggregates(_ context.Context, operatorID string, total int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	operator, ok := r.store.operators[operatorID]
	if !ok {
		return pgx.ErrNoRows
	}
	operator.TotalScore += total
	operator.TotalReplied++
	operator.AvgReplyTime = r.avgReplyTimeLocked(operatorID)
	return nil
}

func (r *fakeOperatorRepo) IncrementMissed(_ context.Context, operatorID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	operator, ok := r.store.operators[operatorID]
	if !ok {
		return pgx.ErrNoRows
	}
	operator.TotalMissed++
	return nil
}

func (r *fakeOperatorRepo) RecomputeAggregates(_ context.Context, operatorID string) (*domain.Operator, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	operator, ok := r.store.operators[operatorID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	total, count := 0, 0
	for _, reply := range r.store.replies {
		if reply.OperatorID == operatorID {
			total += reply.TotalScore
			count++
		}
	}
	operator.TotalScore = total
	operator.TotalReplied = count
	operator.AvgReplyTime = r.avgReplyTimeLocked(operatorID)
	copied := *operator
	return &copied, nil
}

func (r *fakeOperatorRepo) avgReplyTimeLocked(operatorID string) int {
	sum, count := 0, 0
	for _, reply := range r.store.replies {
		if reply.OperatorID == operatorID {
			sum += reply.ReplyTimeMinutes
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return (sum + count/2) / count
}

func (r *fakeOperatorRepo) Leaderboard(_ context.Context, limit int) ([]domain.Operator, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Operator
	for _, operator := range r.store.operators {
		out = append(out, *operator)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalScore > out[j].TotalScore })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeOperatorRepo) ListWithWorkload(_ context.Context) ([]repository.OperatorWorkload, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []repository.OperatorWorkload
	for _, operator := range r.store.operators {
		load := 0
		for _, inquiry := range r.store.inquiries {
			if inquiry.AssignedTo != nil && *inquiry.AssignedTo == operator.ID &&
				inquiry.Status == domain.InquiryStatusAssigned {
				load++
			}
		}
		out = append(out, repository.OperatorWorkload{Operator: *operator, OpenLoad: load})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Operator.ID < out[j].Operator.ID })
	return out, nil
}

type fakeReplyRepo struct{ store *memStore }

func (r *fakeReplyRepo) Record(_ context.Context, reply *domain.Reply, from []domain.InquiryStatus) (*domain.Inquiry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	inquiry, ok := r.store.inquiries[reply.InquiryID]
	if !ok || !statusIn(inquiry.Status, from) {
		return nil, repository.ErrTransitionConflict
	}
	inquiry.Status = domain.InquiryStatusReplied
	inquiry.UpdatedAt = time.Now()
	reply.ID = r.store.nextID("reply")
	reply.CreatedAt = time.Now()
	copied := *reply
	r.store.replies = append(r.store.replies, &copied)
	inquiryCopy := *inquiry
	return &inquiryCopy, nil
}

func (r *fakeReplyRepo) GetByID(_ context.Context, id string) (*domain.Reply, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, reply := range r.store.replies {
		if reply.ID == id {
			copied := *reply
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeReplyRepo) ListByInquiry(_ context.Context, inquiryID string) ([]domain.Reply, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Reply
	for _, reply := range r.store.replies {
		if reply.InquiryID == inquiryID {
			out = append(out, *reply)
		}
	}
	return out, nil
}

func (r *fakeReplyRepo) ListByOperator(_ context.Context, operatorID string) ([]domain.Reply, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Reply
	for _, reply := range r.store.replies {
		if reply.OperatorID == operatorID {
			out = append(out, *reply)
		}
	}
	return out, nil
}

func (r *fakeReplyRepo) UpdateOutcome(_ context.Context, id string, outcome int) (*domain.Reply, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, reply := range r.store.replies {
		if reply.ID == id {
			reply.ScoreOutcome = outcome
			reply.TotalScore = reply.ScoreSpeed + reply.ScoreQuality + outcome
			copied := *reply
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeActivityRepo struct{ store *memStore }

func (r *fakeActivityRepo) Create(_ context.Context, record *domain.ActivityRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	record.ID = r.store.nextID("act")
	record.CreatedAt = time.Now()
	copied := *record
	r.store.activity = append(r.store.activity, &copied)
	return nil
}

func (r *fakeActivityRepo) ListByInquiry(_ context.Context, inquiryID string, limit, offset int) ([]domain.ActivityRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.ActivityRecord
	for _, record := range r.store.activity {
		if record.InquiryID == inquiryID {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (r *fakeActivityRepo) ListRecent(_ context.Context, limit int) ([]domain.ActivityRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.ActivityRecord
	for _, record := range r.store.activity {
		out = append(out, *record)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
