package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finalapps/orbit/internal/domain"
)

// InquiryFilter captures listing parameters for the read surface.
type InquiryFilter struct {
	Statuses    []domain.InquiryStatus
	Priorities  []domain.InquiryPriority
	Category    *string
	AssignedTo  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// InquiryStats is the status/priority/category rollup for dashboards.
type InquiryStats struct {
	Total      int
	ByStatus   map[string]int
	ByPriority map[string]int
	ByCategory map[string]int
}

// InquiryRepository encapsulates inquiry persistence. All status transitions
// are guarded conditional updates so that concurrent sweeps and replies
// serialize per inquiry at the store.
type InquiryRepository interface {
	Create(ctx context.Context, inquiry *domain.Inquiry) error
	GetByID(ctx context.Context, id string) (*domain.Inquiry, error)
	ExistsByExternalRef(ctx context.Context, ref string) (bool, error)
	ListWithFilter(ctx context.Context, filter InquiryFilter) ([]domain.Inquiry, error)
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.Inquiry, error)
	ListRetryable(ctx context.Context, limit int) ([]domain.Inquiry, error)
	Assign(ctx context.Context, id, operatorID string, from []domain.InquiryStatus, now time.Time, bandwidthMinutes int) (*domain.Inquiry, error)
	Escalate(ctx context.Context, id string, overdueAt time.Time) (*domain.Inquiry, error)
	MarkMissed(ctx context.Context, id string) (*domain.Inquiry, error)
	Stats(ctx context.Context) (*InquiryStats, error)
}

type inquiryRepository struct {
	pool *pgxpool.Pool
}

// NewInquiryRepository instantiates the repository.
func NewInquiryRepository(pool *pgxpool.Pool) InquiryRepository {
	return &inquiryRepository{pool: pool}
}

const inquiryColumns = `id, external_ref, title, content, category, priority, status,
               assigned_to, bandwidth_minutes, assigned_at, deadline_at,
               escalation_count, relevance_score, created_at, updated_at`

func (r *inquiryRepository) Create(ctx context.Context, inquiry *domain.Inquiry) error {
	const query = `
        INSERT INTO inquiries (external_ref, title, content, category, priority, status,
                               bandwidth_minutes, relevance_score)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		inquiry.ExternalRef,
		inquiry.Title,
		inquiry.Content,
		inquiry.Category,
		inquiry.Priority,
		inquiry.Status,
		inquiry.BandwidthMinutes,
		inquiry.RelevanceScore,
	).Scan(&inquiry.ID, &inquiry.CreatedAt, &inquiry.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateExternalRef
	}
	return err
}

func (r *inquiryRepository) GetByID(ctx context.Context, id string) (*domain.Inquiry, error) {
	query := `SELECT ` + inquiryColumns + ` FROM inquiries WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *inquiryRepository) ExistsByExternalRef(ctx context.Context, ref string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM inquiries WHERE external_ref=$1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, ref).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *inquiryRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Inquiry, error) {
	var inquiry domain.Inquiry
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&inquiry.ID,
		&inquiry.ExternalRef,
		&inquiry.Title,
		&inquiry.Content,
		&inquiry.Category,
		&inquiry.Priority,
		&inquiry.Status,
		&inquiry.AssignedTo,
		&inquiry.BandwidthMinutes,
		&inquiry.AssignedAt,
		&inquiry.DeadlineAt,
		&inquiry.EscalationCount,
		&inquiry.RelevanceScore,
		&inquiry.CreatedAt,
		&inquiry.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &inquiry, nil
}

func (r *inquiryRepository) ListWithFilter(ctx context.Context, filter InquiryFilter) ([]domain.Inquiry, error) {
	base := `SELECT ` + inquiryColumns + ` FROM inquiries`
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInquiries(rows)
}

func (r *inquiryRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.Inquiry, error) {
	query := `SELECT ` + inquiryColumns + ` FROM inquiries
             WHERE status=$1 AND deadline_at < $2
             ORDER BY deadline_at ASC LIMIT $3`
	rows, err := r.pool.Query(ctx, query, domain.InquiryStatusAssigned, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInquiries(rows)
}

func (r *inquiryRepository) ListRetryable(ctx context.Context, limit int) ([]domain.Inquiry, error) {
	query := `SELECT ` + inquiryColumns + ` FROM inquiries
             WHERE status = ANY($1)
             ORDER BY created_at ASC LIMIT $2`
	statuses := []string{string(domain.InquiryStatusUnassigned), string(domain.InquiryStatusEscalated)}
	rows, err := r.pool.Query(ctx, query, statuses, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInquiries(rows)
}

// Assign moves the inquiry to assigned with a freshly computed deadline. The
// guard on the prior status makes concurrent callers lose cleanly instead of
// double-assigning.
func (r *inquiryRepository) Assign(ctx context.Context, id, operatorID string, from []domain.InquiryStatus, now time.Time, bandwidthMinutes int) (*domain.Inquiry, error) {
	const query = `
        UPDATE inquiries
        SET status=$1, assigned_to=$2, assigned_at=$3,
            deadline_at=$3 + make_interval(mins => $4), bandwidth_minutes=$4, updated_at=NOW()
        WHERE id=$5 AND status = ANY($6)
        RETURNING ` + inquiryColumns
	inquiry, err := r.fetchSingle(ctx, query,
		domain.InquiryStatusAssigned, operatorID, now, bandwidthMinutes, id, statusStrings(from))
	if err == pgx.ErrNoRows {
		return nil, ErrTransitionConflict
	}
	return inquiry, err
}

// Escalate increments escalation_count exactly once per missed deadline: the
// deadline predicate in the guard makes re-invocation a no-op until the next
// deadline actually elapses.
func (r *inquiryRepository) Escalate(ctx context.Context, id string, overdueAt time.Time) (*domain.Inquiry, error) {
	const query = `
        UPDATE inquiries
        SET status=$1, escalation_count=escalation_count+1, updated_at=NOW()
        WHERE id=$2 AND status=$3 AND deadline_at < $4
        RETURNING ` + inquiryColumns
	inquiry, err := r.fetchSingle(ctx, query,
		domain.InquiryStatusEscalated, id, domain.InquiryStatusAssigned, overdueAt)
	if err == pgx.ErrNoRows {
		return nil, ErrTransitionConflict
	}
	return inquiry, err
}

func (r *inquiryRepository) MarkMissed(ctx context.Context, id string) (*domain.Inquiry, error) {
	const query = `
        UPDATE inquiries SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3
        RETURNING ` + inquiryColumns
	inquiry, err := r.fetchSingle(ctx, query,
		domain.InquiryStatusMissed, id, domain.InquiryStatusEscalated)
	if err == pgx.ErrNoRows {
		return nil, ErrTransitionConflict
	}
	return inquiry, err
}

func (r *inquiryRepository) Stats(ctx context.Context) (*InquiryStats, error) {
	const query = `SELECT status, priority, COALESCE(category, 'uncategorized') FROM inquiries`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &InquiryStats{
		ByStatus:   map[string]int{},
		ByPriority: map[string]int{},
		ByCategory: map[string]int{},
	}
	for rows.Next() {
		var status, priority, category string
		if err := rows.Scan(&status, &priority, &category); err != nil {
			return nil, err
		}
		stats.Total++
		stats.ByStatus[status]++
		stats.ByPriority[priority]++
		stats.ByCategory[category]++
	}
	return stats, rows.Err()
}

func statusStrings(statuses []domain.InquiryStatus) []string {
	out := make([]string, len(statuses))
	for i, status := range statuses {
		out[i] = string(status)
	}
	return out
}

func scanInquiries(rows pgx.Rows) ([]domain.Inquiry, error) {
	var result []domain.Inquiry
	for rows.Next() {
		var inquiry domain.Inquiry
		if err := rows.Scan(
			&inquiry.ID,
			&inquiry.ExternalRef,
			&inquiry.Title,
			&inquiry.Content,
			&inquiry.Category,
			&inquiry.Priority,
			&inquiry.Status,
			&inquiry.AssignedTo,
			&inquiry.BandwidthMinutes,
			&inquiry.AssignedAt,
			&inquiry.DeadlineAt,
			&inquiry.EscalationCount,
			&inquiry.RelevanceScore,
			&inquiry.CreatedAt,
			&inquiry.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, inquiry)
	}
	return result, rows.Err()
}
