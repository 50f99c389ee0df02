package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finalapps/orbit/internal/domain"
)

// ActivityRepository stores the append-only audit trail.
type ActivityRepository interface {
	Create(ctx context.Context, record *domain.ActivityRecord) error
	ListByInquiry(ctx context.Context, inquiryID string, limit, offset int) ([]domain.ActivityRecord, error)
	ListRecent(ctx context.Context, limit int) ([]domain.ActivityRecord, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository builds the repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Create(ctx context.Context, record *domain.ActivityRecord) error {
	const query = `
        INSERT INTO activity_log (inquiry_id, operator_id, activity_type, description)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		record.InquiryID,
		record.OperatorID,
		record.Type,
		record.Description,
	).Scan(&record.ID, &record.CreatedAt)
}

func (r *activityRepository) ListByInquiry(ctx context.Context, inquiryID string, limit, offset int) ([]domain.ActivityRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, inquiry_id, operator_id, activity_type, description, created_at
        FROM activity_log WHERE inquiry_id=$1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, inquiryID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivity(rows)
}

func (r *activityRepository) ListRecent(ctx context.Context, limit int) ([]domain.ActivityRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, inquiry_id, operator_id, activity_type, description, created_at
        FROM activity_log ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivity(rows)
}

func scanActivity(rows pgx.Rows) ([]domain.ActivityRecord, error) {
	var result []domain.ActivityRecord
	for rows.Next() {
		var record domain.ActivityRecord
		if err := rows.Scan(
			&record.ID,
			&record.InquiryID,
			&record.OperatorID,
			&record.Type,
			&record.Description,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
