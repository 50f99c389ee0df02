package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finalapps/orbit/internal/domain"
)

// OperatorFilter defines query params for operator listing.
type OperatorFilter struct {
	Active *bool
	Limit  int
	Offset int
}

// OperatorWorkload pairs an operator with their open inquiry count.
type OperatorWorkload struct {
	Operator domain.Operator
	OpenLoad int
}

// OperatorRepository handles persistence for operators.
type OperatorRepository interface {
	Create(ctx context.Context, operator *domain.Operator) error
	Update(ctx context.Context, operator *domain.Operator) error
	GetByID(ctx context.Context, id string) (*domain.Operator, error)
	List(ctx context.Context, filter OperatorFilter) ([]domain.Operator, error)
	ClaimNextAssignee(ctx context.Context, now time.Time) (*domain.Operator, error)
	ApplyReplyAggregates(ctx context.Context, operatorID string, total int) error
	IncrementMissed(ctx context.Context, operatorID string) error
	RecomputeAggregates(ctx context.Context, operatorID string) (*domain.Operator, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.Operator, error)
	ListWithWorkload(ctx context.Context) ([]OperatorWorkload, error)
}

type operatorRepository struct {
	pool *pgxpool.Pool
}

// NewOperatorRepository instantiates the repository.
func NewOperatorRepository(pool *pgxpool.Pool) OperatorRepository {
	return &operatorRepository{pool: pool}
}

const operatorColumns = `id, name, email, active_flag, total_replied, total_missed,
               total_score, avg_reply_time, last_assigned_at, created_at, updated_at`

func (r *operatorRepository) Create(ctx context.Context, operator *domain.Operator) error {
	const query = `
        INSERT INTO operators (name, email, active_flag)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		operator.Name,
		operator.Email,
		operator.Active,
	).Scan(&operator.ID, &operator.CreatedAt, &operator.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *operatorRepository) Update(ctx context.Context, operator *domain.Operator) error {
	const query = `
        UPDATE operators SET name=$1, email=$2, active_flag=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		operator.Name,
		operator.Email,
		operator.Active,
		operator.ID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *operatorRepository) GetByID(ctx context.Context, id string) (*domain.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators WHERE id=$1`
	return r.fetchSingle(ctx, r.pool, query, id)
}

func (r *operatorRepository) List(ctx context.Context, filter OperatorFilter) ([]domain.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators`
	args := []any{}
	clauses := []string{}

	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active_flag=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY name ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOperators(rows)
}

// ClaimNextAssignee selects the least-recently-assigned active operator and
// stamps last_assigned_at in one transaction. SKIP LOCKED keeps two
// concurrent assignments from both claiming the same stalest row.
func (r *operatorRepository) ClaimNextAssignee(ctx context.Context, now time.Time) (*domain.Operator, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const selectQuery = `
        SELECT ` + operatorColumns + `
        FROM operators
        WHERE active_flag = TRUE
        ORDER BY last_assigned_at ASC NULLS FIRST, id ASC
        LIMIT 1
        FOR UPDATE SKIP LOCKED`
	operator, err := r.fetchSingle(ctx, tx, selectQuery)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoEligibleOperator
		}
		return nil, err
	}

	const stampQuery = `UPDATE operators SET last_assigned_at=$1, updated_at=NOW() WHERE id=$2`
	if _, err := tx.Exec(ctx, stampQuery, now, operator.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	operator.LastAssignedAt = &now
	return operator, nil
}

// ApplyReplyAggregates folds a scored reply into the operator counters. The
// average is recomputed over the full reply history rather than approximated.
func (r *operatorRepository) ApplyReplyAggregates(ctx context.Context, operatorID string, total int) error {
	const query = `
        UPDATE operators
        SET total_score = total_score + $1,
            total_replied = total_replied + 1,
            avg_reply_time = COALESCE((
                SELECT ROUND(AVG(reply_time_minutes))::int
                FROM replies WHERE operator_id = $2
            ), 0),
            updated_at = NOW()
        WHERE id = $2`
	cmd, err := r.pool.Exec(ctx, query, total, operatorID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *operatorRepository) IncrementMissed(ctx context.Context, operatorID string) error {
	const query = `UPDATE operators SET total_missed = total_missed + 1, updated_at=NOW() WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, operatorID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// RecomputeAggregates rebuilds the derived counters from the reply history.
// The counters are a cache over replies; this is the recovery path when an
// incremental update was lost.
func (r *operatorRepository) RecomputeAggregates(ctx context.Context, operatorID string) (*domain.Operator, error) {
	const query = `
        UPDATE operators
        SET total_score = COALESCE((SELECT SUM(total_score) FROM replies WHERE operator_id=$1), 0),
            total_replied = COALESCE((SELECT COUNT(*) FROM replies WHERE operator_id=$1), 0),
            avg_reply_time = COALESCE((
                SELECT ROUND(AVG(reply_time_minutes))::int
                FROM replies WHERE operator_id=$1
            ), 0),
            updated_at = NOW()
        WHERE id=$1
        RETURNING ` + operatorColumns
	return r.fetchSingle(ctx, r.pool, query, operatorID)
}

func (r *operatorRepository) Leaderboard(ctx context.Context, limit int) ([]domain.Operator, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT ` + operatorColumns + ` FROM operators
             WHERE active_flag = TRUE
             ORDER BY total_score DESC, id ASC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOperators(rows)
}

func (r *operatorRepository) ListWithWorkload(ctx context.Context) ([]OperatorWorkload, error) {
	const query = `
        SELECT ` + operatorColumns + `,
               (SELECT COUNT(*) FROM inquiries i
                WHERE i.assigned_to = operators.id
                  AND i.status IN ('assigned','escalated')) AS open_load
        FROM operators
        WHERE active_flag = TRUE
        ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []OperatorWorkload
	for rows.Next() {
		var entry OperatorWorkload
		if err := rows.Scan(
			&entry.Operator.ID,
			&entry.Operator.Name,
			&entry.Operator.Email,
			&entry.Operator.Active,
			&entry.Operator.TotalReplied,
			&entry.Operator.TotalMissed,
			&entry.Operator.TotalScore,
			&entry.Operator.AvgReplyTime,
			&entry.Operator.LastAssignedAt,
			&entry.Operator.CreatedAt,
			&entry.Operator.UpdatedAt,
			&entry.OpenLoad,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *operatorRepository) fetchSingle(ctx context.Context, q rowQuerier, query string, args ...any) (*domain.Operator, error) {
	var operator domain.Operator
	if err := q.QueryRow(ctx, query, args...).Scan(
		&operator.ID,
		&operator.Name,
		&operator.Email,
		&operator.Active,
		&operator.TotalReplied,
		&operator.TotalMissed,
		&operator.TotalScore,
		&operator.AvgReplyTime,
		&operator.LastAssignedAt,
		&operator.CreatedAt,
		&operator.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &operator, nil
}

func scanOperators(rows pgx.Rows) ([]domain.Operator, error) {
	var result []domain.Operator
	for rows.Next() {
		var operator domain.Operator
		if err := rows.Scan(
			&operator.ID,
			&operator.Name,
			&operator.Email,
			&operator.Active,
			&operator.TotalReplied,
			&operator.TotalMissed,
			&operator.TotalScore,
			&operator.AvgReplyTime,
			&operator.LastAssignedAt,
			&operator.CreatedAt,
			&operator.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, operator)
	}
	return result, rows.Err()
}
