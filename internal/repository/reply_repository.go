package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finalapps/orbit/internal/domain"
)

// ReplyRepository stores scored replies. Rows are append-only apart from the
// outcome revision, which never touches speed/quality.
type ReplyRepository interface {
	// Record inserts the reply and moves the owning inquiry to replied in one
	// transaction. The status guard ensures at most one reply performs the
	// transition; a concurrent escalation that already committed loses the
	// inquiry to the reply, not the other way round.
	Record(ctx context.Context, reply *domain.Reply, from []domain.InquiryStatus) (*domain.Inquiry, error)
	GetByID(ctx context.Context, id string) (*domain.Reply, error)
	ListByInquiry(ctx context.Context, inquiryID string) ([]domain.Reply, error)
	ListByOperator(ctx context.Context, operatorID string) ([]domain.Reply, error)
	UpdateOutcome(ctx context.Context, id string, outcome int) (*domain.Reply, error)
}

type replyRepository struct {
	pool *pgxpool.Pool
}

// NewReplyRepository instantiates the repository.
func NewReplyRepository(pool *pgxpool.Pool) ReplyRepository {
	return &replyRepository{pool: pool}
}

const replyColumns = `id, inquiry_id, operator_id, body, score_speed, score_quality,
               score_outcome, total_score, reply_time_minutes, replied_at, created_at`

func (r *replyRepository) Record(ctx context.Context, reply *domain.Reply, from []domain.InquiryStatus) (*domain.Inquiry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const transitionQuery = `
        UPDATE inquiries SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status = ANY($3)
        RETURNING ` + inquiryColumns
	var inquiry domain.Inquiry
	if err := tx.QueryRow(ctx, transitionQuery,
		domain.InquiryStatusReplied, reply.InquiryID, statusStrings(from),
	).Scan(
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransitionConflict
		}
		return nil, err
	}

	const insertQuery = `
        INSERT INTO replies (inquiry_id, operator_id, body, score_speed, score_quality,
                             score_outcome, total_score, reply_time_minutes, replied_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insertQuery,
		reply.InquiryID,
		reply.OperatorID,
		reply.Body,
		reply.ScoreSpeed,
		reply.ScoreQuality,
		reply.ScoreOutcome,
		reply.TotalScore,
		reply.ReplyTimeMinutes,
		reply.RepliedAt,
	).Scan(&reply.ID, &reply.CreatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &inquiry, nil
}

func (r *replyRepository) GetByID(ctx context.Context, id string) (*domain.Reply, error) {
	query := `SELECT ` + replyColumns + ` FROM replies WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *replyRepository) ListByInquiry(ctx context.Context, inquiryID string) ([]domain.Reply, error) {
	query := `SELECT ` + replyColumns + ` FROM replies WHERE inquiry_id=$1 ORDER BY replied_at DESC`
	rows, err := r.pool.Query(ctx, query, inquiryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReplies(rows)
}

func (r *replyRepository) ListByOperator(ctx context.Context, operatorID string) ([]domain.Reply, error) {
	query := `SELECT ` + replyColumns + ` FROM replies WHERE operator_id=$1 ORDER BY replied_at DESC`
	rows, err := r.pool.Query(ctx, query, operatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReplies(rows)
}

// UpdateOutcome revises the outcome sub-score and recomputes the total from
// the stored speed/quality values.
func (r *replyRepository) UpdateOutcome(ctx context.Context, id string, outcome int) (*domain.Reply, error) {
	const query = `
        UPDATE replies
        SET score_outcome=$1, total_score=score_speed + score_quality + $1
        WHERE id=$2
        RETURNING ` + replyColumns
	return r.fetchSingle(ctx, query, outcome, id)
}

func (r *replyRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Reply, error) {
	var reply domain.Reply
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&reply.ID,
		&reply.InquiryID,
		&reply.OperatorID,
		&reply.Body,
		&reply.ScoreSpeed,
		&reply.ScoreQuality,
		&reply.ScoreOutcome,
		&reply.TotalScore,
		&reply.ReplyTimeMinutes,
		&reply.RepliedAt,
		&reply.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &reply, nil
}

func scanReplies(rows pgx.Rows) ([]domain.Reply, error) {
	var result []domain.Reply
	for rows.Next() {
		var reply domain.Reply
		if err := rows.Scan(
			&reply.ID,
			&reply.InquiryID,
			&reply.OperatorID,
			&reply.Body,
			&reply.ScoreSpeed,
			&reply.ScoreQuality,
			&reply.ScoreOutcome,
			&reply.TotalScore,
			&reply.ReplyTimeMinutes,
			&reply.RepliedAt,
			&reply.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, reply)
	}
	return result, rows.Err()
}
