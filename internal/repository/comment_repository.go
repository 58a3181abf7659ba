package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
)

// CommentRepository encapsulates ticket comment persistence.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.Comment, error)
	CountByTicket(ctx context.Context, ticketID string) (int64, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository instantiates repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, content, is_internal, created_by)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.Content,
		comment.IsInternal,
		comment.CreatedBy,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.Comment, error) {
	query := `
        SELECT id, ticket_id, content, is_internal, created_by, created_at
        FROM ticket_comments WHERE ticket_id=$1`
	if !includeInternal {
		query += ` AND is_internal=FALSE`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.Content,
			&comment.IsInternal,
			&comment.CreatedBy,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}

func (r *commentRepository) CountByTicket(ctx context.Context, ticketID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM ticket_comments WHERE ticket_id=$1`
	var count int64
	err := r.pool.QueryRow(ctx, query, ticketID).Scan(&count)
	return count, err
}
