package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
)

// ErrAlreadyDecided signals that the targeted approval is no longer
// pending.
var ErrAlreadyDecided = errors.New("approval already decided")

// ApprovalDecision describes a guarded approve/deny mutation. The approval
// row update, the ticket status advance and the history entries are applied
// in one transaction; either conditional update matching zero rows aborts
// the whole decision.
type ApprovalDecision struct {
	ApprovalID   string
	TicketID     string
	Status       domain.ApprovalStatus
	ApprovedBy   string
	DecisionAt   time.Time
	Notes        *string
	TicketFrom   domain.TicketStatus
	TicketTo     domain.TicketStatus
	DenialReason *string
	History      []*domain.TicketHistory
}

// ApprovalRepository encapsulates approval chain persistence. Rows are
// only ever flipped from pending to approved/denied, never deleted.
type ApprovalRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Approval, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Approval, error)
	DecideGuarded(ctx context.Context, decision ApprovalDecision) error
}

type approvalRepository struct {
	pool *pgxpool.Pool
}

// NewApprovalRepository instantiates repository.
func NewApprovalRepository(pool *pgxpool.Pool) ApprovalRepository {
	return &approvalRepository{pool: pool}
}

const approvalColumns = `id, ticket_id, approval_level, approval_role, status,
       approved_by, decision_at, notes, created_at, updated_at`

func (r *approvalRepository) GetByID(ctx context.Context, id string) (*domain.Approval, error) {
	const query = `
        SELECT ` + approvalColumns + `
        FROM ticket_approvals WHERE id=$1`
	var approval domain.Approval
	if err := scanApproval(r.pool.QueryRow(ctx, query, id), &approval); err != nil {
		return nil, err
	}
	return &approval, nil
}

func (r *approvalRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Approval, error) {
	const query = `
        SELECT ` + approvalColumns + `
        FROM ticket_approvals WHERE ticket_id=$1 ORDER BY approval_level ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Approval
	for rows.Next() {
		var approval domain.Approval
		if err := scanApproval(rows, &approval); err != nil {
			return nil, err
		}
		result = append(result, approval)
	}
	return result, rows.Err()
}

// DecideGuarded flips the approval row and advances the ticket status in a
// single transaction. The approval update is conditional on the row still
// being pending; the ticket update is conditional on the expected status.
func (r *approvalRepository) DecideGuarded(ctx context.Context, decision ApprovalDecision) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const approvalQuery = `
        UPDATE ticket_approvals
        SET status=$1, approved_by=$2, decision_at=$3, notes=$4, updated_at=NOW()
        WHERE id=$5 AND status='pending'`
	cmd, err := tx.Exec(ctx, approvalQuery,
		decision.Status,
		decision.ApprovedBy,
		decision.DecisionAt,
		decision.Notes,
		decision.ApprovalID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM ticket_approvals WHERE id=$1)`, decision.ApprovalID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		return ErrAlreadyDecided
	}

	const ticketQuery = `
        UPDATE tickets SET status=$1, denial_reason=COALESCE($2, denial_reason), updated_at=NOW()
        WHERE id=$3 AND status=$4`
	cmd, err = tx.Exec(ctx, ticketQuery,
		decision.TicketTo,
		decision.DenialReason,
		decision.TicketID,
		decision.TicketFrom,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleStatus
	}

	for _, entry := range decision.History {
		entry.TicketID = decision.TicketID
		if err := insertHistoryTx(ctx, tx, entry); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func scanApproval(row pgx.Row, approval *domain.Approval) error {
	return row.Scan(
		&approval.ID,
		&approval.TicketID,
		&approval.ApprovalLevel,
		&approval.ApprovalRole,
		&approval.Status,
		&approval.ApprovedBy,
		&approval.DecisionAt,
		&approval.Notes,
		&approval.CreatedAt,
		&approval.UpdatedAt,
	)
}
