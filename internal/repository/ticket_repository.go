package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
)

// ErrStaleStatus signals that a guarded update found the ticket in a
// different status than expected; another writer got there first.
var ErrStaleStatus = errors.New("ticket status changed concurrently")

// TicketFilter captures listing parameters.
type TicketFilter struct {
	CreatedBy    *string
	DepartmentID *string
	UnitID       *string
	AssignedTo   *string
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// StatusUpdate describes a guarded status mutation. From is the status the
// ticket must still be in for the update to apply; History entries are
// written in the same transaction.
type StatusUpdate struct {
	TicketID     string
	From         domain.TicketStatus
	To           domain.TicketStatus
	Priority     *domain.TicketPriority
	AssignedTo   *string
	DueDate      *time.Time
	ResolvedAt   *time.Time
	ClosedAt     *time.Time
	DenialReason *string
	History      []*domain.TicketHistory
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	CreateWithChain(ctx context.Context, ticket *domain.Ticket, approvals []*domain.Approval, entry *domain.TicketHistory) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	UpdateStatusGuarded(ctx context.Context, update StatusUpdate) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, title, description, department_id, category_id, unit_id,
       status, priority, perceived_urgency, created_by, assigned_to, due_date,
       resolved_at, closed_at, denial_reason, created_at, updated_at`

// CreateWithChain inserts the ticket, its full approval chain and the
// "created" history entry in a single transaction. A crash mid-creation
// can never leave a ticket without its chain. The per-unit sequential
// ticket number is assigned inside the same transaction.
func (r *ticketRepository) CreateWithChain(ctx context.Context, ticket *domain.Ticket, approvals []*domain.Approval, entry *domain.TicketHistory) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const ticketQuery = `
        INSERT INTO tickets (ticket_number, title, description, department_id, category_id, unit_id,
                             status, priority, perceived_urgency, created_by, assigned_to, due_date)
        VALUES ((SELECT COALESCE(MAX(ticket_number),0)+1 FROM tickets WHERE unit_id IS NOT DISTINCT FROM $5),
                $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, ticket_number, created_at, updated_at`
	if err := tx.QueryRow(ctx, ticketQuery,
		ticket.Title,
		ticket.Description,
		ticket.DepartmentID,
		ticket.CategoryID,
		ticket.UnitID,
		ticket.Status,
		ticket.Priority,
		ticket.PerceivedUrgency,
		ticket.CreatedBy,
		ticket.AssignedTo,
		ticket.DueDate,
	).Scan(&ticket.ID, &ticket.TicketNumber, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
		return err
	}

	const approvalQuery = `
        INSERT INTO ticket_approvals (ticket_id, approval_level, approval_role, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	for _, approval := range approvals {
		approval.TicketID = ticket.ID
		if err := tx.QueryRow(ctx, approvalQuery,
			approval.TicketID,
			approval.ApprovalLevel,
			approval.ApprovalRole,
			approval.Status,
		).Scan(&approval.ID, &approval.CreatedAt, &approval.UpdatedAt); err != nil {
			return err
		}
	}

	if entry != nil {
		entry.TicketID = ticket.ID
		if err := insertHistoryTx(ctx, tx, entry); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// UpdateStatusGuarded applies a compare-and-swap on status together with
// any field mutations and history entries. ErrStaleStatus is returned when
// the ticket exists but is no longer in the expected status.
func (r *ticketRepository) UpdateStatusGuarded(ctx context.Context, update StatusUpdate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        UPDATE tickets SET status=$1,
            priority=COALESCE($2, priority),
            assigned_to=COALESCE($3, assigned_to),
            due_date=COALESCE($4, due_date),
            resolved_at=COALESCE($5, resolved_at),
            closed_at=COALESCE($6, closed_at),
            denial_reason=COALESCE($7, denial_reason),
            updated_at=NOW()
        WHERE id=$8 AND status=$9`
	cmd, err := tx.Exec(ctx, query,
		update.To,
		update.Priority,
		update.AssignedTo,
		update.DueDate,
		update.ResolvedAt,
		update.ClosedAt,
		update.DenialReason,
		update.TicketID,
		update.From,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, update.TicketID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		return ErrStaleStatus
	}

	for _, entry := range update.History {
		entry.TicketID = update.TicketID
		if err := insertHistoryTx(ctx, tx, entry); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.UnitID != nil {
		args = append(args, *filter.UnitID)
		clauses = append(clauses, fmt.Sprintf("unit_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
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
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.Title,
		&ticket.Description,
		&ticket.DepartmentID,
		&ticket.CategoryID,
		&ticket.UnitID,
		&ticket.Status,
		&ticket.Priority,
		&ticket.PerceivedUrgency,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.DueDate,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.DenialReason,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func insertHistoryTx(ctx context.Context, tx pgx.Tx, entry *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, action, old_value, new_value, created_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return tx.QueryRow(ctx, query,
		entry.TicketID,
		entry.Action,
		entry.OldValue,
		entry.NewValue,
		entry.CreatedBy,
	).Scan(&entry.ID, &entry.CreatedAt)
}
