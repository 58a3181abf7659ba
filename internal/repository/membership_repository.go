package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
)

// MembershipRepository resolves users' department roles. It backs the
// workflow.RoleProvider lookup used by the approval chain builder.
type MembershipRepository interface {
	GetActorRole(ctx context.Context, userID, departmentID string) (domain.Role, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Membership, error)
	Create(ctx context.Context, membership *domain.Membership) error
}

type membershipRepository struct {
	pool *pgxpool.Pool
}

// NewMembershipRepository instantiates repository.
func NewMembershipRepository(pool *pgxpool.Pool) MembershipRepository {
	return &membershipRepository{pool: pool}
}

// GetActorRole returns the user's role in the department. Users without a
// membership get colaborador, which carries no rank in any approval
// hierarchy and therefore requires the full chain.
func (r *membershipRepository) GetActorRole(ctx context.Context, userID, departmentID string) (domain.Role, error) {
	const query = `
        SELECT role FROM department_memberships
        WHERE user_id=$1 AND department_id=$2`
	var role domain.Role
	if err := r.pool.QueryRow(ctx, query, userID, departmentID).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RoleColaborador, nil
		}
		return "", err
	}
	return role, nil
}

func (r *membershipRepository) ListByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	const query = `
        SELECT id, user_id, department_id, unit_id, role, created_at, updated_at
        FROM department_memberships WHERE user_id=$1`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Membership
	for rows.Next() {
		var membership domain.Membership
		if err := rows.Scan(
			&membership.ID,
			&membership.UserID,
			&membership.DepartmentID,
			&membership.UnitID,
			&membership.Role,
			&membership.CreatedAt,
			&membership.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, membership)
	}
	return result, rows.Err()
}

func (r *membershipRepository) Create(ctx context.Context, membership *domain.Membership) error {
	const query = `
        INSERT INTO department_memberships (user_id, department_id, unit_id, role)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		membership.UserID,
		membership.DepartmentID,
		membership.UnitID,
		membership.Role,
	).Scan(&membership.ID, &membership.CreatedAt, &membership.UpdatedAt)
}
