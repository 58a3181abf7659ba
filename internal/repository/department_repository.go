package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
)

// DepartmentRepository encapsulates department persistence.
type DepartmentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	GetByCode(ctx context.Context, code domain.DepartmentCode) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
}

type departmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository instantiates repository.
func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

const departmentColumns = `id, code, name, description, is_active, created_at, updated_at`

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	const query = `SELECT ` + departmentColumns + ` FROM departments WHERE id=$1`
	return scanDepartmentRow(r.pool.QueryRow(ctx, query, id))
}

func (r *departmentRepository) GetByCode(ctx context.Context, code domain.DepartmentCode) (*domain.Department, error) {
	const query = `SELECT ` + departmentColumns + ` FROM departments WHERE code=$1`
	return scanDepartmentRow(r.pool.QueryRow(ctx, query, code))
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	const query = `SELECT ` + departmentColumns + ` FROM departments ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		dept, err := scanDepartmentRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *dept)
	}
	return result, rows.Err()
}

func scanDepartmentRow(row pgx.Row) (*domain.Department, error) {
	var dept domain.Department
	if err := row.Scan(
		&dept.ID,
		&dept.Code,
		&dept.Name,
		&dept.Description,
		&dept.IsActive,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}
