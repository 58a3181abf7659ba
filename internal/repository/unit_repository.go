package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
)

// UnitRepository encapsulates unit persistence.
type UnitRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Unit, error)
	List(ctx context.Context, onlyActive bool) ([]domain.Unit, error)
}

type unitRepository struct {
	pool *pgxpool.Pool
}

// NewUnitRepository instantiates repository.
func NewUnitRepository(pool *pgxpool.Pool) UnitRepository {
	return &unitRepository{pool: pool}
}

func (r *unitRepository) GetByID(ctx context.Context, id string) (*domain.Unit, error) {
	const query = `
        SELECT id, name, city, is_active, created_at, updated_at
        FROM units WHERE id=$1`
	var unit domain.Unit
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&unit.ID,
		&unit.Name,
		&unit.City,
		&unit.IsActive,
		&unit.CreatedAt,
		&unit.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepository) List(ctx context.Context, onlyActive bool) ([]domain.Unit, error) {
	query := `
        SELECT id, name, city, is_active, created_at, updated_at
        FROM units`
	if onlyActive {
		query += ` WHERE is_active=TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Unit
	for rows.Next() {
		var unit domain.Unit
		if err := rows.Scan(
			&unit.ID,
			&unit.Name,
			&unit.City,
			&unit.IsActive,
			&unit.CreatedAt,
			&unit.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, unit)
	}
	return result, rows.Err()
}
