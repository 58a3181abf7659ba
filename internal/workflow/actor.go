package workflow

import (
	"context"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
)

// Actor identifies who is performing a workflow operation. It is threaded
// explicitly through every engine call; the engine never reaches for an
// ambient current-user.
type Actor struct {
	UserID  string
	IsAdmin bool
}

// RoleProvider resolves an actor's organizational role within a
// department. Backed by membership records in production and by fixtures
// in tests.
type RoleProvider interface {
	GetActorRole(ctx context.Context, userID, departmentID string) (domain.Role, error)
}
