package domain

import "time"

// Role enumerates organizational ranks within a department.
type Role string

const (
	RoleColaborador Role = "colaborador"
	RoleEncarregado Role = "encarregado"
	RoleSupervisor  Role = "supervisor"
	RoleGerente     Role = "gerente"
	RoleAdmin       Role = "admin"
)

// AwaitingApprovalStatus returns the ticket status that marks a chain
// waiting on the given role.
func AwaitingApprovalStatus(role Role) TicketStatus {
	return TicketStatus("awaiting_approval_" + string(role))
}

// Membership binds a user to a department (and optionally a unit) with an
// organizational role. It is the source for the actor-role lookup used by
// the approval chain builder.
type Membership struct {
	ID           string
	UserID       string
	DepartmentID string
	UnitID       *string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
