package workflow

import (
	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
)

// Config holds one department's workflow definition: its status set with
// labels and transition table, the approval-role hierarchy, and the status
// triage advances into. Departments differ only by configuration, never by
// code path.
type Config struct {
	Department   domain.DepartmentCode
	Hierarchy    []domain.Role
	TriageTarget domain.TicketStatus

	labels      map[domain.TicketStatus]string
	transitions map[domain.TicketStatus][]domain.TicketStatus
}

// AllowedTransitions returns the statuses reachable from the given one.
// Unknown statuses yield an empty set; callers must treat that as "reject
// any change".
func (c *Config) AllowedTransitions(status domain.TicketStatus) []domain.TicketStatus {
	allowed, ok := c.transitions[status]
	if !ok {
		return []domain.TicketStatus{}
	}
	out := make([]domain.TicketStatus, len(allowed))
	copy(out, allowed)
	return out
}

// CanTransition reports whether from→to is in the department's table.
func (c *Config) CanTransition(from, to domain.TicketStatus) bool {
	for _, candidate := range c.transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Label returns the display label for a status, or the raw status string
// when the department does not know it.
func (c *Config) Label(status domain.TicketStatus) string {
	if label, ok := c.labels[status]; ok {
		return label
	}
	return string(status)
}

// Knows reports whether the status belongs to this department's set.
func (c *Config) Knows(status domain.TicketStatus) bool {
	_, ok := c.labels[status]
	return ok
}

// rankOf returns the creator's position in the hierarchy, or -1 when the
// role has no recognized rank.
func (c *Config) rankOf(role domain.Role) int {
	for i, r := range c.Hierarchy {
		if r == role {
			return i
		}
	}
	return -1
}

// RequiredApprovals computes the ordered roles that must sign off on a
// ticket created by the given role. Every role at or below the creator's
// own rank is excluded; an unrecognized role requires the full hierarchy.
// The result is renumbered implicitly: index 0 is approval level 1.
func (c *Config) RequiredApprovals(creator domain.Role) []domain.Role {
	rank := c.rankOf(creator)
	remaining := c.Hierarchy[rank+1:]
	out := make([]domain.Role, len(remaining))
	copy(out, remaining)
	return out
}

// InitialStatus resolves where a new ticket starts for the given creator:
// the first pending approval's awaiting status, or awaiting_triage when the
// chain is empty (auto-approval).
func (c *Config) InitialStatus(chain []domain.Role) domain.TicketStatus {
	if len(chain) == 0 {
		return domain.TicketStatusAwaitingTriage
	}
	return domain.AwaitingApprovalStatus(chain[0])
}

// NextApprovalStatus returns the status a ticket advances to after the
// approval at the given chain index is granted: the next role's awaiting
// status, or awaiting_triage when it was the last level.
func (c *Config) NextApprovalStatus(chain []domain.Role, approvedIndex int) domain.TicketStatus {
	if approvedIndex+1 < len(chain) {
		return domain.AwaitingApprovalStatus(chain[approvedIndex+1])
	}
	return domain.TicketStatusAwaitingTriage
}
