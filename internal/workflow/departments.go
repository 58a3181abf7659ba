package workflow

import (
	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
)

var roleLabels = map[domain.Role]string{
	domain.RoleEncarregado: "Encarregado",
	domain.RoleSupervisor:  "Supervisor",
	domain.RoleGerente:     "Gerente",
}

// newConfig assembles a department configuration from its approval
// hierarchy and triage convention. The transition table is derived: the
// approval segment is a strict chain ending in awaiting_triage, the
// execution segment is shared by all departments, and terminal statuses
// map to the empty set.
func newConfig(dept domain.DepartmentCode, hierarchy []domain.Role, triageTarget domain.TicketStatus) *Config {
	labels := map[domain.TicketStatus]string{
		domain.TicketStatusAwaitingTriage: "Aguardando Triagem",
		domain.TicketStatusPrioritized:    "Priorizado",
		domain.TicketStatusInProgress:     "Em Andamento",
		domain.TicketStatusResolved:       "Resolvido",
		domain.TicketStatusClosed:         "Fechado",
		domain.TicketStatusCancelled:      "Cancelado",
		domain.TicketStatusDenied:         "Negado",
	}
	transitions := map[domain.TicketStatus][]domain.TicketStatus{
		domain.TicketStatusAwaitingTriage: {domain.TicketStatusPrioritized, domain.TicketStatusInProgress, domain.TicketStatusCancelled},
		domain.TicketStatusPrioritized:    {domain.TicketStatusInProgress, domain.TicketStatusCancelled},
		domain.TicketStatusInProgress:     {domain.TicketStatusResolved, domain.TicketStatusCancelled},
		domain.TicketStatusResolved:       {domain.TicketStatusClosed, domain.TicketStatusInProgress},
		domain.TicketStatusClosed:         {},
		domain.TicketStatusCancelled:      {},
		domain.TicketStatusDenied:         {},
	}

	for i, role := range hierarchy {
		status := domain.AwaitingApprovalStatus(role)
		labels[status] = "Aguardando Aprovação - " + roleLabels[role]
		if i+1 < len(hierarchy) {
			next := domain.AwaitingApprovalStatus(hierarchy[i+1])
			transitions[status] = []domain.TicketStatus{next, domain.TicketStatusDenied}
		} else {
			transitions[status] = []domain.TicketStatus{domain.TicketStatusAwaitingTriage, domain.TicketStatusDenied}
		}
	}

	return &Config{
		Department:   dept,
		Hierarchy:    hierarchy,
		TriageTarget: triageTarget,
		labels:       labels,
		transitions:  transitions,
	}
}

var registry = map[domain.DepartmentCode]*Config{
	domain.DepartmentComercial: newConfig(domain.DepartmentComercial,
		nil,
		domain.TicketStatusPrioritized),
	domain.DepartmentFinanceiro: newConfig(domain.DepartmentFinanceiro,
		[]domain.Role{domain.RoleEncarregado, domain.RoleSupervisor, domain.RoleGerente},
		domain.TicketStatusPrioritized),
	domain.DepartmentCompras: newConfig(domain.DepartmentCompras,
		[]domain.Role{domain.RoleEncarregado, domain.RoleSupervisor, domain.RoleGerente},
		domain.TicketStatusPrioritized),
	// TI triage doubles as assignment, so tickets go straight to work.
	domain.DepartmentTI: newConfig(domain.DepartmentTI,
		[]domain.Role{domain.RoleGerente},
		domain.TicketStatusInProgress),
	domain.DepartmentOperacoes: newConfig(domain.DepartmentOperacoes,
		[]domain.Role{domain.RoleEncarregado, domain.RoleSupervisor},
		domain.TicketStatusPrioritized),
}

// ForDepartment looks up a department's workflow configuration.
func ForDepartment(code domain.DepartmentCode) (*Config, bool) {
	cfg, ok := registry[code]
	return cfg, ok
}

// Departments lists every configured department code.
func Departments() []domain.DepartmentCode {
	out := make([]domain.DepartmentCode, 0, len(registry))
	for code := range registry {
		out = append(out, code)
	}
	return out
}
