package workflow

import (
	"reflect"
	"testing"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
)

func mustConfig(t *testing.T, code domain.DepartmentCode) *Config {
	t.Helper()
	cfg, ok := ForDepartment(code)
	if !ok {
		t.Fatalf("no configuration for department %q", code)
	}
	return cfg
}

func TestRequiredApprovals(t *testing.T) {
	tests := []struct {
		name    string
		dept    domain.DepartmentCode
		creator domain.Role
		want    []domain.Role
	}{
		{
			name:    "colaborador in financeiro needs full chain",
			dept:    domain.DepartmentFinanceiro,
			creator: domain.RoleColaborador,
			want:    []domain.Role{domain.RoleEncarregado, domain.RoleSupervisor, domain.RoleGerente},
		},
		{
			name:    "encarregado skips own level",
			dept:    domain.DepartmentFinanceiro,
			creator: domain.RoleEncarregado,
			want:    []domain.Role{domain.RoleSupervisor, domain.RoleGerente},
		},
		{
			name:    "supervisor needs only gerente",
			dept:    domain.DepartmentFinanceiro,
			creator: domain.RoleSupervisor,
			want:    []domain.Role{domain.RoleGerente},
		},
		{
			name:    "gerente auto-approves",
			dept:    domain.DepartmentFinanceiro,
			creator: domain.RoleGerente,
			want:    []domain.Role{},
		},
		{
			name:    "unknown role requires full chain",
			dept:    domain.DepartmentFinanceiro,
			creator: domain.Role("diretor"),
			want:    []domain.Role{domain.RoleEncarregado, domain.RoleSupervisor, domain.RoleGerente},
		},
		{
			name:    "admin has no hierarchy rank",
			dept:    domain.DepartmentCompras,
			creator: domain.RoleAdmin,
			want:    []domain.Role{domain.RoleEncarregado, domain.RoleSupervisor, domain.RoleGerente},
		},
		{
			name:    "comercial never requires approval",
			dept:    domain.DepartmentComercial,
			creator: domain.RoleColaborador,
			want:    []domain.Role{},
		},
		{
			name:    "ti single level chain",
			dept:    domain.DepartmentTI,
			creator: domain.RoleColaborador,
			want:    []domain.Role{domain.RoleGerente},
		},
		{
			name:    "operacoes tops out at supervisor",
			dept:    domain.DepartmentOperacoes,
			creator: domain.RoleSupervisor,
			want:    []domain.Role{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustConfig(t, tt.dept)
			got := cfg.RequiredApprovals(tt.creator)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RequiredApprovals(%q) = %v, want %v", tt.creator, got, tt.want)
			}
		})
	}
}

func TestInitialStatus(t *testing.T) {
	cfg := mustConfig(t, domain.DepartmentFinanceiro)

	full := cfg.RequiredApprovals(domain.RoleColaborador)
	if got := cfg.InitialStatus(full); got != domain.TicketStatusAwaitingApprovalEncarregado {
		t.Errorf("InitialStatus(full chain) = %q, want %q", got, domain.TicketStatusAwaitingApprovalEncarregado)
	}

	partial := cfg.RequiredApprovals(domain.RoleEncarregado)
	if got := cfg.InitialStatus(partial); got != domain.TicketStatusAwaitingApprovalSupervisor {
		t.Errorf("InitialStatus(partial chain) = %q, want %q", got, domain.TicketStatusAwaitingApprovalSupervisor)
	}

	if got := cfg.InitialStatus(nil); got != domain.TicketStatusAwaitingTriage {
		t.Errorf("InitialStatus(empty chain) = %q, want %q", got, domain.TicketStatusAwaitingTriage)
	}
}

func TestNextApprovalStatus(t *testing.T) {
	cfg := mustConfig(t, domain.DepartmentFinanceiro)
	chain := cfg.RequiredApprovals(domain.RoleColaborador)

	if got := cfg.NextApprovalStatus(chain, 0); got != domain.TicketStatusAwaitingApprovalSupervisor {
		t.Errorf("after level 1: got %q, want %q", got, domain.TicketStatusAwaitingApprovalSupervisor)
	}
	if got := cfg.NextApprovalStatus(chain, 1); got != domain.TicketStatusAwaitingApprovalGerente {
		t.Errorf("after level 2: got %q, want %q", got, domain.TicketStatusAwaitingApprovalGerente)
	}
	if got := cfg.NextApprovalStatus(chain, 2); got != domain.TicketStatusAwaitingTriage {
		t.Errorf("after last level: got %q, want %q", got, domain.TicketStatusAwaitingTriage)
	}
}

func TestCanTransition(t *testing.T) {
	cfg := mustConfig(t, domain.DepartmentFinanceiro)

	tests := []struct {
		from, to domain.TicketStatus
		want     bool
	}{
		{domain.TicketStatusAwaitingTriage, domain.TicketStatusPrioritized, true},
		{domain.TicketStatusAwaitingTriage, domain.TicketStatusInProgress, true},
		{domain.TicketStatusAwaitingTriage, domain.TicketStatusCancelled, true},
		{domain.TicketStatusAwaitingTriage, domain.TicketStatusResolved, false},
		{domain.TicketStatusPrioritized, domain.TicketStatusInProgress, true},
		{domain.TicketStatusInProgress, domain.TicketStatusResolved, true},
		{domain.TicketStatusResolved, domain.TicketStatusClosed, true},
		{domain.TicketStatusResolved, domain.TicketStatusInProgress, true},
		{domain.TicketStatusClosed, domain.TicketStatusInProgress, false},
		{domain.TicketStatusCancelled, domain.TicketStatusAwaitingTriage, false},
		{domain.TicketStatusDenied, domain.TicketStatusAwaitingTriage, false},
		// self transition is never in the table
		{domain.TicketStatusInProgress, domain.TicketStatusInProgress, false},
		// the approval segment walks strictly upward
		{domain.TicketStatusAwaitingApprovalEncarregado, domain.TicketStatusAwaitingApprovalSupervisor, true},
		{domain.TicketStatusAwaitingApprovalEncarregado, domain.TicketStatusDenied, true},
		{domain.TicketStatusAwaitingApprovalEncarregado, domain.TicketStatusAwaitingApprovalGerente, false},
		{domain.TicketStatusAwaitingApprovalEncarregado, domain.TicketStatusAwaitingTriage, false},
		{domain.TicketStatusAwaitingApprovalGerente, domain.TicketStatusAwaitingTriage, true},
		{domain.TicketStatusAwaitingApprovalGerente, domain.TicketStatusDenied, true},
	}
	for _, tt := range tests {
		if got := cfg.CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestAllowedTransitionsUnknownStatus(t *testing.T) {
	cfg := mustConfig(t, domain.DepartmentComercial)

	if got := cfg.AllowedTransitions(domain.TicketStatus("bogus")); len(got) != 0 {
		t.Errorf("unknown status should allow nothing, got %v", got)
	}
	// comercial has no hierarchy, so approval statuses are unknown to it
	if got := cfg.AllowedTransitions(domain.TicketStatusAwaitingApprovalGerente); len(got) != 0 {
		t.Errorf("foreign approval status should allow nothing, got %v", got)
	}
}

func TestAllowedTransitionsReturnsCopy(t *testing.T) {
	cfg := mustConfig(t, domain.DepartmentFinanceiro)

	first := cfg.AllowedTransitions(domain.TicketStatusAwaitingTriage)
	first[0] = domain.TicketStatusClosed
	second := cfg.AllowedTransitions(domain.TicketStatusAwaitingTriage)
	if second[0] == domain.TicketStatusClosed {
		t.Error("mutating the returned slice leaked into the table")
	}
}

func TestLabels(t *testing.T) {
	cfg := mustConfig(t, domain.DepartmentFinanceiro)

	tests := []struct {
		status domain.TicketStatus
		want   string
	}{
		{domain.TicketStatusAwaitingTriage, "Aguardando Triagem"},
		{domain.TicketStatusAwaitingApprovalSupervisor, "Aguardando Aprovação - Supervisor"},
		{domain.TicketStatusDenied, "Negado"},
		{domain.TicketStatus("bogus"), "bogus"},
	}
	for _, tt := range tests {
		if got := cfg.Label(tt.status); got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestKnows(t *testing.T) {
	ti := mustConfig(t, domain.DepartmentTI)

	if !ti.Knows(domain.TicketStatusAwaitingApprovalGerente) {
		t.Error("ti should know its own approval status")
	}
	if ti.Knows(domain.TicketStatusAwaitingApprovalSupervisor) {
		t.Error("ti has no supervisor level")
	}
}
