package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
	"github.com/andomingos87/garageinn-helpdesk/internal/events"
	"github.com/andomingos87/garageinn-helpdesk/internal/repository"
	"github.com/andomingos87/garageinn-helpdesk/internal/workflow"
	apperrors "github.com/andomingos87/garageinn-helpdesk/pkg/util/errorutil"
)

type testEnv struct {
	store      *memStore
	dispatcher *recordingDispatcher
	roles      *fakeRoles
	tickets    *TicketService
	approvals  *ApprovalService
	triage     *TriageService
	financeiro *domain.Department
	comercial  *domain.Department
	ti         *domain.Department
}

func newTestEnv() *testEnv {
	store := newMemStore()
	dispatcher := &recordingDispatcher{}
	roles := &fakeRoles{roles: map[string]domain.Role{}}

	financeiro := &domain.Department{ID: "dept-fin", Code: domain.DepartmentFinanceiro, Name: "Financeiro", IsActive: true}
	comercial := &domain.Department{ID: "dept-com", Code: domain.DepartmentComercial, Name: "Comercial", IsActive: true}
	ti := &domain.Department{ID: "dept-ti", Code: domain.DepartmentTI, Name: "TI", IsActive: true}
	departments := newFakeDepartments(financeiro, comercial, ti)
	units := &fakeUnits{byID: map[string]*domain.Unit{
		"unit-1": {ID: "unit-1", Name: "Garagem Centro", IsActive: true},
		"unit-2": {ID: "unit-2", Name: "Garagem Sul", IsActive: false},
	}}

	approvalRepo := approvalRepoAdapter{store: store}
	historyRepo := historyRepoAdapter{store: store}

	tickets := NewTicketService(TicketDependencies{
		TicketRepo:     store,
		ApprovalRepo:   approvalRepo,
		DepartmentRepo: departments,
		UnitRepo:       units,
		HistoryRepo:    historyRepo,
		AttachmentRepo: &fakeAttachments{},
		Roles:          roles,
		Dispatcher:     dispatcher,
	})
	approvals := NewApprovalService(ApprovalDependencies{
		TicketRepo:     store,
		ApprovalRepo:   approvalRepo,
		DepartmentRepo: departments,
		Roles:          roles,
		Dispatcher:     dispatcher,
	})
	triage := NewTriageService(tickets, store, roles, dispatcher)

	return &testEnv{
		store:      store,
		dispatcher: dispatcher,
		roles:      roles,
		tickets:    tickets,
		approvals:  approvals,
		triage:     triage,
		financeiro: financeiro,
		comercial:  comercial,
		ti:         ti,
	}
}

func (e *testEnv) createTicket(t *testing.T, actor workflow.Actor, departmentID string) *domain.Ticket {
	t.Helper()
	ticket, err := e.tickets.CreateTicket(context.Background(), actor, TicketCreateInput{
		DepartmentID: departmentID,
		Title:        "Reembolso de viagem",
		Description:  "Notas fiscais anexas",
	})
	require.NoError(t, err)
	return ticket
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, code), "expected code %s, got %v", code, err)
}

func TestCreateTicketFullChain(t *testing.T) {
	env := newTestEnv()
	actor := workflow.Actor{UserID: "user-colab"}

	ticket := env.createTicket(t, actor, env.financeiro.ID)

	assert.Equal(t, domain.TicketStatusAwaitingApprovalEncarregado, ticket.Status)
	assert.Equal(t, int64(1), ticket.TicketNumber)

	chain, err := env.store.ListApprovalsByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, []domain.Role{domain.RoleEncarregado, domain.RoleSupervisor, domain.RoleGerente},
		[]domain.Role{chain[0].ApprovalRole, chain[1].ApprovalRole, chain[2].ApprovalRole})
	for i, approval := range chain {
		assert.Equal(t, i+1, approval.ApprovalLevel)
		assert.Equal(t, domain.ApprovalStatusPending, approval.Status)
	}
	assert.Equal(t, []domain.TicketAction{domain.ActionCreated}, env.store.historyActions(ticket.ID))
	assert.Equal(t, []events.EventType{events.EventTicketCreated}, env.dispatcher.types())
}

func TestCreateTicketChainIsRenumbered(t *testing.T) {
	env := newTestEnv()
	env.roles.roles["user-sup"] = domain.RoleSupervisor

	ticket := env.createTicket(t, workflow.Actor{UserID: "user-sup"}, env.financeiro.ID)

	assert.Equal(t, domain.TicketStatusAwaitingApprovalGerente, ticket.Status)
	chain, err := env.store.ListApprovalsByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, chain, 1)
	// excluded lower levels leave no gap: the remaining level is 1
	assert.Equal(t, 1, chain[0].ApprovalLevel)
	assert.Equal(t, domain.RoleGerente, chain[0].ApprovalRole)
}

func TestCreateTicketTopOfHierarchyAutoApproves(t *testing.T) {
	env := newTestEnv()
	env.roles.roles["user-ger"] = domain.RoleGerente

	ticket := env.createTicket(t, workflow.Actor{UserID: "user-ger"}, env.financeiro.ID)

	assert.Equal(t, domain.TicketStatusAwaitingTriage, ticket.Status)
	chain, err := env.store.ListApprovalsByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestCreateTicketNoHierarchyDepartment(t *testing.T) {
	env := newTestEnv()

	ticket := env.createTicket(t, workflow.Actor{UserID: "anyone"}, env.comercial.ID)

	assert.Equal(t, domain.TicketStatusAwaitingTriage, ticket.Status)
}

func TestCreateTicketAdminStillNeedsChain(t *testing.T) {
	env := newTestEnv()
	env.roles.roles["user-admin"] = domain.RoleAdmin

	ticket := env.createTicket(t, workflow.Actor{UserID: "user-admin", IsAdmin: true}, env.financeiro.ID)

	// admin holds no hierarchy rank, so the full chain applies
	assert.Equal(t, domain.TicketStatusAwaitingApprovalEncarregado, ticket.Status)
}

func TestCreateTicketValidation(t *testing.T) {
	env := newTestEnv()
	actor := workflow.Actor{UserID: "user-1"}
	ctx := context.Background()

	_, err := env.tickets.CreateTicket(ctx, actor, TicketCreateInput{DepartmentID: env.financeiro.ID, Title: "  ", Description: "x"})
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = env.tickets.CreateTicket(ctx, actor, TicketCreateInput{DepartmentID: "missing", Title: "a", Description: "b"})
	assertCode(t, err, "NOT_FOUND")

	bad := domain.TicketPriority("extreme")
	_, err = env.tickets.CreateTicket(ctx, actor, TicketCreateInput{DepartmentID: env.financeiro.ID, Title: "a", Description: "b", PerceivedUrgency: &bad})
	assertCode(t, err, "VALIDATION_FAILED")

	inactive := "unit-2"
	_, err = env.tickets.CreateTicket(ctx, actor, TicketCreateInput{DepartmentID: env.financeiro.ID, Title: "a", Description: "b", UnitID: &inactive})
	assertCode(t, err, "CONFLICT")
}

func TestTicketNumberSequencePerUnit(t *testing.T) {
	env := newTestEnv()
	actor := workflow.Actor{UserID: "user-1"}
	ctx := context.Background()
	unit := "unit-1"

	first, err := env.tickets.CreateTicket(ctx, actor, TicketCreateInput{DepartmentID: env.comercial.ID, Title: "a", Description: "b", UnitID: &unit})
	require.NoError(t, err)
	second, err := env.tickets.CreateTicket(ctx, actor, TicketCreateInput{DepartmentID: env.comercial.ID, Title: "c", Description: "d", UnitID: &unit})
	require.NoError(t, err)
	global, err := env.tickets.CreateTicket(ctx, actor, TicketCreateInput{DepartmentID: env.comercial.ID, Title: "e", Description: "f"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.TicketNumber)
	assert.Equal(t, int64(2), second.TicketNumber)
	assert.Equal(t, int64(1), global.TicketNumber)
}

func TestTransitionHappyPath(t *testing.T) {
	env := newTestEnv()
	creator := workflow.Actor{UserID: "user-1"}
	ticket := env.createTicket(t, creator, env.comercial.ID)
	ctx := context.Background()

	updated, err := env.tickets.Transition(ctx, creator, ticket.ID, domain.TicketStatusInProgress, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)

	updated, err = env.tickets.Transition(ctx, creator, ticket.ID, domain.TicketStatusResolved, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, updated.Status)
	require.NotNil(t, updated.ResolvedAt)

	updated, err = env.tickets.Transition(ctx, creator, ticket.ID, domain.TicketStatusClosed, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, updated.Status)
	require.NotNil(t, updated.ClosedAt)
}

func TestTransitionRejectsIllegalEdge(t *testing.T) {
	env := newTestEnv()
	creator := workflow.Actor{UserID: "user-1"}
	ticket := env.createTicket(t, creator, env.comercial.ID)

	_, err := env.tickets.Transition(context.Background(), creator, ticket.ID, domain.TicketStatusResolved, "")
	assertCode(t, err, "ILLEGAL_TRANSITION")
}

func TestTransitionRejectsApprovalSegment(t *testing.T) {
	env := newTestEnv()
	creator := workflow.Actor{UserID: "user-1"}
	ticket := env.createTicket(t, creator, env.financeiro.ID)

	// statuses in the approval segment only move through decisions, even
	// for edges present in the table
	_, err := env.tickets.Transition(context.Background(), creator, ticket.ID, domain.TicketStatusAwaitingApprovalSupervisor, "")
	assertCode(t, err, "ILLEGAL_TRANSITION")

	admin := workflow.Actor{UserID: "root", IsAdmin: true}
	_, err = env.tickets.Transition(context.Background(), admin, ticket.ID, domain.TicketStatusDenied, "sem verba")
	assertCode(t, err, "ILLEGAL_TRANSITION")
}

func TestTransitionTerminalStatusIsFinal(t *testing.T) {
	env := newTestEnv()
	creator := workflow.Actor{UserID: "user-1"}
	ticket := env.createTicket(t, creator, env.comercial.ID)
	ctx := context.Background()

	_, err := env.tickets.Transition(ctx, creator, ticket.ID, domain.TicketStatusCancelled, "")
	require.NoError(t, err)

	_, err = env.tickets.Transition(ctx, creator, ticket.ID, domain.TicketStatusInProgress, "")
	assertCode(t, err, "ILLEGAL_TRANSITION")
}

func TestTransitionPermissions(t *testing.T) {
	env := newTestEnv()
	creator := workflow.Actor{UserID: "user-1"}
	ticket := env.createTicket(t, creator, env.comercial.ID)
	ctx := context.Background()

	// an unrelated colaborador cannot touch the ticket
	_, err := env.tickets.Transition(ctx, workflow.Actor{UserID: "stranger"}, ticket.ID, domain.TicketStatusInProgress, "")
	assertCode(t, err, "FORBIDDEN")

	// a department member with a rank can
	env.roles.roles["sup-1"] = domain.RoleSupervisor
	_, err = env.tickets.Transition(ctx, workflow.Actor{UserID: "sup-1"}, ticket.ID, domain.TicketStatusInProgress, "")
	require.NoError(t, err)
}

func TestGuardedUpdateLosesRace(t *testing.T) {
	env := newTestEnv()
	creator := workflow.Actor{UserID: "user-1"}
	ticket := env.createTicket(t, creator, env.comercial.ID)
	ctx := context.Background()

	// two writers read awaiting_triage; only the first guarded update
	// applies, the second sees a stale status
	require.NoError(t, env.store.UpdateStatusGuarded(ctx, repository.StatusUpdate{
		TicketID: ticket.ID,
		From:     domain.TicketStatusAwaitingTriage,
		To:       domain.TicketStatusInProgress,
	}))
	err := env.store.UpdateStatusGuarded(ctx, repository.StatusUpdate{
		TicketID: ticket.ID,
		From:     domain.TicketStatusAwaitingTriage,
		To:       domain.TicketStatusPrioritized,
	})
	assert.ErrorIs(t, err, repository.ErrStaleStatus)

	mapped := mapGuardedError(err, "ticket", ticket.ID)
	assert.True(t, apperrors.IsCode(mapped, "CONCURRENCY_CONFLICT"))
}

func TestGetTicketIncludesChain(t *testing.T) {
	env := newTestEnv()
	creator := workflow.Actor{UserID: "user-1"}
	ticket := env.createTicket(t, creator, env.financeiro.ID)

	got, chain, err := env.tickets.GetTicket(context.Background(), creator, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)
	assert.Len(t, chain, 3)

	_, _, err = env.tickets.GetTicket(context.Background(), creator, "missing")
	assertCode(t, err, "NOT_FOUND")
}

func TestAttachments(t *testing.T) {
	env := newTestEnv()
	creator := workflow.Actor{UserID: "user-1"}
	ticket := env.createTicket(t, creator, env.comercial.ID)
	ctx := context.Background()

	_, err := env.tickets.AddAttachment(ctx, creator, ticket.ID, AttachmentInput{FileName: "nota.pdf"})
	assertCode(t, err, "VALIDATION_FAILED")

	attachment, err := env.tickets.AddAttachment(ctx, creator, ticket.ID, AttachmentInput{
		StorageKey: "uploads/nota.pdf",
		FileName:   "nota.pdf",
		MimeType:   "application/pdf",
		SizeBytes:  2048,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, attachment.ID)

	list, err := env.tickets.ListAttachments(ctx, creator, ticket.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "nota.pdf", list[0].FileName)

	_, err = env.tickets.ListAttachments(ctx, creator, "missing")
	assertCode(t, err, "NOT_FOUND")
}

func TestStatusLabelForTicket(t *testing.T) {
	env := newTestEnv()
	creator := workflow.Actor{UserID: "user-1"}
	ticket := env.createTicket(t, creator, env.financeiro.ID)

	label := env.tickets.StatusLabelForTicket(context.Background(), ticket)
	assert.Equal(t, "Aguardando Aprovação - Encarregado", label)
}
