package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
	"github.com/andomingos87/garageinn-helpdesk/internal/workflow"
)

func TestTriageAdvancesToPrioritized(t *testing.T) {
	env := newTestEnv()
	env.roles.roles["sup-1"] = domain.RoleSupervisor

	ticket := env.createTicket(t, workflow.Actor{UserID: "user-1"}, env.comercial.ID)
	require.Equal(t, domain.TicketStatusAwaitingTriage, ticket.Status)

	assignee := "tech-1"
	due := time.Now().Add(48 * time.Hour)
	updated, err := env.triage.Triage(context.Background(), workflow.Actor{UserID: "sup-1"}, ticket.ID, TriageInput{
		Priority:   domain.TicketPriorityHigh,
		AssignedTo: &assignee,
		DueDate:    &due,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusPrioritized, updated.Status)
	require.NotNil(t, updated.Priority)
	assert.Equal(t, domain.TicketPriorityHigh, *updated.Priority)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, assignee, *updated.AssignedTo)
	require.NotNil(t, updated.DueDate)

	assert.Equal(t, []domain.TicketAction{
		domain.ActionCreated,
		domain.ActionTriaged,
		domain.ActionAssigned,
	}, env.store.historyActions(ticket.ID))
}

func TestTriageTIGoesStraightToWork(t *testing.T) {
	env := newTestEnv()
	env.roles.roles["user-ger"] = domain.RoleGerente

	// gerente creator auto-approves, so the ticket is already in triage
	ticket := env.createTicket(t, workflow.Actor{UserID: "user-ger"}, env.ti.ID)
	require.Equal(t, domain.TicketStatusAwaitingTriage, ticket.Status)

	updated, err := env.triage.Triage(context.Background(), workflow.Actor{UserID: "user-ger"}, ticket.ID, TriageInput{
		Priority: domain.TicketPriorityUrgent,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
}

func TestTriageRequiresPriority(t *testing.T) {
	env := newTestEnv()
	env.roles.roles["sup-1"] = domain.RoleSupervisor
	ticket := env.createTicket(t, workflow.Actor{UserID: "user-1"}, env.comercial.ID)
	ctx := context.Background()

	_, err := env.triage.Triage(ctx, workflow.Actor{UserID: "sup-1"}, ticket.ID, TriageInput{})
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = env.triage.Triage(ctx, workflow.Actor{UserID: "sup-1"}, ticket.ID, TriageInput{Priority: domain.TicketPriority("asap")})
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestTriageRequiresRank(t *testing.T) {
	env := newTestEnv()
	ticket := env.createTicket(t, workflow.Actor{UserID: "user-1"}, env.comercial.ID)

	// even the creator cannot triage without a department rank
	_, err := env.triage.Triage(context.Background(), workflow.Actor{UserID: "user-1"}, ticket.ID, TriageInput{
		Priority: domain.TicketPriorityLow,
	})
	assertCode(t, err, "FORBIDDEN")

	// admin may
	_, err = env.triage.Triage(context.Background(), workflow.Actor{UserID: "root", IsAdmin: true}, ticket.ID, TriageInput{
		Priority: domain.TicketPriorityLow,
	})
	require.NoError(t, err)
}

func TestTriageOnlyFromAwaitingTriage(t *testing.T) {
	env := newTestEnv()
	env.roles.roles["sup-1"] = domain.RoleSupervisor
	actor := workflow.Actor{UserID: "sup-1"}
	ctx := context.Background()

	// ticket still in its approval chain
	pending := env.createTicket(t, workflow.Actor{UserID: "user-1"}, env.financeiro.ID)
	_, err := env.triage.Triage(ctx, actor, pending.ID, TriageInput{Priority: domain.TicketPriorityMedium})
	assertCode(t, err, "ILLEGAL_TRANSITION")

	// ticket already triaged
	done := env.createTicket(t, workflow.Actor{UserID: "user-1"}, env.comercial.ID)
	_, err = env.triage.Triage(ctx, actor, done.ID, TriageInput{Priority: domain.TicketPriorityMedium})
	require.NoError(t, err)
	_, err = env.triage.Triage(ctx, actor, done.ID, TriageInput{Priority: domain.TicketPriorityMedium})
	assertCode(t, err, "ILLEGAL_TRANSITION")
}

func TestTriageUnknownTicket(t *testing.T) {
	env := newTestEnv()
	_, err := env.triage.Triage(context.Background(), workflow.Actor{UserID: "sup-1"}, "missing", TriageInput{
		Priority: domain.TicketPriorityLow,
	})
	assertCode(t, err, "NOT_FOUND")
}
