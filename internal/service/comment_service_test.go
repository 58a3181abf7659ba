package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
	"github.com/andomingos87/garageinn-helpdesk/internal/workflow"
)

type fakeComments struct {
	seq      int
	comments []domain.Comment
}

func (f *fakeComments) Create(ctx context.Context, comment *domain.Comment) error {
	f.seq++
	comment.ID = fmt.Sprintf("comment-%d", f.seq)
	comment.CreatedAt = time.Now()
	f.comments = append(f.comments, *comment)
	return nil
}

func (f *fakeComments) ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.Comment, error) {
	out := make([]domain.Comment, 0)
	for _, comment := range f.comments {
		if comment.TicketID != ticketID {
			continue
		}
		if comment.IsInternal && !includeInternal {
			continue
		}
		out = append(out, comment)
	}
	return out, nil
}

func (f *fakeComments) CountByTicket(ctx context.Context, ticketID string) (int64, error) {
	var count int64
	for _, comment := range f.comments {
		if comment.TicketID == ticketID {
			count++
		}
	}
	return count, nil
}

func newCommentEnv(t *testing.T) (*testEnv, *CommentService, *domain.Ticket) {
	t.Helper()
	env := newTestEnv()
	repo := &fakeComments{}
	svc := NewCommentService(repo, env.store, historyRepoAdapter{store: env.store}, env.roles, nil, env.dispatcher, zap.NewNop())
	ticket := env.createTicket(t, workflow.Actor{UserID: "user-1"}, env.comercial.ID)
	return env, svc, ticket
}

func TestAddCommentAndCount(t *testing.T) {
	env, svc, ticket := newCommentEnv(t)
	ctx := context.Background()

	comment, err := svc.AddComment(ctx, workflow.Actor{UserID: "user-1"}, ticket.ID, "algum detalhe", false)
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)

	count, err := svc.CountComments(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	actions := env.store.historyActions(ticket.ID)
	assert.Equal(t, domain.ActionCommented, actions[len(actions)-1])
}

func TestAddCommentValidation(t *testing.T) {
	_, svc, ticket := newCommentEnv(t)
	ctx := context.Background()

	_, err := svc.AddComment(ctx, workflow.Actor{UserID: "user-1"}, ticket.ID, "   ", false)
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = svc.AddComment(ctx, workflow.Actor{UserID: "user-1"}, "missing", "x", false)
	assertCode(t, err, "NOT_FOUND")
}

func TestInternalCommentsRequireRank(t *testing.T) {
	env, svc, ticket := newCommentEnv(t)
	ctx := context.Background()

	_, err := svc.AddComment(ctx, workflow.Actor{UserID: "user-1"}, ticket.ID, "nota interna", true)
	assertCode(t, err, "FORBIDDEN")

	env.roles.roles["sup-1"] = domain.RoleSupervisor
	_, err = svc.AddComment(ctx, workflow.Actor{UserID: "sup-1"}, ticket.ID, "nota interna", true)
	require.NoError(t, err)

	// the colaborador who opened the ticket does not see internal notes
	visible, err := svc.ListComments(ctx, workflow.Actor{UserID: "user-1"}, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := svc.ListComments(ctx, workflow.Actor{UserID: "sup-1"}, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
