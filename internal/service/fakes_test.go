package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
	"github.com/andomingos87/garageinn-helpdesk/internal/events"
	"github.com/andomingos87/garageinn-helpdesk/internal/repository"
)

// memStore is an in-memory stand-in for the postgres repositories. It
// reproduces the guard semantics of the real ones: conditional updates
// fail with ErrStaleStatus / ErrAlreadyDecided instead of silently
// applying.
type memStore struct {
	mu        sync.Mutex
	seq       int
	tickets   map[string]*domain.Ticket
	approvals map[string]*domain.Approval
	history   []*domain.TicketHistory
}

func newMemStore() *memStore {
	return &memStore{
		tickets:   make(map[string]*domain.Ticket),
		approvals: make(map[string]*domain.Approval),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) CreateWithChain(ctx context.Context, ticket *domain.Ticket, approvals []*domain.Approval, entry *domain.TicketHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var number int64
	for _, existing := range s.tickets {
		sameScope := (existing.UnitID == nil && ticket.UnitID == nil) ||
			(existing.UnitID != nil && ticket.UnitID != nil && *existing.UnitID == *ticket.UnitID)
		if sameScope && existing.TicketNumber > number {
			number = existing.TicketNumber
		}
	}

	now := time.Now()
	ticket.ID = s.nextID("ticket")
	ticket.TicketNumber = number + 1
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	s.tickets[ticket.ID] = ticket

	for _, approval := range approvals {
		approval.ID = s.nextID("approval")
		approval.TicketID = ticket.ID
		approval.CreatedAt = now
		approval.UpdatedAt = now
		s.approvals[approval.ID] = approval
	}
	if entry != nil {
		entry.ID = s.nextID("history")
		entry.TicketID = ticket.ID
		entry.CreatedAt = now
		s.history = append(s.history, entry)
	}
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (s *memStore) UpdateStatusGuarded(ctx context.Context, update repository.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[update.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}
	if ticket.Status != update.From {
		return repository.ErrStaleStatus
	}
	ticket.Status = update.To
	if update.Priority != nil {
		ticket.Priority = update.Priority
	}
	if update.AssignedTo != nil {
		ticket.AssignedTo = update.AssignedTo
	}
	if update.DueDate != nil {
		ticket.DueDate = update.DueDate
	}
	if update.ResolvedAt != nil {
		ticket.ResolvedAt = update.ResolvedAt
	}
	if update.ClosedAt != nil {
		ticket.ClosedAt = update.ClosedAt
	}
	if update.DenialReason != nil {
		ticket.DenialReason = update.DenialReason
	}
	ticket.UpdatedAt = time.Now()
	s.appendHistory(update.TicketID, update.History)
	return nil
}

func (s *memStore) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Ticket, 0, len(s.tickets))
	for _, ticket := range s.tickets {
		if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.DepartmentID != nil && ticket.DepartmentID != *filter.DepartmentID {
			continue
		}
		out = append(out, *ticket)
	}
	return out, nil
}

func (s *memStore) GetApprovalByID(ctx context.Context, id string) (*domain.Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	approval, ok := s.approvals[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *approval
	return &clone, nil
}

func (s *memStore) ListApprovalsByTicket(ctx context.Context, ticketID string) ([]domain.Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Approval, 0)
	for level := 1; level <= len(s.approvals); level++ {
		for _, approval := range s.approvals {
			if approval.TicketID == ticketID && approval.ApprovalLevel == level {
				out = append(out, *approval)
			}
		}
	}
	return out, nil
}

func (s *memStore) DecideGuarded(ctx context.Context, decision repository.ApprovalDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	approval, ok := s.approvals[decision.ApprovalID]
	if !ok {
		return pgx.ErrNoRows
	}
	if approval.Status != domain.ApprovalStatusPending {
		return repository.ErrAlreadyDecided
	}
	ticket, ok := s.tickets[decision.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}
	if ticket.Status != decision.TicketFrom {
		return repository.ErrStaleStatus
	}

	approval.Status = decision.Status
	approval.ApprovedBy = &decision.ApprovedBy
	at := decision.DecisionAt
	approval.DecisionAt = &at
	approval.Notes = decision.Notes
	approval.UpdatedAt = time.Now()

	ticket.Status = decision.TicketTo
	if decision.DenialReason != nil {
		ticket.DenialReason = decision.DenialReason
	}
	ticket.UpdatedAt = time.Now()
	s.appendHistory(decision.TicketID, decision.History)
	return nil
}

func (s *memStore) appendHistory(ticketID string, entries []*domain.TicketHistory) {
	for _, entry := range entries {
		entry.ID = s.nextID("history")
		entry.TicketID = ticketID
		entry.CreatedAt = time.Now()
		s.history = append(s.history, entry)
	}
}

func (s *memStore) historyActions(ticketID string) []domain.TicketAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TicketAction, 0)
	for _, entry := range s.history {
		if entry.TicketID == ticketID {
			out = append(out, entry.Action)
		}
	}
	return out
}

// approvalRepoAdapter exposes the store under the ApprovalRepository
// method names.
type approvalRepoAdapter struct{ store *memStore }

func (a approvalRepoAdapter) GetByID(ctx context.Context, id string) (*domain.Approval, error) {
	return a.store.GetApprovalByID(ctx, id)
}

func (a approvalRepoAdapter) ListByTicket(ctx context.Context, ticketID string) ([]domain.Approval, error) {
	return a.store.ListApprovalsByTicket(ctx, ticketID)
}

func (a approvalRepoAdapter) DecideGuarded(ctx context.Context, decision repository.ApprovalDecision) error {
	return a.store.DecideGuarded(ctx, decision)
}

type historyRepoAdapter struct{ store *memStore }

func (a historyRepoAdapter) Create(ctx context.Context, entry *domain.TicketHistory) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	entry.ID = a.store.nextID("history")
	entry.CreatedAt = time.Now()
	a.store.history = append(a.store.history, entry)
	return nil
}

func (a historyRepoAdapter) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	out := make([]domain.TicketHistory, 0)
	for _, entry := range a.store.history {
		if entry.TicketID == ticketID {
			out = append(out, *entry)
		}
	}
	return out, nil
}

type fakeAttachments struct {
	seq  int
	rows []domain.Attachment
}

func (f *fakeAttachments) Create(ctx context.Context, attachment *domain.Attachment) error {
	f.seq++
	attachment.ID = fmt.Sprintf("attachment-%d", f.seq)
	attachment.CreatedAt = time.Now()
	f.rows = append(f.rows, *attachment)
	return nil
}

func (f *fakeAttachments) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	out := make([]domain.Attachment, 0)
	for _, attachment := range f.rows {
		if attachment.TicketID == ticketID {
			out = append(out, attachment)
		}
	}
	return out, nil
}

// fakeDepartments serves a fixed department set keyed by ID.
type fakeDepartments struct {
	byID map[string]*domain.Department
}

func newFakeDepartments(departments ...*domain.Department) *fakeDepartments {
	f := &fakeDepartments{byID: make(map[string]*domain.Department)}
	for _, dept := range departments {
		f.byID[dept.ID] = dept
	}
	return f
}

func (f *fakeDepartments) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	dept, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return dept, nil
}

func (f *fakeDepartments) GetByCode(ctx context.Context, code domain.DepartmentCode) (*domain.Department, error) {
	for _, dept := range f.byID {
		if dept.Code == code {
			return dept, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeDepartments) List(ctx context.Context) ([]domain.Department, error) {
	out := make([]domain.Department, 0, len(f.byID))
	for _, dept := range f.byID {
		out = append(out, *dept)
	}
	return out, nil
}

type fakeUnits struct {
	byID map[string]*domain.Unit
}

func (f *fakeUnits) GetByID(ctx context.Context, id string) (*domain.Unit, error) {
	unit, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return unit, nil
}

func (f *fakeUnits) List(ctx context.Context, onlyActive bool) ([]domain.Unit, error) {
	out := make([]domain.Unit, 0, len(f.byID))
	for _, unit := range f.byID {
		out = append(out, *unit)
	}
	return out, nil
}

// fakeRoles resolves actor roles from a user map; absent users are plain
// colaboradores, mirroring the membership lookup.
type fakeRoles struct {
	roles map[string]domain.Role
}

func (f *fakeRoles) GetActorRole(ctx context.Context, userID, departmentID string) (domain.Role, error) {
	if role, ok := f.roles[userID]; ok {
		return role, nil
	}
	return domain.RoleColaborador, nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, event := range d.events {
		out = append(out, event.Type)
	}
	return out
}
