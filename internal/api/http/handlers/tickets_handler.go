package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/andomingos87/garageinn-helpdesk/internal/api/dto"
	"github.com/andomingos87/garageinn-helpdesk/internal/auth"
	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
	"github.com/andomingos87/garageinn-helpdesk/internal/service"
	apperrors "github.com/andomingos87/garageinn-helpdesk/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets  *service.TicketService
	triage   *service.TriageService
	comments *service.CommentService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, triage *service.TriageService, comments *service.CommentService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, triage: triage, comments: comments}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		DepartmentID:     req.DepartmentID,
		CategoryID:       req.CategoryID,
		UnitID:           req.UnitID,
		Title:            req.Title,
		Description:      req.Description,
		PerceivedUrgency: req.PerceivedUrgency,
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), principal.Actor(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.summary(c, ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseTicketQuery(c)
	tickets, err := h.tickets.ListTickets(c.UserContext(), principal.Actor(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, h.summary(c, &tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, approvals, err := h.tickets.GetTicket(c.UserContext(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	count, err := h.comments.CountComments(c.UserContext(), ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.detail(c, ticket, approvals, count)})
}

// Transition POST /tickets/:id/status.
func (h *TicketsHandler) Transition(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	ticket, err := h.tickets.Transition(c.UserContext(), principal.Actor(), c.Params("id"), req.Status, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.summary(c, ticket)})
}

// Triage POST /tickets/:id/triage.
func (h *TicketsHandler) Triage(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TriageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.TriageInput{
		Priority:   req.Priority,
		AssignedTo: req.AssignedTo,
		DueDate:    req.DueDate,
	}
	ticket, err := h.triage.Triage(c.UserContext(), principal.Actor(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.summary(c, ticket)})
}

// AddAttachment POST /tickets/:id/attachments.
func (h *TicketsHandler) AddAttachment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	attachment, err := h.tickets.AddAttachment(c.UserContext(), principal.Actor(), c.Params("id"), service.AttachmentInput{
		StorageKey: req.StorageKey,
		FileName:   req.FileName,
		MimeType:   req.MimeType,
		SizeBytes:  req.SizeBytes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": toAttachmentResponse(*attachment)})
}

// ListAttachments GET /tickets/:id/attachments.
func (h *TicketsHandler) ListAttachments(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	attachments, err := h.tickets.ListAttachments(c.UserContext(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AttachmentResponse, 0, len(attachments))
	for _, attachment := range attachments {
		items = append(items, toAttachmentResponse(attachment))
	}
	return c.JSON(fiber.Map{"data": items})
}

func toAttachmentResponse(attachment domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:         attachment.ID,
		TicketID:   attachment.TicketID,
		StorageKey: attachment.StorageKey,
		FileName:   attachment.FileName,
		MimeType:   attachment.MimeType,
		SizeBytes:  attachment.SizeBytes,
		UploadedBy: attachment.UploadedBy,
		CreatedAt:  attachment.CreatedAt,
	}
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	history, err := h.tickets.ListHistory(c.UserContext(), principal.Actor(), c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.HistoryEntryResponse, 0, len(history))
	for _, entry := range history {
		items = append(items, dto.HistoryEntryResponse{
			ID:        entry.ID,
			Action:    entry.Action,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			CreatedBy: entry.CreatedBy,
			CreatedAt: entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *TicketsHandler) summary(c *fiber.Ctx, ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:           ticket.ID,
		TicketNumber: ticket.TicketNumber,
		Title:        ticket.Title,
		DepartmentID: ticket.DepartmentID,
		UnitID:       ticket.UnitID,
		Status:       ticket.Status,
		StatusLabel:  h.tickets.StatusLabelForTicket(c.UserContext(), ticket),
		Priority:     ticket.Priority,
		AssignedTo:   ticket.AssignedTo,
		CreatedBy:    ticket.CreatedBy,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

func (h *TicketsHandler) detail(c *fiber.Ctx, ticket *domain.Ticket, approvals []domain.Approval, commentCount int64) dto.TicketDetailResponse {
	chain := make([]dto.ApprovalResponse, 0, len(approvals))
	for _, approval := range approvals {
		chain = append(chain, dto.ApprovalResponse{
			ID:            approval.ID,
			ApprovalLevel: approval.ApprovalLevel,
			ApprovalRole:  approval.ApprovalRole,
			Status:        approval.Status,
			ApprovedBy:    approval.ApprovedBy,
			DecisionAt:    approval.DecisionAt,
			Notes:         approval.Notes,
		})
	}
	return dto.TicketDetailResponse{
		TicketSummary:    h.summary(c, ticket),
		Description:      ticket.Description,
		CategoryID:       ticket.CategoryID,
		PerceivedUrgency: ticket.PerceivedUrgency,
		DueDate:          ticket.DueDate,
		ResolvedAt:       ticket.ResolvedAt,
		ClosedAt:         ticket.ClosedAt,
		DenialReason:     ticket.DenialReason,
		CommentCount:     commentCount,
		Approvals:        chain,
	}
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if v := c.Query("department_id"); v != "" {
		filter.DepartmentID = &v
	}
	if v := c.Query("unit_id"); v != "" {
		filter.UnitID = &v
	}
	if v := c.Query("assigned_to"); v != "" {
		filter.AssignedTo = &v
	}
	if v := c.Query("created_by"); v != "" {
		filter.CreatedBy = &v
	}
	if v := c.Query("search"); v != "" {
		filter.SearchTerm = &v
	}
	for _, raw := range splitQuery(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(raw))
	}
	for _, raw := range splitQuery(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.TicketPriority(raw))
	}
	if v := c.Query("created_from"); v != "" {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			filter.CreatedFrom = &parsed
		}
	}
	if v := c.Query("created_to"); v != "" {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			filter.CreatedTo = &parsed
		}
	}
	return filter
}

func splitQuery(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
