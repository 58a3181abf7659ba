package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/andomingos87/garageinn-helpdesk/internal/api/dto"
	"github.com/andomingos87/garageinn-helpdesk/internal/auth"
	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
	"github.com/andomingos87/garageinn-helpdesk/internal/service"
	apperrors "github.com/andomingos87/garageinn-helpdesk/pkg/util/errorutil"
)

// ApprovalsHandler manages approval chain endpoints.
type ApprovalsHandler struct {
	approvals *service.ApprovalService
	tickets   *service.TicketService
}

// NewApprovalsHandler constructs handler.
func NewApprovalsHandler(approvals *service.ApprovalService, tickets *service.TicketService) *ApprovalsHandler {
	return &ApprovalsHandler{approvals: approvals, tickets: tickets}
}

// ListApprovals GET /tickets/:id/approvals.
func (h *ApprovalsHandler) ListApprovals(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	approvals, err := h.approvals.ListByTicket(c.UserContext(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ApprovalResponse, 0, len(approvals))
	for _, approval := range approvals {
		items = append(items, toApprovalResponse(approval))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Decide POST /tickets/:id/approvals/:approvalID/decision.
func (h *ApprovalsHandler) Decide(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.DecisionInput{
		TicketID:   c.Params("id"),
		ApprovalID: c.Params("approvalID"),
		Decision:   req.Decision,
		Reason:     req.Reason,
	}
	ticket, err := h.approvals.Decide(c.UserContext(), principal.Actor(), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketSummary{
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
	}})
}

func toApprovalResponse(approval domain.Approval) dto.ApprovalResponse {
	return dto.ApprovalResponse{
		ID:            approval.ID,
		ApprovalLevel: approval.ApprovalLevel,
		ApprovalRole:  approval.ApprovalRole,
		Status:        approval.Status,
		ApprovedBy:    approval.ApprovedBy,
		DecisionAt:    approval.DecisionAt,
		Notes:         approval.Notes,
	}
}
