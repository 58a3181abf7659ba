package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/andomingos87/garageinn-helpdesk/internal/auth"
	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
	"github.com/andomingos87/garageinn-helpdesk/internal/repository"
	"github.com/andomingos87/garageinn-helpdesk/internal/workflow"
	apperrors "github.com/andomingos87/garageinn-helpdesk/pkg/util/errorutil"
)

// OrgHandler exposes departments, units and memberships.
type OrgHandler struct {
	departments repository.DepartmentRepository
	units       repository.UnitRepository
	memberships repository.MembershipRepository
}

// NewOrgHandler constructs handler.
func NewOrgHandler(departments repository.DepartmentRepository, units repository.UnitRepository, memberships repository.MembershipRepository) *OrgHandler {
	return &OrgHandler{departments: departments, units: units, memberships: memberships}
}

// ListDepartments GET /departments. Each department carries its workflow
// summary so clients can render the approval ladder without hardcoding it.
func (h *OrgHandler) ListDepartments(c *fiber.Ctx) error {
	departments, err := h.departments.List(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]fiber.Map, 0, len(departments))
	for _, dept := range departments {
		item := fiber.Map{
			"id":          dept.ID,
			"code":        dept.Code,
			"name":        dept.Name,
			"description": dept.Description,
			"is_active":   dept.IsActive,
		}
		if cfg, ok := workflow.ForDepartment(dept.Code); ok {
			item["approval_hierarchy"] = cfg.Hierarchy
			item["triage_target"] = cfg.TriageTarget
		}
		items = append(items, item)
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetDepartmentWorkflow GET /departments/:code/workflow returns the full
// transition table for one department.
func (h *OrgHandler) GetDepartmentWorkflow(c *fiber.Ctx) error {
	code := domain.DepartmentCode(c.Params("code"))
	cfg, ok := workflow.ForDepartment(code)
	if !ok {
		return apperrors.NewNotFound("department workflow", map[string]any{"code": code})
	}

	statuses := []domain.TicketStatus{
		domain.TicketStatusAwaitingTriage,
		domain.TicketStatusPrioritized,
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
		domain.TicketStatusCancelled,
		domain.TicketStatusDenied,
	}
	for _, role := range cfg.Hierarchy {
		statuses = append(statuses, domain.AwaitingApprovalStatus(role))
	}

	table := make([]fiber.Map, 0, len(statuses))
	for _, status := range statuses {
		table = append(table, fiber.Map{
			"status":      status,
			"label":       cfg.Label(status),
			"allowed":     cfg.AllowedTransitions(status),
			"is_approval": status.IsApprovalStatus(),
		})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"department":         cfg.Department,
		"approval_hierarchy": cfg.Hierarchy,
		"triage_target":      cfg.TriageTarget,
		"transitions":        table,
	}})
}

// ListUnits GET /units.
func (h *OrgHandler) ListUnits(c *fiber.Ctx) error {
	units, err := h.units.List(c.UserContext(), c.QueryBool("only_active", true))
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]fiber.Map, 0, len(units))
	for _, unit := range units {
		items = append(items, fiber.Map{
			"id":        unit.ID,
			"name":      unit.Name,
			"city":      unit.City,
			"is_active": unit.IsActive,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListMyMemberships GET /memberships/me.
func (h *OrgHandler) ListMyMemberships(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	memberships, err := h.memberships.ListByUser(c.UserContext(), principal.User.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]fiber.Map, 0, len(memberships))
	for _, m := range memberships {
		items = append(items, fiber.Map{
			"id":            m.ID,
			"department_id": m.DepartmentID,
			"unit_id":       m.UnitID,
			"role":          m.Role,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateMembership POST /memberships. Admin only, enforced by the router.
func (h *OrgHandler) CreateMembership(c *fiber.Ctx) error {
	var req struct {
		UserID       string      `json:"user_id"`
		DepartmentID string      `json:"department_id"`
		UnitID       *string     `json:"unit_id"`
		Role         domain.Role `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" || req.DepartmentID == "" {
		return apperrors.NewValidationError("user_id and department_id are required", nil)
	}
	switch req.Role {
	case domain.RoleColaborador, domain.RoleEncarregado, domain.RoleSupervisor, domain.RoleGerente, domain.RoleAdmin:
	default:
		return apperrors.NewValidationError("unknown role", map[string]any{"role": req.Role})
	}
	if _, err := h.departments.GetByID(c.UserContext(), req.DepartmentID); err != nil {
		return apperrors.MapError(err)
	}

	membership := &domain.Membership{
		UserID:       req.UserID,
		DepartmentID: req.DepartmentID,
		UnitID:       req.UnitID,
		Role:         req.Role,
	}
	if err := h.memberships.Create(c.UserContext(), membership); err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"id":            membership.ID,
		"user_id":       membership.UserID,
		"department_id": membership.DepartmentID,
		"unit_id":       membership.UnitID,
		"role":          membership.Role,
	}})
}
