package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/andomingos87/garageinn-helpdesk/internal/api/http/handlers"
	"github.com/andomingos87/garageinn-helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Approvals      *handlers.ApprovalsHandler
	Comments       *handlers.CommentsHandler
	Org            *handlers.OrgHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/change-password", cfg.AuthMiddleware.Handle, auth.RequireAuth(), cfg.Users.ChangePassword)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAuth())

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/status", cfg.Tickets.Transition)
	tickets.Post("/:id/triage", cfg.Tickets.Triage)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)

	tickets.Get("/:id/approvals", cfg.Approvals.ListApprovals)
	tickets.Post("/:id/approvals/:approvalID/decision", cfg.Approvals.Decide)

	tickets.Post("/:id/comments", cfg.Comments.AddComment)
	tickets.Get("/:id/comments", cfg.Comments.ListComments)

	tickets.Post("/:id/attachments", cfg.Tickets.AddAttachment)
	tickets.Get("/:id/attachments", cfg.Tickets.ListAttachments)

	api.Get("/departments", cfg.Org.ListDepartments)
	api.Get("/departments/:code/workflow", cfg.Org.GetDepartmentWorkflow)
	api.Get("/units", cfg.Org.ListUnits)
	api.Get("/memberships/me", cfg.Org.ListMyMemberships)
	api.Post("/memberships", auth.RequireAdmin(), cfg.Org.CreateMembership)
}
