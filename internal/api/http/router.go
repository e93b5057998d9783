package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	AgentTickets   *handlers.AgentTicketsHandler
	Breaks         *handlers.BreaksHandler
	Chat           *handlers.ChatHandler
	Tasks          *handlers.TasksHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/stats", cfg.Health.Stats)

	authGroup := app.Group("/auth")
	authGroup.Post("/customers/register", cfg.Auth.RegisterCustomer)
	authGroup.Post("/customers/login", cfg.Auth.LoginCustomer)
	authGroup.Post("/agents/login", cfg.Auth.LoginAgent)
	authGroup.Post("/admins/login", cfg.Auth.LoginAdmin)
	authGroup.Post("/verification/issue", cfg.Auth.IssueCode)
	authGroup.Post("/verification/confirm", cfg.Auth.VerifyCode)

	customer := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	customer.Post("", auth.RequireCustomer(), cfg.Tickets.CreateTicket)
	customer.Get("", auth.RequireCustomer(), cfg.Tickets.ListTickets)

	// chat admits the ticket's customer, its current agent and admins;
	// per-message authorization happens in the service
	customer.Get("/:id/chat/history", auth.RequireAnyPrincipal(), cfg.Chat.History)
	customer.Get("/:id/chat", auth.RequireAnyPrincipal(), cfg.Chat.Upgrade, cfg.Chat.Stream())

	agent := app.Group("/agent", cfg.AuthMiddleware.Handle, auth.RequireAgent(1))
	agent.Get("/tickets", cfg.AgentTickets.ListTickets)
	agent.Post("/tickets/:id/claim", cfg.AgentTickets.SelfAssign)
	agent.Post("/tickets/:id/start", cfg.AgentTickets.StartProgress)
	agent.Post("/tickets/:id/triage", cfg.AgentTickets.Triage)
	agent.Post("/tickets/:id/close", cfg.AgentTickets.Close)
	agent.Post("/tickets/:id/drop", cfg.AgentTickets.Drop)
	agent.Post("/breaks", cfg.Breaks.StartBreak)
	agent.Get("/availability", cfg.Breaks.Availability)
	agent.Get("/tasks", cfg.Tasks.ListMyTasks)
	agent.Post("/tasks/:id/complete", cfg.Tasks.CompleteTask)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Post("/agents", cfg.Admin.CreateAgent)
	admin.Put("/breaks/settings", cfg.Admin.ConfigureBreaks)
	admin.Delete("/tickets/:id", cfg.Admin.DeleteTicket)
	admin.Post("/tasks", cfg.Tasks.CreateTask)
	admin.Get("/tasks", cfg.Tasks.ListTasks)
	admin.Put("/tasks/:id/assignees", cfg.Tasks.Reassign)
	admin.Delete("/tasks/:id", cfg.Tasks.DeleteTask)
}
