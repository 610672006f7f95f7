package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// AdminTicketsHandler manages the administrative ticket endpoints; admins
// see and mutate tickets across all tenants.
type AdminTicketsHandler struct {
	queries  *service.TicketQueryService
	commands *service.TicketCommandService
}

// NewAdminTicketsHandler constructs handler.
func NewAdminTicketsHandler(queries *service.TicketQueryService, commands *service.TicketCommandService) *AdminTicketsHandler {
	return &AdminTicketsHandler{queries: queries, commands: commands}
}

// ListTickets GET /admin/tickets.
func (h *AdminTicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	page, pageSize := parsePagination(c)
	list, err := h.queries.ListForAdmin(c.Context(), actor, page, pageSize)
	if err != nil {
		return err
	}

	items := make([]dto.TicketSummary, 0, len(list.Items))
	for _, item := range list.Items {
		summary := dto.FromTicket(item.Ticket)
		summary.TenantName = item.TenantName
		summary.HasUnread = item.HasUnreadForAdmin
		items = append(items, summary)
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Items: items,
		Meta:  pageMeta(list.Meta),
	}})
}

// GetTicket GET /admin/tickets/:id.
func (h *AdminTicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	detail, err := h.queries.GetForAdmin(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromDetail(detail)})
}

// CreateTicket POST /admin/tickets.
func (h *AdminTicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	var req dto.AdminCreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TenantID == "" || req.Title == "" || req.Body == "" || req.Type == "" {
		return apperrors.NewValidationError("tenant_id, title, body, type required", nil)
	}

	ticket, err := h.commands.CreateAsAdmin(c.Context(), actor, service.AdminCreateTicketInput{
		TenantID: req.TenantID,
		Title:    req.Title,
		Body:     req.Body,
		Type:     req.Type,
		Priority: req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromTicket(*ticket)})
}

// AddMessage POST /admin/tickets/:id/messages.
func (h *AdminTicketsHandler) AddMessage(c *fiber.Ctx) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	msg, err := h.commands.AddMessageAsAdmin(c.Context(), actor, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromMessage(*msg)})
}

// UpdateStatus PATCH /admin/tickets/:id/status.
func (h *AdminTicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.commands.UpdateStatusAsAdmin(c.Context(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(*ticket)})
}

// UpdatePriority PATCH /admin/tickets/:id/priority.
func (h *AdminTicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.commands.UpdatePriorityAsAdmin(c.Context(), actor, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(*ticket)})
}
