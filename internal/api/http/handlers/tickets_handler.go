package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// TicketsHandler manages the client-surface ticket endpoints. Everything it
// serves is scoped to the actor's own tenant.
type TicketsHandler struct {
	queries  *service.TicketQueryService
	commands *service.TicketCommandService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(queries *service.TicketQueryService, commands *service.TicketCommandService) *TicketsHandler {
	return &TicketsHandler{queries: queries, commands: commands}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	page, pageSize := parsePagination(c)
	list, err := h.queries.ListForClient(c.Context(), actor, page, pageSize)
	if err != nil {
		return err
	}

	items := make([]dto.TicketSummary, 0, len(list.Items))
	for _, item := range list.Items {
		summary := dto.FromTicket(item.Ticket)
		summary.HasUnread = item.HasUnreadForClient
		items = append(items, summary)
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Items: items,
		Meta:  pageMeta(list.Meta),
	}})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	detail, err := h.queries.GetForClient(c.Context(), actor, c.Params("id"))
	if err != nil {
		return maskForbiddenTicket(err)
	}
	return c.JSON(fiber.Map{"data": dto.FromDetail(detail)})
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" || req.Body == "" || req.Type == "" {
		return apperrors.NewValidationError("title, body, type required", nil)
	}

	ticket, err := h.commands.CreateAsClient(c.Context(), actor, service.CreateTicketInput{
		Title: req.Title,
		Body:  req.Body,
		Type:  req.Type,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromTicket(*ticket)})
}

// AddMessage POST /tickets/:id/messages.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	msg, err := h.commands.AddMessageAsClient(c.Context(), actor, c.Params("id"), req.Body)
	if err != nil {
		return maskForbiddenTicket(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromMessage(*msg)})
}

// maskForbiddenTicket collapses cross-tenant access into not-found so the
// client surface does not reveal which ticket ids exist in other tenants.
func maskForbiddenTicket(err error) error {
	if apperrors.IsForbidden(err) {
		return apperrors.NewNotFound("ticket", nil)
	}
	return err
}

func requestActor(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

func parsePagination(c *fiber.Ctx) (int, int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	return page, pageSize
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func pageMeta(meta service.PageMeta) dto.PageMeta {
	return dto.PageMeta{
		Page:       meta.Page,
		PageSize:   meta.PageSize,
		TotalCount: meta.TotalCount,
	}
}
