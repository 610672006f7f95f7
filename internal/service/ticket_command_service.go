package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/cache"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// CreateTicketInput describes a client-side ticket creation payload. The
// opening message is carried in Body.
type CreateTicketInput struct {
	Title string
	Body  string
	Type  domain.TicketType
}

// AdminCreateTicketInput describes ticket creation on behalf of a tenant.
type AdminCreateTicketInput struct {
	TenantID string
	Title    string
	Body     string
	Type     domain.TicketType
	Priority domain.TicketPriority
}

// TicketCommandService validates role scope and enum membership, then
// delegates mutation to the store. Invariant logic lives in the store only.
type TicketCommandService struct {
	store      repository.TicketStore
	tenants    repository.TenantRepository
	dispatcher events.Dispatcher
	cache      *cache.TicketCache
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// CommandDependencies bundles collaborators for the command service.
type CommandDependencies struct {
	Store      repository.TicketStore
	TenantRepo repository.TenantRepository
	Dispatcher events.Dispatcher
	Cache      *cache.TicketCache
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewTicketCommandService constructs the service.
func NewTicketCommandService(deps CommandDependencies) *TicketCommandService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketCommandService{
		store:      deps.Store,
		tenants:    deps.TenantRepo,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// CreateAsClient opens a ticket for the actor's own tenant.
func (s *TicketCommandService) CreateAsClient(ctx context.Context, actor domain.Actor, input CreateTicketInput) (ticket *domain.Ticket, err error) {
	defer func() { s.metrics.RecordTicketOperation("create_client", err) }()

	if !actor.IsClient() {
		return nil, apperrors.NewForbidden("client role required")
	}
	if !domain.ValidType(input.Type) {
		return nil, apperrors.NewValidationError("unknown ticket type", map[string]any{"type": input.Type})
	}

	ticket, _, err = s.store.CreateTicket(ctx, repository.CreateTicketParams{
		TenantID:    actor.TenantID,
		CreatedByID: actor.ID,
		CreatorRole: domain.RoleClient,
		Title:       input.Title,
		Body:        input.Body,
		Type:        input.Type,
		Priority:    domain.TicketPriorityNormal,
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, ticket.ID, ticket.TenantID)
	s.publish(ctx, events.EventTicketCreated, ticket.ID, ticket.TenantID, actor, events.TicketCreatedPayload{
		Title:    ticket.Title,
		Type:     ticket.Type,
		Priority: ticket.Priority,
	})
	return ticket, nil
}

// CreateAsAdmin opens a ticket on behalf of a tenant, which must resolve in
// the tenant directory.
func (s *TicketCommandService) CreateAsAdmin(ctx context.Context, actor domain.Actor, input AdminCreateTicketInput) (ticket *domain.Ticket, err error) {
	defer func() { s.metrics.RecordTicketOperation("create_admin", err) }()

	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if strings.TrimSpace(input.TenantID) == "" {
		return nil, apperrors.NewValidationError("tenant_id required", nil)
	}
	if !domain.ValidType(input.Type) {
		return nil, apperrors.NewValidationError("unknown ticket type", map[string]any{"type": input.Type})
	}
	if input.Priority != "" && !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}
	if _, err := s.tenants.GetByID(ctx, input.TenantID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewValidationError("unknown tenant", map[string]any{"tenant_id": input.TenantID})
		}
		return nil, err
	}

	ticket, _, err = s.store.CreateTicket(ctx, repository.CreateTicketParams{
		TenantID:    input.TenantID,
		CreatedByID: actor.ID,
		CreatorRole: domain.RoleAdmin,
		Title:       input.Title,
		Body:        input.Body,
		Type:        input.Type,
		Priority:    input.Priority,
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, ticket.ID, ticket.TenantID)
	s.publish(ctx, events.EventTicketCreated, ticket.ID, ticket.TenantID, actor, events.TicketCreatedPayload{
		Title:    ticket.Title,
		Type:     ticket.Type,
		Priority: ticket.Priority,
	})
	return ticket, nil
}

// AddMessageAsClient appends a client reply, enforcing tenant scope.
func (s *TicketCommandService) AddMessageAsClient(ctx context.Context, actor domain.Actor, ticketID, body string) (msg *domain.TicketMessage, err error) {
	defer func() { s.metrics.RecordTicketOperation("add_message_client", err) }()

	if !actor.IsClient() {
		return nil, apperrors.NewForbidden("client role required")
	}
	ticket, _, err := s.store.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.TenantID != actor.TenantID {
		return nil, apperrors.NewForbidden("ticket belongs to another tenant")
	}

	msg, err = s.store.AppendMessage(ctx, ticketID, actor.ID, domain.RoleClient, body)
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, ticketID, msg.TenantID)
	s.publish(ctx, events.EventTicketMessageAdded, ticketID, msg.TenantID, actor, events.TicketMessageAddedPayload{
		MessageID:   msg.ID,
		AuthorRole:  msg.AuthorRole,
		AuthorID:    msg.AuthorID,
		BodyPreview: bodyPreview(msg.Body, 120),
	})
	return msg, nil
}

// AddMessageAsAdmin appends an admin reply; no tenant restriction.
func (s *TicketCommandService) AddMessageAsAdmin(ctx context.Context, actor domain.Actor, ticketID, body string) (msg *domain.TicketMessage, err error) {
	defer func() { s.metrics.RecordTicketOperation("add_message_admin", err) }()

	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}

	msg, err = s.store.AppendMessage(ctx, ticketID, actor.ID, domain.RoleAdmin, body)
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, ticketID, msg.TenantID)
	s.publish(ctx, events.EventTicketMessageAdded, ticketID, msg.TenantID, actor, events.TicketMessageAddedPayload{
		MessageID:   msg.ID,
		AuthorRole:  msg.AuthorRole,
		AuthorID:    msg.AuthorID,
		BodyPreview: bodyPreview(msg.Body, 120),
	})
	return msg, nil
}

// UpdateStatusAsAdmin sets a ticket's status. Any status may follow any
// other; only enum membership is validated.
func (s *TicketCommandService) UpdateStatusAsAdmin(ctx context.Context, actor domain.Actor, ticketID string, status domain.TicketStatus) (ticket *domain.Ticket, err error) {
	defer func() { s.metrics.RecordTicketOperation("update_status", err) }()

	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if !domain.ValidStatus(status) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
	}

	current, _, err := s.store.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldStatus := current.Status

	ticket, err = s.store.SetStatus(ctx, ticketID, status)
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, ticketID, ticket.TenantID)
	s.publish(ctx, events.EventTicketStatusChanged, ticketID, ticket.TenantID, actor, events.TicketStatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: status,
	})
	return ticket, nil
}

// UpdatePriorityAsAdmin sets a ticket's priority.
func (s *TicketCommandService) UpdatePriorityAsAdmin(ctx context.Context, actor domain.Actor, ticketID string, priority domain.TicketPriority) (ticket *domain.Ticket, err error) {
	defer func() { s.metrics.RecordTicketOperation("update_priority", err) }()

	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	current, _, err := s.store.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldPriority := current.Priority

	ticket, err = s.store.SetPriority(ctx, ticketID, priority)
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, ticketID, ticket.TenantID)
	s.publish(ctx, events.EventTicketPriorityChanged, ticketID, ticket.TenantID, actor, events.TicketPriorityChangedPayload{
		OldPriority: oldPriority,
		NewPriority: priority,
	})
	return ticket, nil
}

func (s *TicketCommandService) afterMutation(ctx context.Context, ticketID, tenantID string) {
	s.cache.InvalidateTicket(ctx, ticketID, tenantID)
}

func (s *TicketCommandService) publish(ctx context.Context, eventType events.EventType, ticketID, tenantID string, actor domain.Actor, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:       uuid.NewString(),
		Type:     eventType,
		TicketID: ticketID,
		TenantID: tenantID,
		Actor: events.Actor{
			ID:       actor.ID,
			Role:     actor.Role,
			TenantID: actor.TenantID,
		},
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func bodyPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
