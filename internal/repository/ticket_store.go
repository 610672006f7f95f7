package repository

import (
	"context"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CreateTicketParams describes a new ticket plus its opening message.
type CreateTicketParams struct {
	TenantID    string
	CreatedByID string
	CreatorRole domain.ActorRole
	Title       string
	Body        string
	Type        domain.TicketType
	Priority    domain.TicketPriority
}

// TicketFilter captures list scoping and pagination.
type TicketFilter struct {
	TenantID *string
	Page     int
	PageSize int
}

// Limit returns the normalized page size.
func (f TicketFilter) Limit() int {
	if f.PageSize < 1 {
		return 20
	}
	return f.PageSize
}

// Offset returns the row offset for the normalized page.
func (f TicketFilter) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.Limit()
}

// TicketListItem is a ticket row with per-side unread indicators.
type TicketListItem struct {
	Ticket          domain.Ticket
	UnreadForClient bool
	UnreadForAdmin  bool
}

// TicketStore encapsulates ticket persistence and owns the invariants over
// status, read flags, and ordering. Message insertion and the
// last_message_at/updated_at update are atomic per ticket.
type TicketStore interface {
	// CreateTicket creates an OPEN ticket seeded with one message authored by
	// the creator. The creator's side of the seed message is marked read.
	CreateTicket(ctx context.Context, params CreateTicketParams) (*domain.Ticket, *domain.TicketMessage, error)
	// AppendMessage inserts a message and advances the ticket's
	// last_message_at and updated_at in the same transaction.
	AppendMessage(ctx context.Context, ticketID, authorID string, authorRole domain.ActorRole, body string) (*domain.TicketMessage, error)
	SetStatus(ctx context.Context, ticketID string, status domain.TicketStatus) (*domain.Ticket, error)
	SetPriority(ctx context.Context, ticketID string, priority domain.TicketPriority) (*domain.Ticket, error)
	// GetByID returns the ticket and its messages ordered by created_at
	// ascending, insertion order on equal timestamps.
	GetByID(ctx context.Context, ticketID string) (*domain.Ticket, []domain.TicketMessage, error)
	// List returns one page ordered by last_message_at descending, id
	// ascending on ties, plus the unpaginated total count.
	List(ctx context.Context, filter TicketFilter) ([]TicketListItem, int, error)
}

// readFlags derives the per-side read booleans for a freshly authored
// message: the authoring side has implicitly read it, the other side has not.
func readFlags(role domain.ActorRole) (readByClient, readByAdmin bool) {
	return role == domain.RoleClient, role == domain.RoleAdmin
}
