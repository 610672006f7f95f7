package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
)

// CreateTicketRequest is the client-surface creation payload; body becomes
// the opening message.
type CreateTicketRequest struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Type  domain.TicketType `json:"type"`
}

// AdminCreateTicketRequest opens a ticket on behalf of a tenant.
type AdminCreateTicketRequest struct {
	TenantID string                `json:"tenant_id"`
	Title    string                `json:"title"`
	Body     string                `json:"body"`
	Type     domain.TicketType     `json:"type"`
	Priority domain.TicketPriority `json:"priority,omitempty"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Body string `json:"body"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// PageMeta echoes the pagination window alongside the unpaginated total.
type PageMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// TicketSummary is a listing row.
type TicketSummary struct {
	ID            string                `json:"id"`
	TenantID      string                `json:"tenant_id"`
	TenantName    string                `json:"tenant_name,omitempty"`
	CreatedByID   string                `json:"created_by_id"`
	Title         string                `json:"title"`
	Type          domain.TicketType     `json:"type"`
	Status        domain.TicketStatus   `json:"status"`
	Priority      domain.TicketPriority `json:"priority"`
	HasUnread     bool                  `json:"has_unread"`
	LastMessageAt time.Time             `json:"last_message_at"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Items []TicketSummary `json:"items"`
	Meta  PageMeta        `json:"meta"`
}

// TicketMessageResponse represents one thread message.
type TicketMessageResponse struct {
	ID             string           `json:"id"`
	AuthorID       string           `json:"author_id"`
	AuthorRole     domain.ActorRole `json:"author_role"`
	Body           string           `json:"body"`
	IsReadByClient bool             `json:"is_read_by_client"`
	IsReadByAdmin  bool             `json:"is_read_by_admin"`
	CreatedAt      time.Time        `json:"created_at"`
}

// TicketDetailResponse provides full ticket info with the message thread.
type TicketDetailResponse struct {
	ID            string                  `json:"id"`
	TenantID      string                  `json:"tenant_id"`
	CreatedByID   string                  `json:"created_by_id"`
	Title         string                  `json:"title"`
	Type          domain.TicketType       `json:"type"`
	Status        domain.TicketStatus     `json:"status"`
	Priority      domain.TicketPriority   `json:"priority"`
	LastMessageAt time.Time               `json:"last_message_at"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
	Messages      []TicketMessageResponse `json:"messages"`
}

// FromTicket maps a domain ticket onto a summary row.
func FromTicket(ticket domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:            ticket.ID,
		TenantID:      ticket.TenantID,
		CreatedByID:   ticket.CreatedByID,
		Title:         ticket.Title,
		Type:          ticket.Type,
		Status:        ticket.Status,
		Priority:      ticket.Priority,
		LastMessageAt: ticket.LastMessageAt,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
	}
}

// FromDetail maps a service detail onto the response shape.
func FromDetail(detail *service.TicketDetail) TicketDetailResponse {
	msgs := make([]TicketMessageResponse, 0, len(detail.Messages))
	for _, msg := range detail.Messages {
		msgs = append(msgs, FromMessage(msg))
	}
	ticket := detail.Ticket
	return TicketDetailResponse{
		ID:            ticket.ID,
		TenantID:      ticket.TenantID,
		CreatedByID:   ticket.CreatedByID,
		Title:         ticket.Title,
		Type:          ticket.Type,
		Status:        ticket.Status,
		Priority:      ticket.Priority,
		LastMessageAt: ticket.LastMessageAt,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
		Messages:      msgs,
	}
}

// FromMessage maps a domain message onto the response shape.
func FromMessage(msg domain.TicketMessage) TicketMessageResponse {
	return TicketMessageResponse{
		ID:             msg.ID,
		AuthorID:       msg.AuthorID,
		AuthorRole:     msg.AuthorRole,
		Body:           msg.Body,
		IsReadByClient: msg.IsReadByClient,
		IsReadByAdmin:  msg.IsReadByAdmin,
		CreatedAt:      msg.CreatedAt,
	}
}
