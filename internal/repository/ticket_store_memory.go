package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// memoryTicketStore keeps tickets in process memory. It backs the service
// tests and lets the server boot without a POSTGRES_DSN. The single mutex is
// the per-ticket critical section: a message insert and the last_message_at
// update are never observable separately.
type memoryTicketStore struct {
	mu      sync.Mutex
	tickets map[string]*ticketRecord
}

type ticketRecord struct {
	ticket   domain.Ticket
	messages []domain.TicketMessage
}

// NewMemoryTicketStore returns an in-memory TicketStore.
func NewMemoryTicketStore() TicketStore {
	return &memoryTicketStore{tickets: make(map[string]*ticketRecord)}
}

func (s *memoryTicketStore) CreateTicket(ctx context.Context, params CreateTicketParams) (*domain.Ticket, *domain.TicketMessage, error) {
	title := strings.TrimSpace(params.Title)
	body := strings.TrimSpace(params.Body)
	if title == "" {
		return nil, nil, apperrors.NewValidationError("title required", nil)
	}
	if body == "" {
		return nil, nil, apperrors.NewValidationError("body required", nil)
	}
	priority := params.Priority
	if priority == "" {
		priority = domain.TicketPriorityNormal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	ticket := domain.Ticket{
		ID:            uuid.NewString(),
		TenantID:      params.TenantID,
		CreatedByID:   params.CreatedByID,
		Title:         title,
		Type:          params.Type,
		Status:        domain.TicketStatusOpen,
		Priority:      priority,
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	msg := newMessage(ticket.ID, ticket.TenantID, params.CreatedByID, params.CreatorRole, body, now)

	s.tickets[ticket.ID] = &ticketRecord{
		ticket:   ticket,
		messages: []domain.TicketMessage{msg},
	}

	ticketCopy := ticket
	msgCopy := msg
	return &ticketCopy, &msgCopy, nil
}

func (s *memoryTicketStore) AppendMessage(ctx context.Context, ticketID, authorID string, authorRole domain.ActorRole, body string) (*domain.TicketMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("body required", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tickets[ticketID]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}

	now := time.Now()
	msg := newMessage(ticketID, record.ticket.TenantID, authorID, authorRole, body, now)
	record.messages = append(record.messages, msg)
	record.ticket.LastMessageAt = msg.CreatedAt
	record.ticket.UpdatedAt = msg.CreatedAt

	msgCopy := msg
	return &msgCopy, nil
}

func newMessage(ticketID, tenantID, authorID string, authorRole domain.ActorRole, body string, at time.Time) domain.TicketMessage {
	readByClient, readByAdmin := readFlags(authorRole)
	return domain.TicketMessage{
		ID:             uuid.NewString(),
		TicketID:       ticketID,
		TenantID:       tenantID,
		AuthorID:       authorID,
		AuthorRole:     authorRole,
		Body:           body,
		IsReadByClient: readByClient,
		IsReadByAdmin:  readByAdmin,
		CreatedAt:      at,
	}
}

func (s *memoryTicketStore) SetStatus(ctx context.Context, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	return s.mutate(ticketID, func(t *domain.Ticket) {
		t.Status = status
	})
}

func (s *memoryTicketStore) SetPriority(ctx context.Context, ticketID string, priority domain.TicketPriority) (*domain.Ticket, error) {
	return s.mutate(ticketID, func(t *domain.Ticket) {
		t.Priority = priority
	})
}

func (s *memoryTicketStore) mutate(ticketID string, apply func(*domain.Ticket)) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tickets[ticketID]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	apply(&record.ticket)
	record.ticket.UpdatedAt = time.Now()

	ticketCopy := record.ticket
	return &ticketCopy, nil
}

func (s *memoryTicketStore) GetByID(ctx context.Context, ticketID string) (*domain.Ticket, []domain.TicketMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tickets[ticketID]
	if !ok {
		return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}

	ticketCopy := record.ticket
	msgs := make([]domain.TicketMessage, len(record.messages))
	copy(msgs, record.messages)
	return &ticketCopy, msgs, nil
}

func (s *memoryTicketStore) List(ctx context.Context, filter TicketFilter) ([]TicketListItem, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*ticketRecord
	for _, record := range s.tickets {
		if filter.TenantID != nil && record.ticket.TenantID != *filter.TenantID {
			continue
		}
		matched = append(matched, record)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i].ticket, matched[j].ticket
		if !a.LastMessageAt.Equal(b.LastMessageAt) {
			return a.LastMessageAt.After(b.LastMessageAt)
		}
		return a.ID < b.ID
	})

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit()
	if end > total {
		end = total
	}

	items := make([]TicketListItem, 0, end-start)
	for _, record := range matched[start:end] {
		item := TicketListItem{Ticket: record.ticket}
		for _, msg := range record.messages {
			if !msg.IsReadByClient {
				item.UnreadForClient = true
			}
			if !msg.IsReadByAdmin {
				item.UnreadForAdmin = true
			}
		}
		items = append(items, item)
	}
	return items, total, nil
}
