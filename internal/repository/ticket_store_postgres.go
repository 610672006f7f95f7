package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

type postgresTicketStore struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketStore returns a TicketStore backed by postgres.
func NewPostgresTicketStore(pool *pgxpool.Pool) TicketStore {
	return &postgresTicketStore{pool: pool}
}

const ticketColumns = `id, tenant_id, created_by_id, title, type, status, priority, last_message_at, created_at, updated_at`

func (s *postgresTicketStore) CreateTicket(ctx context.Context, params CreateTicketParams) (*domain.Ticket, *domain.TicketMessage, error) {
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

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ticket := &domain.Ticket{
		TenantID:    params.TenantID,
		CreatedByID: params.CreatedByID,
		Title:       title,
		Type:        params.Type,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
	}
	const insertTicket = `
        INSERT INTO tickets (tenant_id, created_by_id, title, type, status, priority)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, last_message_at, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertTicket,
		ticket.TenantID,
		ticket.CreatedByID,
		ticket.Title,
		ticket.Type,
		ticket.Status,
		ticket.Priority,
	).Scan(&ticket.ID, &ticket.LastMessageAt, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
		return nil, nil, err
	}

	msg, err := insertMessage(ctx, tx, ticket.ID, ticket.TenantID, params.CreatedByID, params.CreatorRole, body)
	if err != nil {
		return nil, nil, err
	}

	const touch = `UPDATE tickets SET last_message_at=$1, updated_at=$1 WHERE id=$2`
	if _, err := tx.Exec(ctx, touch, msg.CreatedAt, ticket.ID); err != nil {
		return nil, nil, err
	}
	ticket.LastMessageAt = msg.CreatedAt
	ticket.UpdatedAt = msg.CreatedAt

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return ticket, msg, nil
}

func (s *postgresTicketStore) AppendMessage(ctx context.Context, ticketID, authorID string, authorRole domain.ActorRole, body string) (*domain.TicketMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("body required", nil)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Row lock serializes concurrent appends to the same ticket so
	// last_message_at can never point behind the latest message.
	var tenantID string
	if err := tx.QueryRow(ctx, `SELECT tenant_id FROM tickets WHERE id=$1 FOR UPDATE`, ticketID).Scan(&tenantID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, err
	}

	msg, err := insertMessage(ctx, tx, ticketID, tenantID, authorID, authorRole, body)
	if err != nil {
		return nil, err
	}

	const touch = `UPDATE tickets SET last_message_at=$1, updated_at=$1 WHERE id=$2`
	if _, err := tx.Exec(ctx, touch, msg.CreatedAt, ticketID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return msg, nil
}

func insertMessage(ctx context.Context, tx pgx.Tx, ticketID, tenantID, authorID string, authorRole domain.ActorRole, body string) (*domain.TicketMessage, error) {
	readByClient, readByAdmin := readFlags(authorRole)
	msg := &domain.TicketMessage{
		TicketID:       ticketID,
		TenantID:       tenantID,
		AuthorID:       authorID,
		AuthorRole:     authorRole,
		Body:           body,
		IsReadByClient: readByClient,
		IsReadByAdmin:  readByAdmin,
	}
	const query = `
        INSERT INTO ticket_messages (ticket_id, tenant_id, author_id, author_role, body, is_read_by_client, is_read_by_admin)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, query,
		msg.TicketID,
		msg.TenantID,
		msg.AuthorID,
		msg.AuthorRole,
		msg.Body,
		msg.IsReadByClient,
		msg.IsReadByAdmin,
	).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *postgresTicketStore) SetStatus(ctx context.Context, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET status=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING ` + ticketColumns
	return s.updateReturning(ctx, query, status, ticketID)
}

func (s *postgresTicketStore) SetPriority(ctx context.Context, ticketID string, priority domain.TicketPriority) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET priority=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING ` + ticketColumns
	return s.updateReturning(ctx, query, priority, ticketID)
}

func (s *postgresTicketStore) updateReturning(ctx context.Context, query string, value any, ticketID string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(s.pool.QueryRow(ctx, query, value, ticketID), &ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, err
	}
	return &ticket, nil
}

func (s *postgresTicketStore) GetByID(ctx context.Context, ticketID string) (*domain.Ticket, []domain.TicketMessage, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := scanTicket(s.pool.QueryRow(ctx, query, ticketID), &ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, err
	}

	const msgQuery = `
        SELECT id, ticket_id, tenant_id, author_id, author_role, body, is_read_by_client, is_read_by_admin, created_at
        FROM ticket_messages WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := s.pool.Query(ctx, msgQuery, ticketID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var msgs []domain.TicketMessage
	for rows.Next() {
		var msg domain.TicketMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.TenantID,
			&msg.AuthorID,
			&msg.AuthorRole,
			&msg.Body,
			&msg.IsReadByClient,
			&msg.IsReadByAdmin,
			&msg.CreatedAt,
		); err != nil {
			return nil, nil, err
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return &ticket, msgs, nil
}

func (s *postgresTicketStore) List(ctx context.Context, filter TicketFilter) ([]TicketListItem, int, error) {
	where := ""
	args := []any{}
	if filter.TenantID != nil {
		args = append(args, *filter.TenantID)
		where = " WHERE tenant_id=$1"
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listArgs := append([]any{}, args...)
	listArgs = append(listArgs, filter.Limit(), filter.Offset())
	query := `
        SELECT t.id, t.tenant_id, t.created_by_id, t.title, t.type, t.status, t.priority,
               t.last_message_at, t.created_at, t.updated_at,
               EXISTS (SELECT 1 FROM ticket_messages m WHERE m.ticket_id = t.id AND NOT m.is_read_by_client),
               EXISTS (SELECT 1 FROM ticket_messages m WHERE m.ticket_id = t.id AND NOT m.is_read_by_admin)
        FROM tickets t`
	if filter.TenantID != nil {
		query += ` WHERE t.tenant_id=$1 ORDER BY t.last_message_at DESC, t.id ASC LIMIT $2 OFFSET $3`
	} else {
		query += ` ORDER BY t.last_message_at DESC, t.id ASC LIMIT $1 OFFSET $2`
	}

	rows, err := s.pool.Query(ctx, query, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []TicketListItem
	for rows.Next() {
		var item TicketListItem
		if err := rows.Scan(
			&item.Ticket.ID,
			&item.Ticket.TenantID,
			&item.Ticket.CreatedByID,
			&item.Ticket.Title,
			&item.Ticket.Type,
			&item.Ticket.Status,
			&item.Ticket.Priority,
			&item.Ticket.LastMessageAt,
			&item.Ticket.CreatedAt,
			&item.Ticket.UpdatedAt,
			&item.UnreadForClient,
			&item.UnreadForAdmin,
		); err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.TenantID,
		&ticket.CreatedByID,
		&ticket.Title,
		&ticket.Type,
		&ticket.Status,
		&ticket.Priority,
		&ticket.LastMessageAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}
