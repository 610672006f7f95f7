package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

func createTicket(t *testing.T, store TicketStore, tenantID, title string) *domain.Ticket {
	t.Helper()
	ticket, _, err := store.CreateTicket(context.Background(), CreateTicketParams{
		TenantID:    tenantID,
		CreatedByID: "user-1",
		CreatorRole: domain.RoleClient,
		Title:       title,
		Body:        "opening message",
		Type:        domain.TicketTypeMaintenance,
	})
	require.NoError(t, err)
	return ticket
}

func TestMemoryStore_CreateTicketSeedsState(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()

	ticket, msg, err := store.CreateTicket(ctx, CreateTicketParams{
		TenantID:    "tenant-1",
		CreatedByID: "user-1",
		CreatorRole: domain.RoleClient,
		Title:       "Leak",
		Body:        "Kitchen tap",
		Type:        domain.TicketTypeMaintenance,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityNormal, ticket.Priority)
	assert.Equal(t, "tenant-1", ticket.TenantID)
	assert.Equal(t, "user-1", ticket.CreatedByID)

	require.NotNil(t, msg)
	assert.Equal(t, ticket.ID, msg.TicketID)
	assert.Equal(t, ticket.TenantID, msg.TenantID)
	assert.Equal(t, domain.RoleClient, msg.AuthorRole)
	assert.True(t, msg.IsReadByClient)
	assert.False(t, msg.IsReadByAdmin)
	assert.True(t, ticket.LastMessageAt.Equal(msg.CreatedAt))
}

func TestMemoryStore_CreateTicketAdminSeed(t *testing.T) {
	store := NewMemoryTicketStore()

	ticket, msg, err := store.CreateTicket(context.Background(), CreateTicketParams{
		TenantID:    "tenant-1",
		CreatedByID: "admin-1",
		CreatorRole: domain.RoleAdmin,
		Title:       "Billing fix",
		Body:        "Opened on behalf of the tenant",
		Type:        domain.TicketTypeBilling,
		Priority:    domain.TicketPriorityHigh,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketPriorityHigh, ticket.Priority)
	assert.Equal(t, domain.RoleAdmin, msg.AuthorRole)
	assert.True(t, msg.IsReadByAdmin)
	assert.False(t, msg.IsReadByClient)
}

func TestMemoryStore_CreateTicketValidation(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()

	_, _, err := store.CreateTicket(ctx, CreateTicketParams{
		TenantID: "tenant-1", CreatedByID: "user-1", CreatorRole: domain.RoleClient,
		Title: "   ", Body: "body", Type: domain.TicketTypeBug,
	})
	assert.True(t, apperrors.IsValidation(err))

	_, _, err = store.CreateTicket(ctx, CreateTicketParams{
		TenantID: "tenant-1", CreatedByID: "user-1", CreatorRole: domain.RoleClient,
		Title: "title", Body: "", Type: domain.TicketTypeBug,
	})
	assert.True(t, apperrors.IsValidation(err))
}

func TestMemoryStore_AppendMessageAdvancesLastMessageAt(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()
	ticket := createTicket(t, store, "tenant-1", "Ticket")

	msg, err := store.AppendMessage(ctx, ticket.ID, "admin-1", domain.RoleAdmin, "Scheduled for Friday")
	require.NoError(t, err)
	assert.True(t, msg.IsReadByAdmin)
	assert.False(t, msg.IsReadByClient)

	updated, msgs, err := store.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.True(t, updated.LastMessageAt.Equal(msg.CreatedAt))
	assert.True(t, updated.UpdatedAt.Equal(msg.CreatedAt))
}

func TestMemoryStore_AppendMessageErrors(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()
	ticket := createTicket(t, store, "tenant-1", "Ticket")

	_, err := store.AppendMessage(ctx, "missing", "user-1", domain.RoleClient, "hello")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = store.AppendMessage(ctx, ticket.ID, "user-1", domain.RoleClient, "   ")
	assert.True(t, apperrors.IsValidation(err))
}

func TestMemoryStore_OrderingInvariant(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()
	ticket := createTicket(t, store, "tenant-1", "Ticket")

	// Alternate sides, no sleeps: appends can land on the same wall-clock
	// timestamp and must still be resolved by insertion order.
	for i := 0; i < 50; i++ {
		role := domain.RoleClient
		author := "user-1"
		if i%2 == 0 {
			role = domain.RoleAdmin
			author = "admin-1"
		}
		_, err := store.AppendMessage(ctx, ticket.ID, author, role, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	updated, msgs, err := store.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 51)

	var max time.Time
	for i, msg := range msgs {
		if i > 0 {
			assert.False(t, msg.CreatedAt.Before(msgs[i-1].CreatedAt), "messages out of order at %d", i)
		}
		if msg.CreatedAt.After(max) {
			max = msg.CreatedAt
		}
	}
	assert.True(t, updated.LastMessageAt.Equal(max))
}

func TestMemoryStore_ConcurrentAppendsSerialize(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()
	ticket := createTicket(t, store, "tenant-1", "Ticket")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := store.AppendMessage(ctx, ticket.ID, "user-1", domain.RoleClient, fmt.Sprintf("concurrent %d", n))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	updated, msgs, err := store.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 21)

	var max time.Time
	for _, msg := range msgs {
		if msg.CreatedAt.After(max) {
			max = msg.CreatedAt
		}
	}
	assert.True(t, updated.LastMessageAt.Equal(max),
		"last_message_at must never point behind the latest message")
}

func TestMemoryStore_SetStatusAndPriority(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()
	ticket := createTicket(t, store, "tenant-1", "Ticket")

	updated, err := store.SetStatus(ctx, ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, updated.Status)

	// No transition table: leaving CLOSED is permitted.
	_, err = store.SetStatus(ctx, ticket.ID, domain.TicketStatusClosed)
	require.NoError(t, err)
	updated, err = store.SetStatus(ctx, ticket.ID, domain.TicketStatusOpen)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, updated.Status)

	updated, err = store.SetPriority(ctx, ticket.ID, domain.TicketPriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityHigh, updated.Priority)

	_, err = store.SetStatus(ctx, "missing", domain.TicketStatusOpen)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = store.SetPriority(ctx, "missing", domain.TicketPriorityLow)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMemoryStore_ListOrderingAndTenantFilter(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()

	first := createTicket(t, store, "tenant-1", "first")
	second := createTicket(t, store, "tenant-1", "second")
	createTicket(t, store, "tenant-2", "other tenant")

	// Replying to the older ticket moves it to the top.
	_, err := store.AppendMessage(ctx, first.ID, "admin-1", domain.RoleAdmin, "bump")
	require.NoError(t, err)

	tenantID := "tenant-1"
	items, total, err := store.List(ctx, TicketFilter{TenantID: &tenantID, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].Ticket.ID)
	assert.Equal(t, second.ID, items[1].Ticket.ID)

	assert.True(t, items[0].UnreadForClient, "admin reply is unread for the client side")
	assert.True(t, items[0].UnreadForAdmin, "client opening message is unread for the admin side")

	_, total, err = store.List(ctx, TicketFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestMemoryStore_PaginationTotals(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()
	tenantID := "tenant-1"

	for i := 0; i < 15; i++ {
		createTicket(t, store, tenantID, fmt.Sprintf("ticket %d", i))
	}

	items, total, err := store.List(ctx, TicketFilter{TenantID: &tenantID, Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, items, 5)
	assert.Equal(t, 15, total)

	items, total, err = store.List(ctx, TicketFilter{TenantID: &tenantID, Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 15, total)
}
