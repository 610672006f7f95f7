package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

type queryFixture struct {
	store    repository.TicketStore
	tenants  *repository.MemoryTenantRepository
	queries  *TicketQueryService
	tenantID string
}

func newQueryFixture(t *testing.T) *queryFixture {
	t.Helper()

	tenants := repository.NewMemoryTenantRepository()
	store := repository.NewMemoryTicketStore()
	return &queryFixture{
		store:   store,
		tenants: tenants,
		queries: NewTicketQueryService(QueryDependencies{
			Store:      store,
			TenantRepo: tenants,
		}),
		tenantID: tenants.Add("Acme Corp"),
	}
}

func (f *queryFixture) seedTicket(t *testing.T, tenantID, title string) *domain.Ticket {
	t.Helper()
	ticket, _, err := f.store.CreateTicket(context.Background(), repository.CreateTicketParams{
		TenantID:    tenantID,
		CreatedByID: "user-1",
		CreatorRole: domain.RoleClient,
		Title:       title,
		Body:        "opening message",
		Type:        domain.TicketTypeOther,
		Priority:    domain.TicketPriorityNormal,
	})
	require.NoError(t, err)
	return ticket
}

func TestListForClient_ScopedToOwnTenant(t *testing.T) {
	f := newQueryFixture(t)
	ctx := context.Background()

	mine := f.seedTicket(t, "T1", "mine")
	f.seedTicket(t, "T2", "someone else's")

	list, err := f.queries.ListForClient(ctx, clientActor("T1"), 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, mine.ID, list.Items[0].Ticket.ID)
	assert.Equal(t, 1, list.Meta.TotalCount)
}

func TestListForClient_PaginationMeta(t *testing.T) {
	f := newQueryFixture(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		f.seedTicket(t, "T1", fmt.Sprintf("ticket %d", i))
	}

	page2, err := f.queries.ListForClient(ctx, clientActor("T1"), 2, 10)
	require.NoError(t, err)
	assert.Len(t, page2.Items, 5)
	assert.Equal(t, PageMeta{Page: 2, PageSize: 10, TotalCount: 15}, page2.Meta)

	// A page past the end is empty but keeps the real total.
	page9, err := f.queries.ListForClient(ctx, clientActor("T1"), 9, 10)
	require.NoError(t, err)
	assert.Empty(t, page9.Items)
	assert.Equal(t, 15, page9.Meta.TotalCount)

	// Out-of-range paging inputs fall back to defaults.
	defaulted, err := f.queries.ListForClient(ctx, clientActor("T1"), 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, defaulted.Meta.Page)
	assert.Equal(t, 20, defaulted.Meta.PageSize)
	assert.Len(t, defaulted.Items, 15)
}

func TestListForClient_UnreadFlag(t *testing.T) {
	f := newQueryFixture(t)
	ctx := context.Background()

	ticket := f.seedTicket(t, "T1", "waiting on support")

	list, err := f.queries.ListForClient(ctx, clientActor("T1"), 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.False(t, list.Items[0].HasUnreadForClient, "own opening message is already read")

	_, err = f.store.AppendMessage(ctx, ticket.ID, "admin-1", domain.RoleAdmin, "on it")
	require.NoError(t, err)

	list, err = f.queries.ListForClient(ctx, clientActor("T1"), 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.True(t, list.Items[0].HasUnreadForClient)
}

func TestListForClient_RejectsAdmin(t *testing.T) {
	f := newQueryFixture(t)

	_, err := f.queries.ListForClient(context.Background(), adminActor(), 1, 10)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestGetForClient_TenantScope(t *testing.T) {
	f := newQueryFixture(t)
	ctx := context.Background()

	ticket := f.seedTicket(t, "T1", "mine")

	detail, err := f.queries.GetForClient(ctx, clientActor("T1"), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, detail.Ticket.ID)
	require.Len(t, detail.Messages, 1)

	_, err = f.queries.GetForClient(ctx, clientActor("T2"), ticket.ID)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = f.queries.GetForClient(ctx, clientActor("T1"), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetForClient_MessagesAscending(t *testing.T) {
	f := newQueryFixture(t)
	ctx := context.Background()

	ticket := f.seedTicket(t, "T1", "thread order")
	for i := 0; i < 5; i++ {
		_, err := f.store.AppendMessage(ctx, ticket.ID, "admin-1", domain.RoleAdmin, fmt.Sprintf("reply %d", i))
		require.NoError(t, err)
	}

	detail, err := f.queries.GetForClient(ctx, clientActor("T1"), ticket.ID)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 6)
	for i := 1; i < len(detail.Messages); i++ {
		assert.False(t, detail.Messages[i].CreatedAt.Before(detail.Messages[i-1].CreatedAt))
	}
}

func TestListForAdmin_TenantNames(t *testing.T) {
	f := newQueryFixture(t)
	ctx := context.Background()

	known := f.seedTicket(t, f.tenantID, "known tenant")
	orphan := f.seedTicket(t, "not-in-directory", "orphan tenant")

	list, err := f.queries.ListForAdmin(ctx, adminActor(), 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, 2, list.Meta.TotalCount)

	byID := make(map[string]AdminTicketItem, len(list.Items))
	for _, item := range list.Items {
		byID[item.Ticket.ID] = item
	}
	assert.Equal(t, "Acme Corp", byID[known.ID].TenantName)
	assert.Equal(t, "", byID[orphan.ID].TenantName, "unresolvable tenant name stays empty")
}

func TestListForAdmin_UnreadFlag(t *testing.T) {
	f := newQueryFixture(t)
	ctx := context.Background()

	f.seedTicket(t, "T1", "client opened")

	list, err := f.queries.ListForAdmin(ctx, adminActor(), 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.True(t, list.Items[0].HasUnreadForAdmin, "client opening message is unread for admins")
}

func TestListForAdmin_RejectsClient(t *testing.T) {
	f := newQueryFixture(t)

	_, err := f.queries.ListForAdmin(context.Background(), clientActor("T1"), 1, 10)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestGetForAdmin_CrossesTenants(t *testing.T) {
	f := newQueryFixture(t)
	ctx := context.Background()

	ticket := f.seedTicket(t, "T1", "any tenant")

	detail, err := f.queries.GetForAdmin(ctx, adminActor(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, detail.Ticket.ID)

	_, err = f.queries.GetForAdmin(ctx, clientActor("T1"), ticket.ID)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = f.queries.GetForAdmin(ctx, adminActor(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}
