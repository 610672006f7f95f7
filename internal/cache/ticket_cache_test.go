package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDetail struct {
	TicketID string `json:"ticket_id"`
	Title    string `json:"title"`
}

func newTestCache(t *testing.T) (*TicketCache, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	c := NewTicketCache(client, 30*time.Second, zap.NewNop(), nil)
	require.NotNil(t, c)
	return c, mock
}

func TestTicketCache_NilClientDisables(t *testing.T) {
	c := NewTicketCache(nil, time.Minute, zap.NewNop(), nil)
	assert.Nil(t, c)

	// A nil cache is a no-op, not a panic.
	var dest fakeDetail
	assert.False(t, c.GetDetail(context.Background(), ViewClient, "t-1", &dest))
	c.SetDetail(context.Background(), ViewClient, "t-1", fakeDetail{})
	assert.False(t, c.GetList(context.Background(), AdminScope, 1, 20, &dest))
	c.InvalidateTicket(context.Background(), "t-1", "T1")
}

func TestTicketCache_DetailRoundTrip(t *testing.T) {
	c, mock := newTestCache(t)
	ctx := context.Background()

	value := fakeDetail{TicketID: "t-1", Title: "Leak"}
	raw, err := json.Marshal(value)
	require.NoError(t, err)

	mock.ExpectSet("tickets:detail:client:t-1", raw, 30*time.Second).SetVal("OK")
	c.SetDetail(ctx, ViewClient, "t-1", value)

	mock.ExpectGet("tickets:detail:client:t-1").SetVal(string(raw))
	var dest fakeDetail
	require.True(t, c.GetDetail(ctx, ViewClient, "t-1", &dest))
	assert.Equal(t, value, dest)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketCache_DetailMissAndFailure(t *testing.T) {
	c, mock := newTestCache(t)
	ctx := context.Background()

	var dest fakeDetail
	mock.ExpectGet("tickets:detail:admin:t-1").RedisNil()
	assert.False(t, c.GetDetail(ctx, ViewAdmin, "t-1", &dest))

	// Transport errors degrade to a miss.
	mock.ExpectGet("tickets:detail:admin:t-1").SetErr(errors.New("connection refused"))
	assert.False(t, c.GetDetail(ctx, ViewAdmin, "t-1", &dest))

	// Corrupt entries are treated as misses too.
	mock.ExpectGet("tickets:detail:admin:t-1").SetVal("{not json")
	assert.False(t, c.GetDetail(ctx, ViewAdmin, "t-1", &dest))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketCache_ListKeyCarriesVersion(t *testing.T) {
	c, mock := newTestCache(t)
	ctx := context.Background()

	value := fakeDetail{TicketID: "page", Title: "1"}
	raw, err := json.Marshal(value)
	require.NoError(t, err)

	// No version yet: key is stamped v0.
	mock.ExpectGet("tickets:ver:tenant:T1").RedisNil()
	mock.ExpectSet("tickets:list:tenant:T1:v0:p1:s10", raw, 30*time.Second).SetVal("OK")
	c.SetList(ctx, TenantScope("T1"), 1, 10, value)

	mock.ExpectGet("tickets:ver:tenant:T1").RedisNil()
	mock.ExpectGet("tickets:list:tenant:T1:v0:p1:s10").SetVal(string(raw))
	var dest fakeDetail
	require.True(t, c.GetList(ctx, TenantScope("T1"), 1, 10, &dest))
	assert.Equal(t, value, dest)

	// After a version bump the same page looks up a fresh key and misses.
	mock.ExpectGet("tickets:ver:tenant:T1").SetVal("1")
	mock.ExpectGet("tickets:list:tenant:T1:v1:p1:s10").RedisNil()
	assert.False(t, c.GetList(ctx, TenantScope("T1"), 1, 10, &dest))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketCache_InvalidateTicket(t *testing.T) {
	c, mock := newTestCache(t)

	mock.ExpectDel("tickets:detail:client:t-1", "tickets:detail:admin:t-1").SetVal(2)
	mock.ExpectIncr("tickets:ver:tenant:T1").SetVal(1)
	mock.ExpectIncr("tickets:ver:admin").SetVal(1)

	c.InvalidateTicket(context.Background(), "t-1", "T1")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketCache_InvalidateFailureIsSoft(t *testing.T) {
	c, mock := newTestCache(t)

	mock.ExpectDel("tickets:detail:client:t-1", "tickets:detail:admin:t-1").
		SetErr(errors.New("connection refused"))

	// Must not panic or surface the error.
	c.InvalidateTicket(context.Background(), "t-1", "T1")
}
