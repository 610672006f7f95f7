package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/cache"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// PageMeta describes one page of a listing.
type PageMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// ClientTicketItem is a listing row for the client surface.
type ClientTicketItem struct {
	Ticket             domain.Ticket `json:"ticket"`
	HasUnreadForClient bool          `json:"has_unread_for_client"`
}

// ClientTicketList is one page of a client's tickets.
type ClientTicketList struct {
	Items []ClientTicketItem `json:"items"`
	Meta  PageMeta           `json:"meta"`
}

// AdminTicketItem is a listing row for the admin surface, decorated with the
// owning tenant's name.
type AdminTicketItem struct {
	Ticket            domain.Ticket `json:"ticket"`
	TenantName        string        `json:"tenant_name"`
	HasUnreadForAdmin bool          `json:"has_unread_for_admin"`
}

// AdminTicketList is one page of tickets across all tenants.
type AdminTicketList struct {
	Items []AdminTicketItem `json:"items"`
	Meta  PageMeta          `json:"meta"`
}

// TicketDetail is a ticket with its full thread, messages ascending by
// creation time.
type TicketDetail struct {
	Ticket   domain.Ticket          `json:"ticket"`
	Messages []domain.TicketMessage `json:"messages"`
}

// TicketQueryService provides role-scoped read access to tickets.
type TicketQueryService struct {
	store   repository.TicketStore
	tenants repository.TenantRepository
	cache   *cache.TicketCache
	logger  *zap.Logger
}

// QueryDependencies bundles collaborators for the query service.
type QueryDependencies struct {
	Store      repository.TicketStore
	TenantRepo repository.TenantRepository
	Cache      *cache.TicketCache
	Logger     *zap.Logger
}

// NewTicketQueryService constructs the service.
func NewTicketQueryService(deps QueryDependencies) *TicketQueryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketQueryService{
		store:   deps.Store,
		tenants: deps.TenantRepo,
		cache:   deps.Cache,
		logger:  logger,
	}
}

// ListForClient returns the actor's own tenant's tickets, most recently
// active first.
func (s *TicketQueryService) ListForClient(ctx context.Context, actor domain.Actor, page, pageSize int) (*ClientTicketList, error) {
	if !actor.IsClient() {
		return nil, apperrors.NewForbidden("client role required")
	}
	page, pageSize = normalizePage(page, pageSize)

	scope := cache.TenantScope(actor.TenantID)
	var cached ClientTicketList
	if s.cache.GetList(ctx, scope, page, pageSize, &cached) {
		return &cached, nil
	}

	tenantID := actor.TenantID
	items, total, err := s.store.List(ctx, repository.TicketFilter{
		TenantID: &tenantID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, err
	}

	result := &ClientTicketList{
		Items: make([]ClientTicketItem, 0, len(items)),
		Meta:  PageMeta{Page: page, PageSize: pageSize, TotalCount: total},
	}
	for _, item := range items {
		result.Items = append(result.Items, ClientTicketItem{
			Ticket:             item.Ticket,
			HasUnreadForClient: item.UnreadForClient,
		})
	}
	s.cache.SetList(ctx, scope, page, pageSize, result)
	return result, nil
}

// GetForClient returns a ticket with its thread, enforcing tenant scope.
// Viewing does not mark messages read; no read-receipt operation exists.
func (s *TicketQueryService) GetForClient(ctx context.Context, actor domain.Actor, ticketID string) (*TicketDetail, error) {
	if !actor.IsClient() {
		return nil, apperrors.NewForbidden("client role required")
	}

	var cached TicketDetail
	if s.cache.GetDetail(ctx, cache.ViewClient, ticketID, &cached) {
		// Scope check applies to cache hits too; a cached detail must never
		// leak across tenants.
		if cached.Ticket.TenantID != actor.TenantID {
			return nil, apperrors.NewForbidden("ticket belongs to another tenant")
		}
		return &cached, nil
	}

	ticket, msgs, err := s.store.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.TenantID != actor.TenantID {
		return nil, apperrors.NewForbidden("ticket belongs to another tenant")
	}

	detail := &TicketDetail{Ticket: *ticket, Messages: msgs}
	s.cache.SetDetail(ctx, cache.ViewClient, ticketID, detail)
	return detail, nil
}

// ListForAdmin returns tickets across all tenants with tenant names attached.
// Name resolution fails closed: a directory error leaves the name empty.
func (s *TicketQueryService) ListForAdmin(ctx context.Context, actor domain.Actor, page, pageSize int) (*AdminTicketList, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	page, pageSize = normalizePage(page, pageSize)

	var cached AdminTicketList
	if s.cache.GetList(ctx, cache.AdminScope, page, pageSize, &cached) {
		return &cached, nil
	}

	items, total, err := s.store.List(ctx, repository.TicketFilter{
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(items))
	result := &AdminTicketList{
		Items: make([]AdminTicketItem, 0, len(items)),
		Meta:  PageMeta{Page: page, PageSize: pageSize, TotalCount: total},
	}
	for _, item := range items {
		name, seen := names[item.Ticket.TenantID]
		if !seen {
			resolved, err := s.tenants.NameOf(ctx, item.Ticket.TenantID)
			if err != nil {
				s.logger.Debug("tenant name lookup failed",
					zap.String("tenant_id", item.Ticket.TenantID), zap.Error(err))
				resolved = ""
			}
			name = resolved
			names[item.Ticket.TenantID] = name
		}
		result.Items = append(result.Items, AdminTicketItem{
			Ticket:            item.Ticket,
			TenantName:        name,
			HasUnreadForAdmin: item.UnreadForAdmin,
		})
	}
	s.cache.SetList(ctx, cache.AdminScope, page, pageSize, result)
	return result, nil
}

// GetForAdmin returns any ticket with its thread; no tenant restriction.
func (s *TicketQueryService) GetForAdmin(ctx context.Context, actor domain.Actor, ticketID string) (*TicketDetail, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}

	var cached TicketDetail
	if s.cache.GetDetail(ctx, cache.ViewAdmin, ticketID, &cached) {
		return &cached, nil
	}

	ticket, msgs, err := s.store.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	detail := &TicketDetail{Ticket: *ticket, Messages: msgs}
	s.cache.SetDetail(ctx, cache.ViewAdmin, ticketID, detail)
	return detail, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return page, pageSize
}
