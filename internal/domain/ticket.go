package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// ValidStatus reports whether the value is a known status.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketType categorizes the request.
type TicketType string

const (
	TicketTypeMaintenance   TicketType = "MAINTENANCE"
	TicketTypeContentUpdate TicketType = "CONTENT_UPDATE"
	TicketTypeBug           TicketType = "BUG"
	TicketTypeBilling       TicketType = "BILLING"
	TicketTypeOther         TicketType = "OTHER"
)

// ValidType reports whether the value is a known ticket type.
func ValidType(t TicketType) bool {
	switch t {
	case TicketTypeMaintenance, TicketTypeContentUpdate, TicketTypeBug, TicketTypeBilling, TicketTypeOther:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityNormal TicketPriority = "NORMAL"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// ValidPriority reports whether the value is a known priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityNormal, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the aggregate for tenant support requests. Status and priority are
// mutable by admin actors only; every other field is fixed at creation.
type Ticket struct {
	ID            string
	TenantID      string
	CreatedByID   string
	Title         string
	Type          TicketType
	Status        TicketStatus
	Priority      TicketPriority
	LastMessageAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
