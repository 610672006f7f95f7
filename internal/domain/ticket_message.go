package domain

import "time"

// TicketMessage captures one entry in a ticket thread. The two read flags
// track each side independently: the authoring side is marked read at
// creation, the opposite side unread.
type TicketMessage struct {
	ID             string
	TicketID       string
	TenantID       string
	AuthorID       string
	AuthorRole     ActorRole
	Body           string
	IsReadByClient bool
	IsReadByAdmin  bool
	CreatedAt      time.Time
}
