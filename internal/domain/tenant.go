package domain

import "time"

// Tenant is a customer organization, the unit of data isolation for
// client-role access.
type Tenant struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
