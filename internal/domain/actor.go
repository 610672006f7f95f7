package domain

// ActorRole differentiates tenant-side users from administrative staff.
type ActorRole string

const (
	RoleClient ActorRole = "CLIENT"
	RoleAdmin  ActorRole = "ADMIN"
)

// Actor is the authenticated identity issuing a request. It is supplied per
// request by the auth collaborator and passed explicitly through every
// service operation; the core never reads it from ambient state.
type Actor struct {
	ID       string
	Role     ActorRole
	TenantID string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsClient reports whether the actor holds the client role.
func (a Actor) IsClient() bool {
	return a.Role == RoleClient
}
