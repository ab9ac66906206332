package domain

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is what the authentication collaborator resolves a request to.
type Identity struct {
	UserID string
	Role   Role
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

func (i Identity) IsAdmin() bool {
	return i.Authenticated() && i.Role == RoleAdmin
}
