package models

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Identity is the authenticated principal performing actions. The role is
// resolved once when the identity is created and never recomputed.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// AdminIdentity is the distinguished identity installed by the admin bypass
// login and by the persisted bypass flag at startup.
func AdminIdentity() *Identity {
	return &Identity{
		ID:          "admin",
		DisplayName: "admin",
		Role:        RoleAdmin,
	}
}

// ResolveRole derives the role from the display name. The admin account is a
// single hardcoded principal; everyone else is a customer.
func ResolveRole(displayName string) Role {
	if displayName == "admin" {
		return RoleAdmin
	}
	return RoleCustomer
}
