package models

// Role gates what a user may do beyond their own content.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

type Capability int

const (
	// CapEditAnyRecipe allows editing recipes authored by someone else.
	CapEditAnyRecipe Capability = iota
	// CapDeleteAnyRecipe allows deleting recipes authored by someone else.
	CapDeleteAnyRecipe
	// CapManageCatalog allows creating tags and ingredients.
	CapManageCatalog
	// CapReconcileAggregates allows inspecting and repairing other users' shopping lists.
	CapReconcileAggregates
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin:     {CapEditAnyRecipe, CapDeleteAnyRecipe, CapManageCatalog, CapReconcileAggregates},
	RoleModerator: {CapEditAnyRecipe, CapDeleteAnyRecipe},
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// Can reports whether the role grants capability c. Unknown roles grant nothing.
func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}
