// Package permissions holds the static role table. The table is built once
// and never mutated; callers only ever receive copies.
package permissions

import (
	"sort"

	"venue-crm-backend/pkg/models"
)

// Permission is "resource:action".
type Permission string

const (
	ClientsRead   Permission = "clients:read"
	ClientsCreate Permission = "clients:create"
	ClientsUpdate Permission = "clients:update"
	ClientsDelete Permission = "clients:delete"

	VenuesRead   Permission = "venues:read"
	VenuesCreate Permission = "venues:create"
	VenuesUpdate Permission = "venues:update"
	VenuesDelete Permission = "venues:delete"

	ProposalsRead   Permission = "proposals:read"
	ProposalsCreate Permission = "proposals:create"
	ProposalsUpdate Permission = "proposals:update"
	ProposalsDelete Permission = "proposals:delete"

	BookingsRead   Permission = "bookings:read"
	BookingsCreate Permission = "bookings:create"
	BookingsUpdate Permission = "bookings:update"
	BookingsDelete Permission = "bookings:delete"

	ClaimsRead   Permission = "claims:read"
	ClaimsCreate Permission = "claims:create"
	ClaimsUpdate Permission = "claims:update"
	ClaimsDelete Permission = "claims:delete"

	ReportsRead Permission = "reports:read"
	ReportsAll  Permission = "reports:all"

	UsersRead   Permission = "users:read"
	UsersManage Permission = "users:manage"
)

var consultantPermissions = []Permission{
	ClientsRead, ClientsCreate, ClientsUpdate, ClientsDelete,
	VenuesRead, VenuesCreate, VenuesUpdate, VenuesDelete,
	ProposalsRead, ProposalsCreate, ProposalsUpdate, ProposalsDelete,
	BookingsRead, BookingsCreate, BookingsUpdate, BookingsDelete,
	ClaimsRead, ClaimsCreate, ClaimsUpdate, ClaimsDelete,
	ReportsRead,
}

var adminOnlyPermissions = []Permission{ReportsAll, UsersRead, UsersManage}

var rolePermissions = buildTable()

func buildTable() map[models.Role]map[Permission]struct{} {
	toSet := func(lists ...[]Permission) map[Permission]struct{} {
		set := make(map[Permission]struct{})
		for _, list := range lists {
			for _, p := range list {
				set[p] = struct{}{}
			}
		}
		return set
	}
	return map[models.Role]map[Permission]struct{}{
		models.RoleConsultant: toSet(consultantPermissions),
		models.RoleAdmin:      toSet(consultantPermissions, adminOnlyPermissions),
	}
}

// HasPermission reports whether the user's role grants perm.
func HasPermission(user *models.User, perm Permission) bool {
	if user == nil {
		return false
	}
	set, ok := rolePermissions[user.Role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// CanAccessOwnResource is true for admins, or when the user created the resource.
func CanAccessOwnResource(user *models.User, resourceCreatorID string) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	return resourceCreatorID != "" && user.ID == resourceCreatorID
}

// CanAccess is CanAccessOwnResource for any owned record.
func CanAccess(user *models.User, resource models.Owned) bool {
	return CanAccessOwnResource(user, resource.OwnerID())
}

// ForRole returns a sorted copy of the permissions granted to role.
func ForRole(role models.Role) []Permission {
	set := rolePermissions[role]
	out := make([]Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ScopeToOwner reports whether list queries for user must be limited to their own rows.
func ScopeToOwner(user *models.User) bool {
	return !user.IsAdmin()
}
