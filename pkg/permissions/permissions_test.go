package permissions

import (
	"testing"

	"venue-crm-backend/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	admin := &models.User{Base: models.Base{ID: "a"}, Role: models.RoleAdmin}
	consultant := &models.User{Base: models.Base{ID: "c"}, Role: models.RoleConsultant}

	tests := []struct {
		name string
		user *models.User
		perm Permission
		want bool
	}{
		{"admin reads clients", admin, ClientsRead, true},
		{"admin manages users", admin, UsersManage, true},
		{"consultant creates bookings", consultant, BookingsCreate, true},
		{"consultant cannot manage users", consultant, UsersManage, false},
		{"consultant cannot see all reports", consultant, ReportsAll, false},
		{"nil user", nil, ClientsRead, false},
		{"unknown role", &models.User{Role: "guest"}, ClientsRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.user, tt.perm))
		})
	}
}

func TestAdminIsSupersetOfConsultant(t *testing.T) {
	admin := &models.User{Role: models.RoleAdmin}
	for _, p := range ForRole(models.RoleConsultant) {
		assert.True(t, HasPermission(admin, p), "admin lacks %s", p)
	}
	assert.Greater(t, len(ForRole(models.RoleAdmin)), len(ForRole(models.RoleConsultant)))
}

func TestCanAccessOwnResource(t *testing.T) {
	admin := &models.User{Base: models.Base{ID: "a"}, Role: models.RoleAdmin}
	consultant := &models.User{Base: models.Base{ID: "c"}, Role: models.RoleConsultant}

	assert.True(t, CanAccessOwnResource(admin, "someone-else"))
	assert.True(t, CanAccessOwnResource(consultant, "c"))
	assert.False(t, CanAccessOwnResource(consultant, "someone-else"))
	assert.False(t, CanAccessOwnResource(consultant, ""))
	assert.False(t, CanAccessOwnResource(nil, "c"))

	assert.True(t, CanAccess(consultant, &models.Client{CreatedByID: "c"}))
}

func TestForRoleReturnsCopy(t *testing.T) {
	perms := ForRole(models.RoleConsultant)
	perms[0] = UsersManage

	consultant := &models.User{Role: models.RoleConsultant}
	assert.False(t, HasPermission(consultant, UsersManage))
}

func TestScopeToOwner(t *testing.T) {
	assert.False(t, ScopeToOwner(&models.User{Role: models.RoleAdmin}))
	assert.True(t, ScopeToOwner(&models.User{Role: models.RoleConsultant}))
	assert.True(t, ScopeToOwner(nil))
}
