package database

import (
	"context"
	"testing"

	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUsers(t *testing.T, db *GormDatabase, emails ...string) {
	t.Helper()
	for _, email := range emails {
		require.NoError(t, db.DB(context.Background()).Create(&models.User{Email: email, Name: email, Role: models.RoleConsultant}).Error)
	}
}

func TestFindPageWithSearchAndSort(t *testing.T) {
	db, err := NewInMemoryDatabase(t.Name())
	require.NoError(t, err)
	defer db.Close()

	seedUsers(t, db, "ana@x.example", "ben@x.example", "cara@y.example", "dan@x.example", "eve@x.example")

	query := db.DB(context.Background()).Model(&models.User{}).Scopes(Search("X.EXAMPLE", "email"))
	items, total, err := FindPage[models.User](query, utils.NewPagination(2, 2),
		Sort("email", "asc", map[string]string{"email": "email"}))
	require.NoError(t, err)

	assert.Equal(t, int64(4), total)
	require.Len(t, items, 2)
	assert.Equal(t, "dan@x.example", items[0].Email)
	assert.Equal(t, "eve@x.example", items[1].Email)
}

func TestSearchEscapesWildcards(t *testing.T) {
	db, err := NewInMemoryDatabase(t.Name())
	require.NoError(t, err)
	defer db.Close()

	seedUsers(t, db, "100%@x.example", "100a@x.example")

	var users []models.User
	require.NoError(t, db.DB(context.Background()).Scopes(Search("100%", "email")).Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "100%@x.example", users[0].Email)
}

func TestOwnedBy(t *testing.T) {
	db, err := NewInMemoryDatabase(t.Name())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	owner := &models.User{Email: "o@x.example", Role: models.RoleConsultant}
	other := &models.User{Email: "p@x.example", Role: models.RoleConsultant}
	admin := &models.User{Email: "a@x.example", Role: models.RoleAdmin}
	require.NoError(t, db.DB(ctx).Create(owner).Error)
	require.NoError(t, db.DB(ctx).Create(other).Error)
	require.NoError(t, db.DB(ctx).Create(admin).Error)
	require.NoError(t, db.DB(ctx).Create(&models.Client{Name: "Mine", CreatedByID: owner.ID}).Error)
	require.NoError(t, db.DB(ctx).Create(&models.Client{Name: "Theirs", CreatedByID: other.ID}).Error)

	count := func(u *models.User) int64 {
		var n int64
		require.NoError(t, db.DB(ctx).Model(&models.Client{}).Scopes(OwnedBy(u, "created_by_id")).Count(&n).Error)
		return n
	}
	assert.Equal(t, int64(1), count(owner))
	assert.Equal(t, int64(2), count(admin))
}

func TestSortFallsBackToCreatedAt(t *testing.T) {
	db, err := NewInMemoryDatabase(t.Name())
	require.NoError(t, err)
	defer db.Close()

	stmt := db.DB(context.Background()).Session(&gorm.Session{DryRun: true}).Model(&models.User{}).
		Scopes(Sort("password; DROP TABLE users", "sideways", map[string]string{"email": "email"})).
		Find(&[]models.User{}).Statement
	assert.Contains(t, stmt.SQL.String(), "ORDER BY created_at DESC,id DESC")
}

func TestFindPagePastTheEndIsEmpty(t *testing.T) {
	db, err := NewInMemoryDatabase(t.Name())
	require.NoError(t, err)
	defer db.Close()

	seedUsers(t, db, "ana@x.example", "ben@x.example")

	query := db.DB(context.Background()).Model(&models.User{})
	items, total, err := FindPage[models.User](query, utils.NewPagination(int(^uint(0)>>1), 100))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Empty(t, items)
}
