package database

import (
	"fmt"
	"strings"

	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/permissions"
	"venue-crm-backend/pkg/utils"

	"gorm.io/gorm"
)

// Search is a case-insensitive substring match ORed across columns.
func Search(term string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" || len(columns) == 0 {
			return db
		}
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		clauses := make([]string, 0, len(columns))
		args := make([]interface{}, 0, len(columns))
		for _, col := range columns {
			clauses = append(clauses, fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '!'", col))
			args = append(args, pattern)
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return r.Replace(s)
}

// Sort orders by a whitelisted field. allowed maps request names to columns;
// unknown fields fall back to created_at, and order defaults to desc.
func Sort(sortBy, sortOrder string, allowed map[string]string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		column, ok := allowed[sortBy]
		if !ok {
			column = "created_at"
		}
		direction := "DESC"
		if strings.EqualFold(sortOrder, "asc") {
			direction = "ASC"
		}
		return db.Order(column + " " + direction).Order("id " + direction)
	}
}

// Paginate applies offset/limit.
func Paginate(p utils.Pagination) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Limit)
	}
}

// OwnedBy limits a query to rows created by user unless user is an admin.
func OwnedBy(user *models.User, column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if user == nil || !permissions.ScopeToOwner(user) {
			return db
		}
		return db.Where(column+" = ?", user.ID)
	}
}

// CountWhere counts rows of T matching query.
func CountWhere[T any](tx *gorm.DB, query string, args ...interface{}) (int64, error) {
	var count int64
	err := tx.Model(new(T)).Where(query, args...).Count(&count).Error
	return count, err
}

// FindPage runs a filtered query twice: once for the total and once for the page.
func FindPage[T any](query *gorm.DB, p utils.Pagination, scopes ...func(*gorm.DB) *gorm.DB) ([]T, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Model(new(T)).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := make([]T, 0, p.Limit)
	if err := query.Session(&gorm.Session{}).Scopes(scopes...).Scopes(Paginate(p)).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
