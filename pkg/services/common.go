// Package services holds the business rules of the CRM: ownership checks,
// totals recomputation, the booking workflow and guarded deletes. Every
// multi-row write runs inside one database transaction.
package services

import (
	"strings"

	"venue-crm-backend/pkg/database"
	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/permissions"
	"venue-crm-backend/pkg/utils"

	"gorm.io/gorm"
)

// ListParams are the common list query options.
type ListParams struct {
	Pagination utils.Pagination
	Search     string
	SortBy     string
	SortOrder  string
	Filters    map[string]string
}

// Filter returns the trimmed filter value for key.
func (p ListParams) Filter(key string) string {
	if p.Filters == nil {
		return ""
	}
	return strings.TrimSpace(p.Filters[key])
}

// Page is one page of results plus the total row count.
type Page[T any] struct {
	Items []T
	Total int64
}

// Meta builds the response meta for the page.
func (p *Page[T]) Meta(pg utils.Pagination) *utils.Meta {
	return pg.Meta(p.Total)
}

// loadOwned fetches a record by id and checks the caller may access it.
func loadOwned[T any, PT interface {
	*T
	models.Owned
}](tx *gorm.DB, user *models.User, id, resource string, preloads ...string) (*T, error) {
	var rec T
	q := tx
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if err := q.First(&rec, "id = ?", id).Error; err != nil {
		return nil, database.NotFoundOr(err, resource)
	}
	if !permissions.CanAccess(user, PT(&rec)) {
		return nil, utils.NewForbiddenError("You do not have access to this " + strings.ToLower(resource))
	}
	return &rec, nil
}

// setOptional records a change to a nullable text column. Blank clears it.
func setOptional(updates map[string]interface{}, column string, v *string) {
	if v != nil {
		updates[column] = utils.NullableString(v)
	}
}

// blankToNil replaces blank strings with nil in place.
func blankToNil(fields ...**string) {
	for _, f := range fields {
		*f = utils.NullableString(*f)
	}
}
