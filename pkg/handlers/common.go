// Package handlers holds the HTTP layer: decode, call a service, write the envelope.
package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"venue-crm-backend/pkg/middleware"
	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/services"
	"venue-crm-backend/pkg/utils"
)

const defaultPageSize = 20

// listParams reads page, limit, search, sortBy, sortOrder and the named filters.
func listParams(r *http.Request, filters ...string) services.ListParams {
	q := r.URL.Query()
	params := services.ListParams{
		Pagination: utils.ParsePagination(r, defaultPageSize),
		Search:     strings.TrimSpace(q.Get("search")),
		SortBy:     q.Get("sortBy"),
		SortOrder:  q.Get("sortOrder"),
		Filters:    make(map[string]string, len(filters)),
	}
	for _, f := range filters {
		if v := q.Get(f); v != "" {
			params.Filters[f] = v
		}
	}
	return params
}

// currentUser writes a 401 and returns false when the request is anonymous.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return nil, false
	}
	return user, true
}

func writePage[T any](w http.ResponseWriter, page *services.Page[T], params services.ListParams) {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	utils.WritePaginatedResponse(w, items, page.Meta(params.Pagination))
}

func writeFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// parseDate accepts RFC 3339 or a bare YYYY-MM-DD.
func parseDate(value, field string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t, nil
	}
	return nil, utils.NewValidationError(field+" must be a date (YYYY-MM-DD or RFC 3339)", field)
}
