package handlers

import (
	"net/http"

	"venue-crm-backend/pkg/services"
	"venue-crm-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// UsersHandler is the admin user management API.
type UsersHandler struct {
	users *services.UserService
}

func NewUsersHandler(users *services.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// GET /api/users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	params := listParams(r, "role")
	page, err := h.users.List(r.Context(), params)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writePage(w, page, params)
}

// GET /api/users/{id}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, user)
}

// POST /api/users
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CreateUserInput
	if err := utils.ParseJSONBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	user, err := h.users.Create(r.Context(), in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteCreatedResponse(w, user)
}

// PATCH /api/users/{id}/role
func (h *UsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in services.UpdateRoleInput
	if err := utils.ParseJSONBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	user, err := h.users.UpdateRole(r.Context(), actor, chi.URLParam(r, "id"), in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, user)
}
