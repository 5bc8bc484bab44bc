package handlers

import (
	"net/http"

	"venue-crm-backend/pkg/services"
	"venue-crm-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

type ClientsHandler struct {
	clients *services.ClientService
}

func NewClientsHandler(clients *services.ClientService) *ClientsHandler {
	return &ClientsHandler{clients: clients}
}

// GET /api/clients
func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	params := listParams(r)
	page, err := h.clients.List(r.Context(), user, params)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writePage(w, page, params)
}

// GET /api/clients/{id}
func (h *ClientsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	client, err := h.clients.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, client)
}

// POST /api/clients
func (h *ClientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in services.CreateClientInput
	if err := utils.ParseJSONBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	client, err := h.clients.Create(r.Context(), user, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteCreatedResponse(w, client)
}

// PUT /api/clients/{id}
func (h *ClientsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in services.UpdateClientInput
	if err := utils.ParseJSONBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	client, err := h.clients.Update(r.Context(), user, chi.URLParam(r, "id"), in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, client)
}

// GET /api/clients/{id}/deletion-check
func (h *ClientsHandler) DeletionCheck(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	check, err := h.clients.CheckDeletion(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, check)
}

// DELETE /api/clients/{id}
func (h *ClientsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.clients.Delete(r.Context(), user, id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]string{"id": id, "message": "Client deleted"})
}
