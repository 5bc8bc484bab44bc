package handlers

import (
	"net/http"

	"venue-crm-backend/pkg/services"
	"venue-crm-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

type VenuesHandler struct {
	venues *services.VenueService
}

func NewVenuesHandler(venues *services.VenueService) *VenuesHandler {
	return &VenuesHandler{venues: venues}
}

// GET /api/venues
func (h *VenuesHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	params := listParams(r, "location")
	page, err := h.venues.List(r.Context(), user, params)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writePage(w, page, params)
}

// GET /api/venues/{id}
func (h *VenuesHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	venue, err := h.venues.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, venue)
}

// POST /api/venues
func (h *VenuesHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in services.CreateVenueInput
	if err := utils.ParseJSONBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	venue, err := h.venues.Create(r.Context(), user, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteCreatedResponse(w, venue)
}

// PUT /api/venues/{id}
func (h *VenuesHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in services.UpdateVenueInput
	if err := utils.ParseJSONBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	venue, err := h.venues.Update(r.Context(), user, chi.URLParam(r, "id"), in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, venue)
}

// GET /api/venues/{id}/deletion-check
func (h *VenuesHandler) DeletionCheck(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	check, err := h.venues.CheckDeletion(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, check)
}

// DELETE /api/venues/{id}
func (h *VenuesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.venues.Delete(r.Context(), user, id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]string{"id": id, "message": "Venue deleted"})
}
