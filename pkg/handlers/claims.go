package handlers

import (
	"net/http"

	"venue-crm-backend/pkg/pdf"
	"venue-crm-backend/pkg/services"
	"venue-crm-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

type ClaimsHandler struct {
	claims *services.ClaimService
	issuer pdf.Issuer
}

func NewClaimsHandler(claims *services.ClaimService, issuer pdf.Issuer) *ClaimsHandler {
	return &ClaimsHandler{claims: claims, issuer: issuer}
}

// GET /api/claims
func (h *ClaimsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	params := listParams(r, "status", "bookingId")
	page, err := h.claims.List(r.Context(), user, params)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writePage(w, page, params)
}

// GET /api/claims/{id}
func (h *ClaimsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	claim, err := h.claims.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, claim)
}

// POST /api/claims
func (h *ClaimsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in services.CreateClaimInput
	if err := utils.ParseJSONBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	claim, err := h.claims.Create(r.Context(), user, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteCreatedResponse(w, claim)
}

// PUT /api/claims/{id}
func (h *ClaimsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in services.UpdateClaimInput
	if err := utils.ParseJSONBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	claim, err := h.claims.Update(r.Context(), user, chi.URLParam(r, "id"), in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, claim)
}

// DELETE /api/claims/{id}
func (h *ClaimsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.claims.Delete(r.Context(), user, id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]string{"id": id, "message": "Claim deleted"})
}

// GET /api/claims/{id}/invoice
func (h *ClaimsHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	claim, err := h.claims.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	data, err := pdf.RenderClaimInvoice(h.issuer, claim)
	if err != nil {
		utils.WriteError(w, r, utils.NewInternalError(err))
		return
	}
	name := claim.ID
	if claim.InvoiceNumber != nil {
		name = *claim.InvoiceNumber
	}
	writeFile(w, "application/pdf", name+".pdf", data)
}
