package handlers

import (
	"net/http"

	"venue-crm-backend/pkg/pdf"
	"venue-crm-backend/pkg/services"
	"venue-crm-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

type ProposalsHandler struct {
	proposals *services.ProposalService
	bookings  *services.BookingService
	issuer    pdf.Issuer
}

func NewProposalsHandler(proposals *services.ProposalService, bookings *services.BookingService, issuer pdf.Issuer) *ProposalsHandler {
	return &ProposalsHandler{proposals: proposals, bookings: bookings, issuer: issuer}
}

// GET /api/proposals
func (h *ProposalsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	params := listParams(r, "status", "clientId")
	page, err := h.proposals.List(r.Context(), user, params)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writePage(w, page, params)
}

// GET /api/proposals/{id}
func (h *ProposalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	proposal, err := h.proposals.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, proposal)
}

// POST /api/proposals
func (h *ProposalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in services.CreateProposalInput
	if err := utils.ParseJSONBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	proposal, err := h.proposals.Create(r.Context(), user, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteCreatedResponse(w, proposal)
}

// PUT /api/proposals/{id}
func (h *ProposalsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in services.UpdateProposalInput
	if err := utils.ParseJSONBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	proposal, err := h.proposals.Update(r.Context(), user, chi.URLParam(r, "id"), in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, proposal)
}

// DELETE /api/proposals/{id}
func (h *ProposalsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.proposals.Delete(r.Context(), user, id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]string{"id": id, "message": "Proposal deleted"})
}

// POST /api/proposals/{id}/send
func (h *ProposalsHandler) Send(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	proposal, err := h.proposals.Send(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, proposal)
}

// POST /api/proposals/{id}/recalculate
func (h *ProposalsHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	proposal, err := h.proposals.Recalculate(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, proposal)
}

// POST /api/proposals/{id}/convert books one of the proposal's venue options.
func (h *ProposalsHandler) Convert(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in services.CreateBookingInput
	if err := utils.ParseJSONBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	in.ProposalID = chi.URLParam(r, "id")
	booking, err := h.bookings.Create(r.Context(), user, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteCreatedResponse(w, booking)
}

// GET /api/proposals/{id}/pdf
func (h *ProposalsHandler) PDF(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	proposal, err := h.proposals.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	data, err := pdf.RenderProposal(h.issuer, proposal)
	if err != nil {
		utils.WriteError(w, r, utils.NewInternalError(err))
		return
	}
	writeFile(w, "application/pdf", "proposal-"+proposal.ID+".pdf", data)
}
