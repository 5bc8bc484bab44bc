package handlers

import (
	"net/http"
	"time"

	"venue-crm-backend/pkg/export"
	"venue-crm-backend/pkg/services"
	"venue-crm-backend/pkg/utils"
)

type ReportsHandler struct {
	reports *services.ReportService
}

func NewReportsHandler(reports *services.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

// GET /api/reports/dashboard
func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	report, err := h.reports.Dashboard(r.Context(), user)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, report)
}

// GET /api/reports/pipeline
func (h *ReportsHandler) Pipeline(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	report, err := h.reports.Pipeline(r.Context(), user)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, report)
}

// GET /api/reports/commission?from=&to=
func (h *ReportsHandler) Commission(w http.ResponseWriter, r *http.Request) {
	report, ok := h.commission(w, r)
	if !ok {
		return
	}
	utils.WriteSuccessResponse(w, report)
}

// GET /api/reports/commission/export
func (h *ReportsHandler) ExportCommission(w http.ResponseWriter, r *http.Request) {
	report, ok := h.commission(w, r)
	if !ok {
		return
	}
	data, err := export.CommissionWorkbook(report)
	if err != nil {
		utils.WriteError(w, r, utils.NewInternalError(err))
		return
	}
	writeFile(w, export.ContentTypeXLSX, "commission-"+time.Now().UTC().Format("20060102")+".xlsx", data)
}

func (h *ReportsHandler) commission(w http.ResponseWriter, r *http.Request) (*services.CommissionReport, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return nil, false
	}
	from, err := parseDate(r.URL.Query().Get("from"), "from")
	if err != nil {
		utils.WriteError(w, r, err)
		return nil, false
	}
	to, err := parseDate(r.URL.Query().Get("to"), "to")
	if err != nil {
		utils.WriteError(w, r, err)
		return nil, false
	}
	if from != nil && to != nil && to.Before(*from) {
		utils.WriteError(w, r, utils.NewValidationError("to must not be before from", "to"))
		return nil, false
	}
	report, err := h.reports.Commission(r.Context(), user, from, to)
	if err != nil {
		utils.WriteError(w, r, err)
		return nil, false
	}
	return report, true
}
