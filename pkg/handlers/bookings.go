package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"venue-crm-backend/pkg/config"
	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/pdf"
	"venue-crm-backend/pkg/services"
	"venue-crm-backend/pkg/storage"
	"venue-crm-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

const maxDocumentMemory = 8 << 20

type BookingsHandler struct {
	bookings  *services.BookingService
	documents storage.DocumentStore
	issuer    pdf.Issuer
	baseURL   string
}

// NewBookingsHandler builds the handler. baseURL prefixes the document download links.
func NewBookingsHandler(bookings *services.BookingService, documents storage.DocumentStore, issuer pdf.Issuer, baseURL string) *BookingsHandler {
	return &BookingsHandler{
		bookings:  bookings,
		documents: documents,
		issuer:    issuer,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// GET /api/bookings
func (h *BookingsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	params := listParams(r, "status", "clientId", "venueId")
	page, err := h.bookings.List(r.Context(), user, params)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writePage(w, page, params)
}

// GET /api/bookings/{id}
func (h *BookingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	booking, err := h.bookings.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, booking)
}

// POST /api/bookings
func (h *BookingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in services.CreateBookingInput
	if err := utils.ParseJSONBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	booking, err := h.bookings.Create(r.Context(), user, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteCreatedResponse(w, booking)
}

// PUT /api/bookings/{id}
func (h *BookingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in services.UpdateBookingInput
	if err := utils.ParseJSONBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	booking, err := h.bookings.Update(r.Context(), user, chi.URLParam(r, "id"), in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, booking)
}

// PATCH /api/bookings/{id}/status
func (h *BookingsHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in services.StatusChangeInput
	if err := utils.ParseJSONBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	booking, err := h.bookings.ChangeStatus(r.Context(), user, chi.URLParam(r, "id"), in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, booking)
}

// DELETE /api/bookings/{id}
func (h *BookingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.bookings.Delete(r.Context(), user, id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]string{"id": id, "message": "Booking deleted"})
}

// POST /api/bookings/{id}/documents takes a multipart "file" field.
func (h *BookingsHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.bookings.Authorize(r.Context(), user, id); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxDocumentMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			utils.WriteError(w, r, utils.NewPayloadTooLargeError(maxBytesErr.Limit))
			return
		}
		utils.WriteError(w, r, utils.NewBadRequestError("Expected a multipart/form-data body"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, r, utils.NewValidationError("file is required", "file"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := storage.DocumentKey(id, header.Filename)
	if err := h.documents.Put(r.Context(), key, contentType, file, header.Size); err != nil {
		utils.WriteError(w, r, utils.NewInternalError(err))
		return
	}

	booking, err := h.bookings.AddDocument(r.Context(), user, id, models.DocumentRef{
		Key:          key,
		Name:         header.Filename,
		ContentType:  contentType,
		Size:         header.Size,
		URL:          fmt.Sprintf("%s/api/bookings/%s/documents/%s", h.baseURL, id, path.Base(key)),
		UploadedAt:   time.Now().UTC(),
		UploadedByID: user.ID,
	})
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteCreatedResponse(w, booking)
}

// GET /api/bookings/{id}/documents/{name} streams a document attached to the booking.
func (h *BookingsHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	ref, err := h.bookings.Document(r.Context(), user, chi.URLParam(r, "id"), chi.URLParam(r, "name"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	body, err := h.documents.Get(r.Context(), ref.Key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.WriteError(w, r, utils.NewNotFoundError("Document"))
			return
		}
		utils.WriteError(w, r, utils.NewInternalError(err))
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", ref.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ref.Name))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		config.GetLogger().WithError(err).WithField("key", ref.Key).Warn("document stream interrupted")
	}
}

// GET /api/bookings/{id}/confirmation
func (h *BookingsHandler) Confirmation(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	booking, err := h.bookings.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	data, err := pdf.RenderBookingConfirmation(h.issuer, booking)
	if err != nil {
		utils.WriteError(w, r, utils.NewInternalError(err))
		return
	}
	writeFile(w, "application/pdf", "booking-"+booking.ID+".pdf", data)
}
