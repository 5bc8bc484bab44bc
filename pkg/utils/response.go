package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"venue-crm-backend/pkg/config"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// APIResponse is the envelope every endpoint replies with.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Meta      *Meta       `json:"meta,omitempty"`
	Timestamp string      `json:"timestamp"`
	Path      string      `json:"path,omitempty"`
}

// APIError is the error half of the envelope.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Field   string      `json:"field,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// Meta carries pagination for list responses.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func encode(w http.ResponseWriter, statusCode int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		config.GetLogger().WithError(err).Error("failed to encode response")
	}
}

// WriteJSONResponse writes data wrapped in the success envelope.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	encode(w, statusCode, APIResponse{
		Success:   statusCode >= 200 && statusCode < 300,
		Data:      data,
		Timestamp: now(),
	})
}

func WriteSuccessResponse(w http.ResponseWriter, data interface{}) {
	WriteJSONResponse(w, http.StatusOK, data)
}

func WriteCreatedResponse(w http.ResponseWriter, data interface{}) {
	WriteJSONResponse(w, http.StatusCreated, data)
}

// WritePaginatedResponse writes a page of results with its meta block.
func WritePaginatedResponse(w http.ResponseWriter, data interface{}, meta *Meta) {
	encode(w, http.StatusOK, APIResponse{
		Success:   true,
		Data:      data,
		Meta:      meta,
		Timestamp: now(),
	})
}

// WriteErrorResponseWithCode writes an error envelope without going through AppError.
func WriteErrorResponseWithCode(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	writeAppError(w, r, &AppError{Status: statusCode, Code: code, Message: message})
}

func WriteUnauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	WriteErrorResponseWithCode(w, r, http.StatusUnauthorized, CodeUnauthorized, message)
}

func WriteForbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	WriteErrorResponseWithCode(w, r, http.StatusForbidden, CodeForbidden, message)
}

func WriteNotFoundResponse(w http.ResponseWriter, r *http.Request, message string) {
	WriteErrorResponseWithCode(w, r, http.StatusNotFound, CodeNotFound, message)
}

// WriteError is the single funnel for handler failures. 5xx causes are logged
// at error level with the underlying cause; 4xx at info.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := AsAppError(err)

	entry := config.GetLogger().WithFields(logrus.Fields{
		"code":   appErr.Code,
		"status": appErr.Status,
	})
	if r != nil {
		entry = entry.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		})
	}
	if appErr.Err != nil {
		entry = entry.WithError(appErr.Err)
	}
	if appErr.Status >= http.StatusInternalServerError {
		entry.Error(appErr.Message)
	} else {
		entry.Info(appErr.Message)
	}

	writeAppError(w, r, appErr)
}

func writeAppError(w http.ResponseWriter, r *http.Request, appErr *AppError) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Field:   appErr.Field,
			Details: appErr.Details,
		},
		Timestamp: now(),
	}
	if r != nil {
		response.Path = r.URL.Path
	}
	encode(w, appErr.Status, response)
}

// ParseJSONBody decodes the request body into v. Oversized bodies map to 413.
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return NewPayloadTooLargeError(maxBytesErr.Limit)
		}
		if errors.Is(err, io.EOF) {
			return NewBadRequestError("Request body is empty")
		}
		return NewBadRequestError("Invalid JSON body: " + err.Error())
	}
	return nil
}

// GetQueryParam returns the query value for key, or defaultValue when empty.
func GetQueryParam(r *http.Request, key, defaultValue string) string {
	if value := r.URL.Query().Get(key); value != "" {
		return value
	}
	return defaultValue
}
