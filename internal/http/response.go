package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Ahmed0rashed/laya-store-backend/internal/domain"
	"github.com/Ahmed0rashed/laya-store-backend/internal/logger"
	"github.com/Ahmed0rashed/laya-store-backend/internal/service"
	"go.uber.org/zap"
)

// Envelope is the shape of every JSON response.
type Envelope struct {
	Success    bool                 `json:"success"`
	Message    string               `json:"message,omitempty"`
	Data       interface{}          `json:"data,omitempty"`
	Pagination *domain.Pagination   `json:"pagination,omitempty"`
	Errors     []service.FieldError `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func respondOK(w http.ResponseWriter, status int, message string, data interface{}) {
	respondJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

func respondFail(w http.ResponseWriter, status int, message string, fields ...service.FieldError) {
	respondJSON(w, status, Envelope{Success: false, Message: message, Errors: fields})
}

// respondError maps a service error onto its status. Anything untyped is a
// 500 with a generic message; the cause is only logged.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var se *service.Error
	if errors.As(err, &se) && se.Kind != service.KindInternal {
		respondFail(w, se.HTTPStatus(), se.Message, se.Fields...)
		return
	}

	logger.FromContext(r.Context()).Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	respondFail(w, http.StatusInternalServerError, "Something went wrong")
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return service.NewValidationError("Request body too large")
	}
	return service.NewValidationError("Invalid JSON body")
}
