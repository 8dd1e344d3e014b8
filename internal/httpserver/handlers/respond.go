package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/panelshop/internal/logger"
	"github.com/MrSnakeDoc/panelshop/internal/shop"
	"github.com/MrSnakeDoc/panelshop/internal/store"
	"github.com/MrSnakeDoc/panelshop/internal/validation"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps shop, validation and store errors to a status code.
// Anything unrecognised is logged and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, log logger.Logger, err error) {
	var (
		reqErr  *validation.Error
		shopErr *shop.ValidationError
		missing *shop.NotFoundError
		upErr   *shop.UpstreamError
	)

	switch {
	case errors.As(err, &reqErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: reqErr.Message, Fields: reqErr.Fields})
	case errors.As(err, &shopErr):
		writeError(w, http.StatusBadRequest, shopErr.Message)
	case errors.Is(err, shop.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, shop.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden")
	case errors.As(err, &missing):
		writeError(w, http.StatusNotFound, missing.Error())
	case errors.Is(err, shop.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.As(err, &upErr):
		writeError(w, http.StatusBadGateway, upErr.Message)
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "Order was updated concurrently, please retry")
	default:
		log.Error("request failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
