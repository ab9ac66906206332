package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/davex-ai/SwiftBites/internal/domain"
	"github.com/davex-ai/SwiftBites/internal/logger"
	"go.uber.org/zap"
)

const maxRequestBodySize = 1 << 20 // 1MB

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters only where one error wraps another.
var errorMappings = []errorMapping{
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{domain.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{domain.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
	{domain.ErrNotificationNotFound, http.StatusNotFound, "notification_not_found"},
	{domain.ErrOutOfStock, http.StatusConflict, "out_of_stock"},
	{domain.ErrDuplicateOrder, http.StatusConflict, "duplicate_order"},
	{domain.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{domain.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
	{domain.ErrInvalidShippingInfo, http.StatusBadRequest, "invalid_shipping_info"},
	{domain.ErrInvalidTransition, http.StatusBadRequest, "invalid_transition"},
	{domain.ErrInvalidLineItem, http.StatusBadRequest, "invalid_line_item"},
	{domain.ErrStorageUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps domain errors to HTTP. Server-side failures are
// logged and their details withheld from the client.
func handleServiceError(w http.ResponseWriter, r *http.Request, l *zap.Logger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.status >= http.StatusInternalServerError {
				logger.WithContext(r.Context(), l).Error("request failed", zap.String("code", m.code), zap.Error(err))
				respondError(w, m.status, m.code, http.StatusText(m.status))
				return
			}
			respondError(w, m.status, m.code, err.Error())
			return
		}
	}

	logger.WithContext(r.Context(), l).Error("unhandled error", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

// decodeJSON rejects bodies that are not a single JSON document.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
