package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/licensedesk/api/internal/enum"
	"github.com/licensedesk/api/internal/ledger"
	"github.com/licensedesk/api/internal/logger"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode JSON response", zap.Error(err))
	}
}

// writeOK answers 200 with body plus "success": true.
func writeOK(w http.ResponseWriter, body map[string]any) {
	if body == nil {
		body = map[string]any{}
	}
	body["success"] = true
	writeJSON(w, http.StatusOK, body)
}

func writeError(w http.ResponseWriter, status int, reason, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   reason,
		"message": message,
	})
}

// writeInternal logs err with request context and answers a generic 500.
func writeInternal(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger.FromContext(r.Context()).Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, enum.ReasonInternalError, "internal server error")
}

// writeLedgerError maps ledger errors to status codes. Infrastructure errors
// are logged and never echoed to the client.
func writeLedgerError(w http.ResponseWriter, r *http.Request, op string, err error) {
	reason := ledger.Reason(err)
	switch {
	case errors.Is(err, ledger.ErrInvalidSalePrice),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInsufficientBalance):
		writeError(w, http.StatusBadRequest, reason, err.Error())
	case errors.Is(err, ledger.ErrAgentNotFound):
		writeError(w, http.StatusNotFound, reason, "agent not found")
	case errors.Is(err, ledger.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, reason, "customer not found")
	case errors.Is(err, ledger.ErrLedgerBusy):
		logger.FromContext(r.Context()).Warn(op, zap.Error(err))
		w.Header().Set("Retry-After", strconv.Itoa(1))
		writeError(w, http.StatusServiceUnavailable, reason, "ledger is busy, retry the request")
	default:
		writeInternal(w, r, op, err)
	}
}

// decodeJSON reads a JSON body of at most maxBodyBytes into dst, answering
// 400 invalid_request on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, enum.ReasonInvalidRequest, "invalid request body")
		return false
	}
	return true
}
