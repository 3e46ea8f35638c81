package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/motobook/backend/internal/business"
	"github.com/motobook/backend/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeStoreError maps the error taxonomy onto HTTP codes. Guard failures get
// 409 so clients can show "someone else already took this job" instead of
// "order vanished"; store internals never leak into 500 bodies.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrNotFound), errors.Is(err, business.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, orders.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "order is not in the expected state")
	default:
		writeError(w, http.StatusInternalServerError, "storage failure")
	}
}
