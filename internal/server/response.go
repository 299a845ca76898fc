package server

import (
	"encoding/json"
	"net/http"

	"github.com/koustreak/DatEd/internal/errs"
	"github.com/koustreak/DatEd/internal/logger"
)

// redactedError is the only text an internal failure may show a client.
// The real error goes to the server log.
const redactedError = "Internal server error"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and a client-safe body. Validation
// failures carry their message; everything else is logged and redacted.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errs.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errs.Message(err)})
	case errs.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: errs.Message(err)})
	default:
		logger.FromContext(r.Context()).With().Err(err).Logger().Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: redactedError})
	}
}
