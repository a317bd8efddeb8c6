package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ordervox/ordervox/pkg/gateway/mw"
)

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func writeErrorJSON(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: apiError{
		Code:      code,
		Message:   message,
		RequestID: reqID,
	}})
}
