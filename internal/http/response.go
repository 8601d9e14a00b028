package http

import (
	"encoding/json"
	"net/http"
)

// API responses follow a uniform envelope: {"status":"success","data":...}
// or {"status":"error","message":...}.
type (
	successEnvelope struct {
		Status string `json:"status"`
		Data   any    `json:"data"`
	}

	errorEnvelope struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
)

func writeSuccess(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(successEnvelope{Status: "success", Data: data})
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Status: "error", Message: message})
}
