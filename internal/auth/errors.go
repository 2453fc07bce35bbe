package auth

import (
	"encoding/json"
	"net/http"

	"github.com/homwrkk/IUI/internal/logger"
)

type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(AuthError{
		Code:    code,
		Message: message,
	}); err != nil {
		logger.Log.Error("failed to write JSON error", "error", err)
	}
}
