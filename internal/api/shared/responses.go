package shared

import (
	"encoding/json"
	"net/http"

	"github.com/phrazzld/profile-api/internal/platform/logger"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Message string              `json:"message"`
	Issues  map[string][]string `json:"issues,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithStatus writes a response with no body.
func RespondWithStatus(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}
