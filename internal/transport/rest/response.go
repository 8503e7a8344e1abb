package rest

import (
	"encoding/json"
	"log"
	"net/http"
)

func writeJSON(w http.ResponseWriter, httpStatus int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] write response error: %v", err)
	}
}

// writeError emits the portal's error contract: {"error": "<message>"}.
func writeError(w http.ResponseWriter, httpStatus int, message string) {
	writeJSON(w, httpStatus, map[string]string{"error": message})
}
