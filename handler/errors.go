package handler

import (
	"encoding/json"
	"net/http"
)

// writeError writes a {"detail": message} JSON error body, matching the
// shape the original FastAPI service returns on HTTPException.
func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
