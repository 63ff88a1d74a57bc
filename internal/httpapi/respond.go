package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/types"
)

// writeResponse answers in the encoding the request arrived in.
func writeResponse(w http.ResponseWriter, r *http.Request, status int, v any) {
	if isProtobuf(r) {
		msg, err := structFrom(v)
		if err != nil {
			http.Error(w, "proto encode error", http.StatusInternalServerError)
			return
		}
		writeProto(w, status, msg)
		return
	}
	writeJSON(w, status, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeResponse(w, r, status, types.ErrorResponse{Status: "error", Message: message})
}
