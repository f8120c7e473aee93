package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// request bodies are small json objects, anything above this is rejected.
const maxBodySize = 1 << 20

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Warn("failed to write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJson(w, status, errorResponse{Detail: detail})
}

func readJson(w http.ResponseWriter, r *http.Request, out any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	err := decoder.Decode(out)
	if errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %s", err.Error()))
		return false
	}
	return true
}

type requiredField struct {
	name  string
	value string
}

// requireFields writes a 400 naming the first empty field.
func requireFields(w http.ResponseWriter, fields ...requiredField) bool {
	for _, f := range fields {
		if f.value == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s is required", f.name))
			return false
		}
	}
	return true
}
