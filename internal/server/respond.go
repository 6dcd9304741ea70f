package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/joseph-ayodele/voice-studio/internal/common"
)

type errorBody struct {
	Error string `json:"error"`
}

type failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code. Client errors use {error}, server
// errors use {success:false, error}.
func writeError(w http.ResponseWriter, err error) {
	status := common.HTTPStatus(err)
	switch {
	case status == http.StatusUnauthorized:
		writeJSON(w, status, errorBody{Error: "Authentication failed"})
	case status >= 500:
		writeJSON(w, status, failure{Success: false, Error: common.PublicMessage(err)})
	default:
		writeJSON(w, status, errorBody{Error: common.PublicMessage(err)})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return common.InvalidInputError("request body too large")
		case errors.Is(err, io.EOF):
			return common.InvalidInputError("request body is empty")
		default:
			return common.InvalidInputError(fmt.Sprintf("invalid JSON body: %v", err))
		}
	}
	return nil
}
