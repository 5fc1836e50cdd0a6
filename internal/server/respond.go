package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/foldview/foldview/pkg/errors"
	"github.com/foldview/foldview/pkg/graph"
)

// errorResponse is the JSON shape of every error reply.
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var resp errorResponse
	resp.Error.Code = string(errors.GetCode(err))
	if resp.Error.Code == "" {
		resp.Error.Code = string(errors.ErrCodeInternal)
	}
	resp.Error.Message = errors.UserMessage(err)
	writeJSON(w, statusFor(err), resp)
}

// statusFor maps error codes to HTTP status codes. An invariant violation is
// a hard failure of the engine itself, never a client error.
func statusFor(err error) int {
	var inv *graph.InvariantError
	if stderrors.As(err, &inv) {
		return http.StatusInternalServerError
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound, errors.ErrCodeDocumentNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvariant, errors.ErrCodeInternal:
		return http.StatusInternalServerError
	case errors.ErrCodeStorage:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
