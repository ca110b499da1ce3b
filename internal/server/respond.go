package server

import (
	"encoding/json"
	"net/http"

	"github.com/graphsim/fuzzygraph/pkg/errors"
)

type errorBody struct {
	Code  errors.Code `json:"code,omitempty"`
	Error string      `json:"error"`
}

func newErrorBody(err error) errorBody {
	return errorBody{Code: errors.GetCode(err), Error: errors.UserMessage(err)}
}

// statusFor maps an error code to its HTTP status.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeDuplicateEdge:
		return http.StatusConflict
	case errors.ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case errors.ErrCodeTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v before writing the header, so an unencodable value
// becomes a 500 instead of an empty 2xx.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"code":"INTERNAL_ERROR","error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, newErrorBody(err))
}

// decode reads a JSON request body into v. Unknown fields are rejected.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidArgument, err, "invalid request body")
	}
	return nil
}
