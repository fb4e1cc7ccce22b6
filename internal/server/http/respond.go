package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/and161185/chunkhub/internal/api"
	"github.com/and161185/chunkhub/internal/errs"
)

const (
	internalMessage = "Internal server error"
	maxJSONBody     = 1 << 20
)

func errorBody(msg string) api.Error { return api.Error{Detail: msg} }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var statusTable = []struct {
	kind   error
	status int
	msg    string
}{
	{errs.ErrInvalidInput, http.StatusBadRequest, "Invalid request"},
	{errs.ErrAlreadyExists, http.StatusBadRequest, "Already exists"},
	{errs.ErrInvalidFileType, http.StatusBadRequest, "Invalid file type"},
	{errs.ErrUnauthorized, http.StatusUnauthorized, "Not authenticated"},
	{errs.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{errs.ErrNotFound, http.StatusNotFound, "Not found"},
	{errs.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "File too large"},
	{errs.ErrRateLimited, http.StatusTooManyRequests, "Rate limit exceeded"},
}

// statusFor maps a service error to an HTTP status and client message.
func statusFor(err error) (int, string) {
	for _, e := range statusTable {
		if errors.Is(err, e.kind) {
			msg := e.msg
			var d *errs.Error
			if errors.As(err, &d) {
				msg = d.Msg
			}
			return e.status, msg
		}
	}
	return http.StatusInternalServerError, internalMessage
}

// fail writes err as a {"detail": ...} response. Unexpected errors are
// logged and never echoed to the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFromCtx(r.Context())),
			zap.Error(err),
		)
	case http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", "Bearer")
	case http.StatusTooManyRequests:
		var l *errs.Limited
		if errors.As(err, &l) {
			w.Header().Set("Retry-After", retryAfterSeconds(l))
			msg = fmt.Sprintf("Rate limit exceeded. Retry after %s seconds", retryAfterSeconds(l))
		}
	}
	writeJSON(w, status, errorBody(msg))
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return errs.New(errs.ErrInvalidInput, "Invalid JSON body")
	}
	return nil
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errs.New(errs.ErrInvalidInput, key+" must be a non-negative integer")
	}
	return n, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, key string, def bool) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errs.New(errs.ErrInvalidInput, key+" must be a boolean")
	}
	return b, nil
}
