package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rzbill/flightreview/internal/codec"
	"github.com/rzbill/flightreview/internal/query"
	"github.com/rzbill/flightreview/internal/runtime"
	"github.com/rzbill/flightreview/internal/ulog"
	"github.com/rzbill/flightreview/pkg/id"
)

// Helper functions for common HTTP responses

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", codec.ContentTypeJSON)
	w.WriteHeader(status)
	_ = codec.Encode(w, codec.JSON, errorResponse{Error: message}, false)
}

// writeEncoded writes v in the format the request's Accept header asks for.
func writeEncoded(w http.ResponseWriter, r *http.Request, v any) {
	f := codec.Negotiate(r.Header.Get("Accept"))
	w.Header().Set("Content-Type", f.ContentType())
	_ = codec.Encode(w, f, v, r.URL.Query().Has("pretty"))
}

// statusFor maps a load or lookup error to an HTTP status code.
func statusFor(err error) int {
	var (
		verr *id.ValidationError
		ferr *ulog.FormatError
		serr *ulog.SchemaMismatchError
		ierr *ulog.IntegrityError
		qerr *query.TypeError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &qerr):
		return http.StatusBadRequest
	case errors.Is(err, runtime.ErrLogNotFound):
		return http.StatusNotFound
	case errors.As(err, &ferr), errors.As(err, &serr), errors.As(err, &ierr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure writes err with the status statusFor picks.
func writeFailure(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

// parseLimit parses a limit string and returns a valid limit value.
//
// Returns 0 for empty strings or invalid values.
func parseLimit(limitStr string) int {
	if limitStr == "" {
		return 0
	}
	if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
		return limit
	}
	return 0
}

// parseInstance parses a multi_id query value. Empty means instance 0.
func parseInstance(s string) (uint8, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, errors.New("instance must be an integer in [0,255]")
	}
	return uint8(n), nil
}

type errorResponse struct {
	Error string `json:"error" cbor:"error"`
}
