package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/checkout"
)

const maxBody = 1 << 20

var errNoSuchNode = errors.New("category not found")

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

// badRequest marks client input errors.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest{msg: "invalid request body: " + err.Error()}
	}
	return nil
}

// statusFor maps domain errors onto HTTP status and error codes.
func statusFor(err error) (int, string) {
	var br badRequest
	var se *backend.StatusError
	switch {
	case errors.As(err, &br), errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusConflict, "EMPTY_CART"
	case errors.Is(err, backend.ErrNotFound), errors.Is(err, errNoSuchNode):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, cart.ErrPersist):
		return http.StatusInternalServerError, "PERSIST_FAILED"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "UNAVAILABLE"
	case errors.As(err, &se):
		return http.StatusBadGateway, "BACKEND"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status >= 500 {
		s.log.Warn("request failed", zap.Error(err), zap.String("code", code))
	}
	writeError(w, status, code, err.Error())
}
