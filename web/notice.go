package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	goEstate "github.com/MrEthical07/goEstate"
	"github.com/MrEthical07/goEstate/contract"
)

// Notice categories.
const (
	CategorySuccess = "success"
	CategoryDanger  = "danger"
)

// Notice is the body of every response.
type Notice struct {
	RequestID string `json:"request_id"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeNotice(w http.ResponseWriter, r *http.Request, status int, category, message string, data any) {
	writeJSON(w, status, Notice{
		RequestID: goEstate.RequestIDFromContext(r.Context()),
		Category:  category,
		Message:   message,
		Data:      data,
	})
}

func success(w http.ResponseWriter, r *http.Request, message string, data any) {
	writeNotice(w, r, http.StatusOK, CategorySuccess, message, data)
}

// redirectNotice answers with 303 to location and still carries a notice body.
func redirectNotice(w http.ResponseWriter, r *http.Request, location, message string, data any) {
	w.Header().Set("Location", location)
	writeNotice(w, r, http.StatusSeeOther, CategorySuccess, message, data)
}

// classify maps an Engine error onto a status code and the message shown to the user.
func classify(err error) (int, string) {
	var policyErr *goEstate.ValidationError
	var argErr *contract.ArgumentInvalidError
	var authErr *goEstate.AuthError
	var rejected *contract.ContractRejectedError

	switch {
	case errors.As(err, &policyErr):
		return http.StatusBadRequest, policyErr.Message
	case errors.As(err, &argErr):
		return http.StatusBadRequest, "invalid data format: " + argErr.Field + " must be a non-negative integer"
	case errors.As(err, &authErr):
		if authErr.AttemptsLeft >= 0 {
			return http.StatusUnauthorized, fmt.Sprintf("%s (%d attempts left)", authErr.Error(), authErr.AttemptsLeft)
		}
		return http.StatusUnauthorized, authErr.Error()
	case errors.Is(err, goEstate.ErrUnauthorized), errors.Is(err, goEstate.ErrSessionBindingRejected):
		return http.StatusUnauthorized, "login required"
	case errors.As(err, &rejected):
		return http.StatusConflict, "contract error: " + rejected.Message
	case errors.Is(err, goEstate.ErrLoginRateLimited):
		return http.StatusTooManyRequests, "too many failed logins, try again later"
	case errors.Is(err, goEstate.ErrRegisterRateLimited):
		return http.StatusTooManyRequests, "too many registrations, try again later"
	case errors.Is(err, goEstate.ErrNodeUnavailable),
		errors.Is(err, goEstate.ErrRedisUnavailable),
		errors.Is(err, contract.ErrNodeFailure):
		return http.StatusServiceUnavailable, "backend unavailable, try again later"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
