package api

import (
	"net/http"

	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

// UserHeader identifies the dashboard user a request acts for.
const UserHeader = "X-Dashboard-User"

// AnonymousUser is assumed when UserHeader is absent.
const AnonymousUser = "anonymous"

// UserFromRequest returns the user a request acts for.
func UserFromRequest(r *http.Request) string {
	if user := r.Header.Get(UserHeader); user != "" {
		return user
	}
	return AnonymousUser
}

// ChainRequest selects a chain by id.
type ChainRequest struct {
	ChainID interfaces.ChainID `json:"chainId"`
}

// RevealBatchRequest is the body of a batch reveal submission.
type RevealBatchRequest struct {
	Password string `json:"password"`

	// Name is the placeholder name of the batch, used in the dialog title.
	Name string `json:"name"`
}

// RevealBatchResponse reports the outcome of a batch reveal submission.
type RevealBatchResponse struct {
	Title      string `json:"title"`
	Open       bool   `json:"open"`
	FieldError string `json:"fieldError,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ErrorResponse is the JSON error body of the dashboard API.
type ErrorResponse struct {
	Error string `json:"error"`
}
