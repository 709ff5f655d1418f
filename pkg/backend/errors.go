package backend

import "errors"

// ErrNoSession is returned by AuthAPI calls that require a signed-in user
// when no session is held or the server rejected the current token.
var ErrNoSession = errors.New("no active session")

// APIError carries the remote store's status code and message. Error()
// returns the server message alone so it can be surfaced to users verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == code
	}
	return false
}
