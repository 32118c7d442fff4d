package shared

import (
	"fmt"
	"net/http"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrInvalidState     = fmt.Errorf("invalid oauth state")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrMalformedFeatures  = fmt.Errorf("malformed audio features")

	// Grouping errors
	ErrInsufficientData = fmt.Errorf("insufficient data for clustering")
	ErrNormalization    = fmt.Errorf("feature normalization failed")

	// Session errors
	ErrSessionNotFound = fmt.Errorf("session not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// InsufficientDataError reports that clustering was asked for more groups than there are usable rows.
type InsufficientDataError struct {
	Have int // rows with feature vectors
	Need int // requested clusters
}

func (e *InsufficientDataError) Error() string {
	if e.Have == 0 {
		return fmt.Sprintf("%v: no tracks with audio features", ErrInsufficientData)
	}
	return fmt.Sprintf("%v: %d tracks with audio features, need at least %d", ErrInsufficientData, e.Have, e.Need)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// FetchError wraps a failed call to the streaming API.
//
// StatusCode is zero when the request never produced a response.
type FetchError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: status %d", e.Op, e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
}

// Unwrap exposes [ErrNotAuthenticated] for 401 responses and [ErrAPIRequest] otherwise,
// alongside any underlying error.
func (e *FetchError) Unwrap() []error {
	errs := []error{ErrAPIRequest}
	if e.StatusCode == http.StatusUnauthorized {
		errs = append(errs, ErrNotAuthenticated)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NormalizationError reports a feature column that cannot be min-max scaled.
type NormalizationError struct {
	Column string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("%v: column %s: %s", ErrNormalization, e.Column, e.Reason)
}

func (e *NormalizationError) Unwrap() error { return ErrNormalization }
