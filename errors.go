package basisauth

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called before Build completed.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrUserStoreUnavailable is returned when the user store collaborator fails during session creation.
	ErrUserStoreUnavailable = errors.New("user store unavailable")
	// ErrAuthorityUnavailable is returned when the authorization oracle fails.
	ErrAuthorityUnavailable = errors.New("authorization oracle unavailable")
	// ErrAuthorityRequired is returned when an action check is requested but no oracle was configured.
	ErrAuthorityRequired = errors.New("authorization oracle required for action checks")
	// ErrMissingAuthorization is returned by the boundary layer when no authorization header is present.
	ErrMissingAuthorization = errors.New("missing authorization")
	// ErrMalformedAuthorization is returned by the boundary layer when the header payload cannot be decoded.
	ErrMalformedAuthorization = errors.New("malformed authorization payload")
)
