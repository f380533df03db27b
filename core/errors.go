package core

import (
	"errors"
	"fmt"
)

var (
	// ErrProvisioningInProgress is returned when a second provisioning
	// attempt is made while one is already in flight for the identity
	ErrProvisioningInProgress = errors.New("provisioning already in progress for identity")

	// ErrFatalProvisioning is returned when the workflow reaches a
	// terminal failure state
	ErrFatalProvisioning = errors.New("wallet provisioning failed")

	// ErrProvisioningTimeout is returned when the workflow is abandoned
	// because the caller's deadline elapsed
	ErrProvisioningTimeout = errors.New("wallet provisioning timed out")

	// ErrMissingWalletID is returned when the provider claims success
	// but the response lacks a wallet identifier
	ErrMissingWalletID = errors.New("provider response is missing a wallet id")

	// ErrStoreOperationFailed is returned when a credential store
	// operation fails
	ErrStoreOperationFailed = errors.New("store operation failed")
)

// ErrorKind tells the orchestrator how to react to a provider failure.
type ErrorKind int

const (
	// ErrorTransport is a connection-level failure before a response
	// arrived. The provider-side outcome is unknown.
	ErrorTransport ErrorKind = iota

	// ErrorTimeout is a transport timeout. The provider may have
	// completed the side effect even though no response was seen.
	ErrorTimeout

	// ErrorConflict means the resource already exists on the provider
	// side. Expected steady-state case, not a failure.
	ErrorConflict

	// ErrorProvider is a definite application-level rejection from the
	// provider.
	ErrorProvider
)

// ProviderError is the normalized failure surfaced by the provider
// client. Raw transport errors never cross the client boundary.
type ProviderError struct {
	Kind       ErrorKind
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("provider error %s (status %d): %s", e.Code, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
	default:
		return "provider error: " + e.Message
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsAmbiguous reports whether a provider failure leaves the side
// effect's outcome unknown: a transport timeout or connection failure.
// Such failures must be resolved by querying the provider's source of
// truth, never by assuming failure.
func IsAmbiguous(err error) bool {
	var perr *ProviderError
	if !errors.As(err, &perr) {
		return false
	}
	return perr.Kind == ErrorTimeout || perr.Kind == ErrorTransport
}

// IsConflict reports whether the provider rejected a creation because
// the resource already exists.
func IsConflict(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr) && perr.Kind == ErrorConflict
}
