package common

import "errors"

// Failure categories shared by every layer. Callers classify with errors.Is;
// the concrete error carries the detail.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidInput     = errors.New("invalid input")

	// ErrAsymmetricFriendship marks a friendship whose reverse edge could not
	// be written nor rolled back. It is always joined with ErrStoreUnavailable.
	ErrAsymmetricFriendship = errors.New("asymmetric friendship")
)

// IsBusinessRejection reports whether err is a rule outcome the caller caused,
// as opposed to an infrastructure failure.
func IsBusinessRejection(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrInvalidInput)
}
