package domain

import "errors"

// Errors returned by state transitions and normalisation.
var (
	ErrEntryNotFound          = errors.New("entry not found")
	ErrInitialWeightProtected = errors.New("initial weight entry cannot be deleted")
	ErrLastWeightEntry        = errors.New("at least one weight entry must remain")
	ErrInvalidAmount          = errors.New("amount must be > 0")
	ErrInvalidWeight          = errors.New("weight must be > 0")
	ErrUnknownFoodType        = errors.New("unknown food type")
	ErrInvalidSettings        = errors.New("invalid settings")
	ErrMalformedState         = errors.New("malformed state")
	ErrInvalidFamilyID        = errors.New("family id must be 1-64 characters")
	ErrInvalidUnit            = errors.New(`unit must be "kg" or "lb"`)
	ErrNotifierDisabled       = errors.New("notifier disabled")
)

// validationErrors are caused by the caller's input rather than by a failure.
var validationErrors = []error{
	ErrInitialWeightProtected,
	ErrLastWeightEntry,
	ErrInvalidAmount,
	ErrInvalidWeight,
	ErrUnknownFoodType,
	ErrInvalidSettings,
	ErrMalformedState,
	ErrInvalidFamilyID,
	ErrInvalidUnit,
}

// IsValidation reports whether err rejects the caller's input.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
