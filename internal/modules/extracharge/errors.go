package extracharge

import "errors"

var (
	ErrValidation      = errors.New("invalid extra charge request")
	ErrNotFound        = errors.New("extra charge not found")
	ErrForbidden       = errors.New("access denied")
	ErrNotPending      = errors.New("extra charge is not pending")
	ErrExpired         = errors.New("extra charge offer expired")
	ErrBookingInactive = errors.New("booking does not allow extra charges")
)
