package booking

import "errors"

var (
	ErrValidation              = errors.New("validation error")
	ErrNotFound                = errors.New("booking not found")
	ErrForbidden               = errors.New("forbidden")
	ErrSlotNotPublished        = errors.New("slot is not published")
	ErrInsufficientCapacity    = errors.New("insufficient remaining capacity")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrPaymentRequired         = errors.New("booking is not paid")
)
