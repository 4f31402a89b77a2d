package repository

import "errors"

var (
	// ErrSlotNotPublished is returned when a reservation targets a slot that
	// is not currently published.
	ErrSlotNotPublished = errors.New("slot is not published")

	// ErrInsufficientCapacity is returned from inside the reservation
	// transaction when the re-validated remaining capacity cannot cover the
	// requested quantity. The transaction is rolled back whole.
	ErrInsufficientCapacity = errors.New("insufficient remaining capacity")
)
