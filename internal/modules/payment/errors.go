package payment

import "errors"

var (
	ErrNotFound      = errors.New("payment not found")
	ErrNotPayable    = errors.New("booking is not payable")
	ErrNotRefundable = errors.New("payment is not refundable")
	ErrProcessor     = errors.New("payment processor error")
)
