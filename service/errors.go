package service

import "errors"

var (
	ErrUnauthenticated     = errors.New("authentication required")
	ErrInvalidAmount       = errors.New("amount must be a positive number of minor currency units")
	ErrOrderPersistFailure = errors.New("failed to persist order")
	ErrDuplicateOrder      = errors.New("order already exists for gateway order id")
	ErrOrderNotFound       = errors.New("order not found")
)
