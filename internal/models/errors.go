package models

import "errors"

// Custom errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateKey       = errors.New("duplicate key violation")
	ErrInvalidPerformance = errors.New("invalid race performance")
	ErrInvalidPayout      = errors.New("invalid payout record")
)
