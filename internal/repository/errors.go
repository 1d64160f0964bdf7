package repository

import (
	"errors"
	"time"
)

// Sentinel errors returned by record store implementations.
var (
	ErrRecordNotFound  = errors.New("student record not found")
	ErrRecordExists    = errors.New("student record already exists")
	ErrVersionConflict = errors.New("student record modified concurrently")
	ErrHistoryRewrite  = errors.New("semester history is append-only")
)

// QueryObserver receives timings for store round-trips.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}
