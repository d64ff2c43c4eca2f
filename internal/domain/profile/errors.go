package profile

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidProfile = errors.New("invalid profile")
	ErrUnknownMetric  = errors.New("unknown metric")
	ErrUnknownSegment = errors.New("unknown segment")
)
