package scoring

import "errors"

// Sentinel error kinds for scoring.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNonFiniteScore = errors.New("non-finite score")
)
