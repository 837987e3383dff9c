package gocanon

import "errors"

// Errors
var (
	ErrNilStructure   = errors.New("nil structure")
	ErrBudgetExceeded = errors.New("search budget exceeded")
	ErrBadPerm        = errors.New("bad permutation")
	ErrBadEncoding    = errors.New("bad certificate encoding")
)
