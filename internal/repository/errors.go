package repository

import "errors"

// ErrConditionFailed is returned by conditional updates when the guard
// clause matched no row. Callers distinguish a lost race from a missing
// row by consulting the registry or re-reading.
var ErrConditionFailed = errors.New("conditional update matched no rows")
