package errors

import "errors"

// ErrMissing means that a requested record does not exist.
var ErrMissing = errors.New("missing record")

// ErrNameRequired means that an upsert would create a new experiment
// but carries no experiment name.
var ErrNameRequired = errors.New("experiment name is required to create an experiment")
