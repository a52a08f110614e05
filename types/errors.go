package types

import "errors"

// ErrConfiguration marks an invalid input parameter, it is wrapped with the
// offending key and value
var ErrConfiguration = errors.New("configuration error")
