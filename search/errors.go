package search

import "errors"

// ErrBadMatchMode indicates a match mode string other than "any" or "all".
var ErrBadMatchMode = errors.New("unknown match mode")
