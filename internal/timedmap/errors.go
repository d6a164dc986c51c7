package timedmap

import "github.com/pkg/errors"

// ErrEntryNotFound is returned by operations that require the key to exist.
var ErrEntryNotFound = errors.New("entry not found for given key")
