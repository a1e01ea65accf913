package mongovault

import "errors"

var ErrEnsureIndexes = errors.New("mongovault: failed to create indexes")
