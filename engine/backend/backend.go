// Package backend provides the byte-transport implementations the load
// engine reads from: a local packfile archive and a build daemon reached over
// a websocket connection. Both satisfy loader.BackendIO.
package backend

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a locator no backend entry matches. Permanent: the
// affected load fails.
var ErrNotFound = errors.New("asset not found")

// ErrBadPackfile reports a malformed or truncated archive.
var ErrBadPackfile = errors.New("malformed packfile")

// NotIndexedError reports a path the daemon has not indexed yet, e.g. while
// it is still scanning the asset directory. Transient: the engine keeps the
// request queued and retries on a later cycle.
type NotIndexedError struct {
	Path string
}

func (e *NotIndexedError) Error() string {
	return fmt.Sprintf("asset %q not indexed yet", e.Path)
}

func (e *NotIndexedError) Transient() bool {
	return true
}
