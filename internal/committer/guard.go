package committer

import (
	"errors"
	"sync/atomic"
)

// ErrBusy is returned when a run starts while another one holds the guard.
var ErrBusy = errors.New("a commit run is already in progress")

// Guard admits one run at a time. Share one Guard between orchestrators
// that operate on the same working tree.
type Guard struct {
	held atomic.Bool
}

// TryAcquire takes the guard without blocking and reports whether it did.
func (g *Guard) TryAcquire() bool {
	return g.held.CompareAndSwap(false, true)
}

// Release frees the guard.
func (g *Guard) Release() {
	g.held.Store(false)
}

// Held reports whether a run currently holds the guard.
func (g *Guard) Held() bool {
	return g.held.Load()
}
