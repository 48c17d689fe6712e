package unpushed

import (
	"context"
	"sync"
)

// Notifier fans a refresh signal out to subscribers. The commit pipeline
// calls Refresh after a run; Watch calls it when refs change on disk.
type Notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

// Subscribe registers fn and returns a function that removes it.
func (n *Notifier) Subscribe(fn func()) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func())
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Refresh calls every subscriber synchronously.
func (n *Notifier) Refresh() {
	n.mu.Lock()
	subs := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// View caches the latest listing and reloads it on every refresh.
type View struct {
	lister *Lister
	root   string

	mu      sync.RWMutex
	entries []Entry
	err     error
}

// NewView creates a View of root.
func NewView(lister *Lister, root string) *View {
	return &View{lister: lister, root: root}
}

// Reload re-reads the list and stores the result.
func (v *View) Reload(ctx context.Context) ([]Entry, error) {
	entries, err := v.lister.List(ctx, v.root)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.err = err
		return nil, err
	}
	v.entries, v.err = entries, nil
	return entries, nil
}

// Entries returns the last stored list and the error of the last reload.
func (v *View) Entries() ([]Entry, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.entries, v.err
}

// Bind reloads the view whenever n refreshes, until ctx is done or the
// returned function is called.
func (v *View) Bind(ctx context.Context, n *Notifier) (unbind func()) {
	return n.Subscribe(func() {
		if ctx.Err() != nil {
			return
		}
		_, _ = v.Reload(ctx)
	})
}
