package lattice

// flusher is implemented by cells with deferred write-back.
type flusher interface {
	Flush()
}

// Env is the execution environment of one call. It wraps the host store
// and tracks the cells with buffered writes so every exit path of a
// dispatched call can flush them deterministically: flushing never
// relies on garbage collection or finalizers.
//
// An Env lives for exactly one call; the dispatch layer creates one per
// payload and flushes it when the handler returns, on success and error
// paths alike.
type Env struct {
	store HostStore
	dirty []flusher
}

// NewEnv wraps a host store for one call's lifetime.
func NewEnv(store HostStore) *Env {
	return &Env{store: store}
}

// Store returns the underlying host store.
func (e *Env) Store() HostStore {
	return e.store
}

// trackDirty registers a cell for write-back on flush. Cells register
// themselves at most once per call.
func (e *Env) trackDirty(f flusher) {
	e.dirty = append(e.dirty, f)
}

// Flush writes back every dirty cell in registration order and clears
// the tracking list. Safe to call more than once; cells flushed earlier
// are no longer dirty and flush as no-ops.
func (e *Env) Flush() {
	for _, f := range e.dirty {
		f.Flush()
	}
	e.dirty = e.dirty[:0]
}
