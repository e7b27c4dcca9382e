package gridsync

import "sync"

// ErrorObserver is invoked with the raw cause of every failed top-level call.
// It returns true when it handled the error (logged it, counted it, alerted on it).
type ErrorObserver func(err error) bool

// Result is the uniform outcome of every exposed client call. It is either a
// success carrying a value, or a failure carrying the cause and whether one of
// the registered observers handled it.
//
// A failed Result may still carry a partial value (for example the objects
// that arrived before a transport failure); callers decide whether to use it.
type Result[T any] struct {
	value   T
	err     error
	handled bool
}

// Success creates a successful Result.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Failure creates a failed Result carrying a partial value (possibly the zero value).
func Failure[T any](v T, err error, handled bool) Result[T] {
	return Result[T]{value: v, err: err, handled: handled}
}

// Value returns the carried value. For failures this is the partial value, if any.
func (r Result[T]) Value() T { return r.value }

// Err returns the failure cause, or nil on success.
func (r Result[T]) Err() error { return r.err }

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.err == nil }

// WasHandled reports whether an error observer handled the failure.
func (r Result[T]) WasHandled() bool { return r.handled }

// Get unpacks the Result into the usual Go (value, error) pair.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// Observers is a concurrency-safe list of ErrorObservers.
type Observers struct {
	mu        sync.RWMutex
	observers []ErrorObserver
}

// Add registers an observer.
func (o *Observers) Add(fn ErrorObserver) {
	if fn == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, fn)
}

// Notify hands err to every observer and reports whether any of them handled it.
// All observers are called even after one reports handled.
func (o *Observers) Notify(err error) bool {
	if err == nil {
		return false
	}

	o.mu.RLock()
	observers := make([]ErrorObserver, len(o.observers))
	copy(observers, o.observers)
	o.mu.RUnlock()

	handled := false
	for _, fn := range observers {
		if fn(err) {
			handled = true
		}
	}
	return handled
}

// Complete builds a Result from a (value, error) pair, notifying observers on failure.
func Complete[T any](o *Observers, v T, err error) Result[T] {
	if err == nil {
		return Success(v)
	}
	return Failure(v, err, o.Notify(err))
}
