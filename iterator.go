package blobkeep

import "iter"

// Iterator is a lazy, one-shot sequence of values. It is not safe for
// concurrent use and cannot be restarted once exhausted, failed or closed.
//
//	it := bs.AllBlocks(ctx)
//	defer it.Close()
//	for it.Next() {
//	    b := it.Value()
//	    ...
//	}
//	if err := it.Err(); err != nil {
//	    ...
//	}
type Iterator[T any] struct {
	next func() (T, error, bool)
	stop func()
	cur  T
	err  error
	done bool
}

func newIterator[T any](seq iter.Seq2[T, error]) *Iterator[T] {
	next, stop := iter.Pull2(seq)
	return &Iterator[T]{next: next, stop: stop}
}

// Next advances to the next value, returning false at the end of the
// sequence or on the first error.
func (it *Iterator[T]) Next() bool {
	if it.done {
		return false
	}
	v, err, ok := it.next()
	if !ok || err != nil {
		it.err = err
		it.finish()
		return false
	}
	it.cur = v
	return true
}

// Value returns the current value.
func (it *Iterator[T]) Value() T {
	return it.cur
}

// Err returns the error that ended iteration, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Close stops iteration and releases its resources. It is safe to call more
// than once.
func (it *Iterator[T]) Close() {
	if !it.done {
		it.finish()
	}
}

func (it *Iterator[T]) finish() {
	var zero T
	it.cur = zero
	it.done = true
	it.stop()
}
