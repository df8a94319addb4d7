// Package sequence provides a small, restartable iterator over iter.Seq.
// Every traversal re-runs the underlying producer, so an Iterator built
// over live data observes the current values each time.
package sequence

import "iter"

// Iterator is a generic, immutable, chainable iterator for any type T.
type Iterator[T any] struct {
	seq iter.Seq[T]
}

// From creates an Iterator over a slice of T.
func From[T any](data []T) *Iterator[T] {
	return &Iterator[T]{
		seq: func(yield func(T) bool) {
			for _, v := range data {
				if !yield(v) {
					return
				}
			}
		},
	}
}

// FromFunc wraps a producer function as an Iterator. The producer is
// invoked anew on every traversal.
func FromFunc[T any](producer iter.Seq[T]) *Iterator[T] {
	return &Iterator[T]{seq: producer}
}

// Seq returns the underlying sequence function.
func (i *Iterator[T]) Seq() iter.Seq[T] {
	return i.seq
}

// Pull converts the iterator to pull style.
func (i *Iterator[T]) Pull() (next func() (T, bool), stop func()) {
	return iter.Pull(i.seq)
}

// Collect exhausts the iterator and returns all elements.
func (i *Iterator[T]) Collect() []T {
	var out []T
	i.seq(func(v T) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Count exhausts the iterator and returns the number of elements.
func (i *Iterator[T]) Count() int {
	n := 0
	i.seq(func(T) bool {
		n++
		return true
	})
	return n
}

// Each applies action to every element and returns the iterator.
func (i *Iterator[T]) Each(action func(T)) *Iterator[T] {
	i.seq(func(v T) bool {
		action(v)
		return true
	})
	return i
}

// Filter returns an iterator over the elements matching pred.
func (i *Iterator[T]) Filter(pred func(T) bool) *Iterator[T] {
	src := i.seq
	return &Iterator[T]{
		seq: func(yield func(T) bool) {
			src(func(v T) bool {
				if !pred(v) {
					return true
				}
				return yield(v)
			})
		},
	}
}

// Take returns an iterator over the first n elements.
func (i *Iterator[T]) Take(n int) *Iterator[T] {
	src := i.seq
	return &Iterator[T]{
		seq: func(yield func(T) bool) {
			taken := 0
			src(func(v T) bool {
				if taken >= n {
					return false
				}
				taken++
				return yield(v)
			})
		},
	}
}

// First returns the first element, if any.
func (i *Iterator[T]) First() (T, bool) {
	var first T
	found := false
	i.seq(func(v T) bool {
		first = v
		found = true
		return false
	})
	return first, found
}

// Fallible is an iterator whose producer can fail mid-traversal. The
// error travels as the second element of each pair; a non-nil error is
// terminal for that traversal. Like Iterator, every traversal re-runs
// the producer.
type Fallible[T any] struct {
	seq iter.Seq2[T, error]
}

// FromFallible wraps an error-carrying producer.
func FromFallible[T any](producer iter.Seq2[T, error]) *Fallible[T] {
	return &Fallible[T]{seq: producer}
}

// Seq returns the underlying sequence function.
func (f *Fallible[T]) Seq() iter.Seq2[T, error] {
	return f.seq
}

// Collect exhausts the iterator, returning the elements gathered
// before the first error, and that error if one occurred.
func (f *Fallible[T]) Collect() ([]T, error) {
	var out []T
	var failure error
	f.seq(func(v T, err error) bool {
		if err != nil {
			failure = err
			return false
		}
		out = append(out, v)
		return true
	})
	return out, failure
}

// Each applies action to every element, stopping at the first error
// from the producer or from action.
func (f *Fallible[T]) Each(action func(T) error) error {
	var failure error
	f.seq(func(v T, err error) bool {
		if err != nil {
			failure = err
			return false
		}
		if err := action(v); err != nil {
			failure = err
			return false
		}
		return true
	})
	return failure
}

// Map transforms every element of it with fn.
func Map[T, S any](it *Iterator[T], fn func(T) S) *Iterator[S] {
	return &Iterator[S]{
		seq: func(yield func(S) bool) {
			it.seq(func(v T) bool {
				return yield(fn(v))
			})
		},
	}
}
