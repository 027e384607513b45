// Package bounded provides a small append-only list with a fixed capacity.
package bounded

import (
	"errors"
	"iter"
)

// Capacity is the number of items a List can hold.
const Capacity = 2

var ErrFull = errors.New("bounded list is full")

// List is an append-only list backed by a fixed-size array. The zero value is
// an empty list ready to use.
type List[T any] struct {
	n     int
	items [Capacity]T
}

func (l List[T]) Len() int { return l.n }

// Push appends item, or returns ErrFull if the list is at capacity.
func (l *List[T]) Push(item T) error {
	if l.n >= Capacity {
		return ErrFull
	}
	l.items[l.n] = item
	l.n++
	return nil
}

// At returns the i-th item. It panics if i is out of range.
func (l List[T]) At(i int) T {
	if i < 0 || i >= l.n {
		panic("bounded: index out of range")
	}
	return l.items[i]
}

// All iterates over the items in insertion order.
func (l List[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < l.n; i++ {
			if !yield(l.items[i]) {
				return
			}
		}
	}
}

// Slice returns a copy of the items.
func (l List[T]) Slice() []T {
	out := make([]T, l.n)
	copy(out, l.items[:l.n])
	return out
}
