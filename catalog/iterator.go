package catalog

import (
	"github.com/pkg/errors"
	"github.com/tidwall/btree"
)

// ErrNoSuchElement is returned by an exhausted iterator, on every call.
var ErrNoSuchElement = errors.New("no such element")

// Iterator is a single-pass, lazily evaluated sequence.
type Iterator[T any] interface {
	Next() (T, error)
}

// Source produces fresh iterators over the same sequence.
type Source[T any] interface {
	Iterator() Iterator[T]
}

type SourceFunc[T any] func() Iterator[T]

func (f SourceFunc[T]) Iterator() Iterator[T] {
	return f()
}

// Collect drains the iterator.
func Collect[T any](it Iterator[T]) ([]T, error) {
	var out []T
	for {
		item, err := it.Next()
		if err == ErrNoSuchElement {
			return out, nil
		} else if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
}

type sliceIterator[T any] struct {
	items []T
	index int
}

func newSliceIterator[T any](items []T) *sliceIterator[T] {
	return &sliceIterator[T]{items: items}
}

func (it *sliceIterator[T]) Next() (T, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, ErrNoSuchElement
	}
	item := it.items[it.index]
	it.index++
	return item, nil
}

type treeIterator[T any] struct {
	iter btree.IterG[T]
	done bool
}

func newTreeIterator[T any](tree *btree.BTreeG[T]) *treeIterator[T] {
	return &treeIterator[T]{iter: tree.Iter()}
}

func (it *treeIterator[T]) Next() (T, error) {
	if !it.done && it.iter.Next() {
		return it.iter.Item(), nil
	}
	if !it.done {
		it.done = true
		it.iter.Release()
	}
	var zero T
	return zero, ErrNoSuchElement
}

type flatMapIterator[T, U any] struct {
	source  Iterator[T]
	fn      func(T) Iterator[U]
	current Iterator[U]
	done    bool
}

// flatMap expands every element of source into a sequence, in order.
func flatMap[T, U any](source Iterator[T], fn func(T) Iterator[U]) Iterator[U] {
	return &flatMapIterator[T, U]{source: source, fn: fn}
}

func (it *flatMapIterator[T, U]) Next() (U, error) {
	var zero U
	for !it.done {
		if it.current != nil {
			item, err := it.current.Next()
			if err == nil {
				return item, nil
			} else if err != ErrNoSuchElement {
				return zero, err
			}
			it.current = nil
		}

		next, err := it.source.Next()
		if err == ErrNoSuchElement {
			it.done = true
			break
		} else if err != nil {
			return zero, err
		}
		it.current = it.fn(next)
	}
	return zero, ErrNoSuchElement
}

type filterIterator[T any] struct {
	source    Iterator[T]
	predicate func(T) bool
}

func filter[T any](source Iterator[T], predicate func(T) bool) Iterator[T] {
	return &filterIterator[T]{source: source, predicate: predicate}
}

func (it *filterIterator[T]) Next() (T, error) {
	for {
		item, err := it.source.Next()
		if err != nil {
			return item, err
		}
		if it.predicate(item) {
			return item, nil
		}
	}
}

type concatIterator[T any] struct {
	sources []Iterator[T]
}

func concat[T any](sources ...Iterator[T]) Iterator[T] {
	return &concatIterator[T]{sources: sources}
}

func (it *concatIterator[T]) Next() (T, error) {
	for len(it.sources) > 0 {
		item, err := it.sources[0].Next()
		if err != ErrNoSuchElement {
			return item, err
		}
		it.sources = it.sources[1:]
	}
	var zero T
	return zero, ErrNoSuchElement
}
