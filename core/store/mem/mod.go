// Package mem implements an in-memory snapshot that stages the writes of a
// transaction on top of a parent store.
//
// The reads fall back to the parent when a key has not been touched. The
// staged writes reach the parent only when Apply is called, which gives the
// all-or-nothing semantic of a transaction execution.
package mem

import (
	"sort"

	"go.dedis.ch/ballot/core/store"
	"golang.org/x/xerrors"
)

// item is a staged entry. A deleted item hides the value of the parent.
type item struct {
	value   []byte
	deleted bool
}

// Snapshot is a staging area over a readable parent.
//
// - implements store.Snapshot
type Snapshot struct {
	parent store.Readable
	store  map[string]item
}

// NewSnapshot returns a new empty staging snapshot over the parent.
func NewSnapshot(parent store.Readable) *Snapshot {
	return &Snapshot{
		parent: parent,
		store:  make(map[string]item),
	}
}

// Get implements store.Readable. It returns the staged value if any, otherwise
// the value of the parent.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	it, found := s.store[string(key)]
	if found {
		if it.deleted {
			return nil, nil
		}

		return it.value, nil
	}

	if s.parent == nil {
		return nil, nil
	}

	value, err := s.parent.Get(key)
	if err != nil {
		return nil, xerrors.Errorf("parent: %v", err)
	}

	return value, nil
}

// Set implements store.Writable. It stages the value for the key.
func (s *Snapshot) Set(key, value []byte) error {
	s.store[string(key)] = item{value: append([]byte{}, value...)}

	return nil
}

// Delete implements store.Writable. It stages the deletion of the key.
func (s *Snapshot) Delete(key []byte) error {
	s.store[string(key)] = item{deleted: true}

	return nil
}

// Len returns the number of staged keys.
func (s *Snapshot) Len() int {
	return len(s.store)
}

// Apply writes the staged entries to the writable store in the key order.
func (s *Snapshot) Apply(w store.Writable) error {
	keys := make([]string, 0, len(s.store))
	for key := range s.store {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		it := s.store[key]

		var err error
		if it.deleted {
			err = w.Delete([]byte(key))
		} else {
			err = w.Set([]byte(key), it.value)
		}

		if err != nil {
			return xerrors.Errorf("failed to apply %#x: %v", key, err)
		}
	}

	return nil
}
