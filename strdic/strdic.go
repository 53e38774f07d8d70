// Package strdic implements the ingestion-time string dictionary that
// maps every distinct string of a document to a 64-bit identifier.
//
// Identifiers are partitioned as (owner:10 | local:54). The archive
// itself treats ids as opaque 64-bit keys; the partitioning only has to
// guarantee global uniqueness across dictionary owners. Id 0 is reserved
// as the null-string sentinel and never assigned.
package strdic

import (
	"fmt"

	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/internal/hash"
)

const (
	// OwnerBits and LocalBits split a string id.
	OwnerBits = 10
	LocalBits = 54

	// MaxOwner is the largest owner partition.
	MaxOwner = 1<<OwnerBits - 1
	// MaxLocal is the largest assignable local id within one partition.
	MaxLocal = 1<<LocalBits - 1
)

// Dictionary assigns insertion-ordered, unique ids to strings. Lookup
// runs over xxHash64 buckets so string keys are stored once. Not safe
// for concurrent use.
type Dictionary struct {
	owner   uint64
	buckets map[uint64][]uint32 // string hash -> indexes into strings
	strings []string
	ids     []uint64
	next    uint64
}

// New creates a dictionary for owner partition zero.
func New() *Dictionary {
	d, _ := NewWithOwner(0)

	return d
}

// NewWithOwner creates a dictionary whose ids carry the given owner
// partition in their top bits.
func NewWithOwner(owner uint16) (*Dictionary, error) {
	if owner > MaxOwner {
		return nil, fmt.Errorf("owner %d exceeds %d: %w", owner, MaxOwner, errs.ErrIllegalArg)
	}

	return &Dictionary{
		owner:   uint64(owner),
		buckets: make(map[uint64][]uint32),
		next:    1,
	}, nil
}

// Insert returns the id of s, assigning the next local id on first
// sight. Fails once the 54-bit local id space is exhausted.
func (d *Dictionary) Insert(s string) (uint64, error) {
	h := hash.Sum(s)
	for _, idx := range d.buckets[h] {
		if d.strings[idx] == s {
			return d.ids[idx], nil
		}
	}
	if d.next > MaxLocal {
		return 0, fmt.Errorf("dictionary owner %d: %w", d.owner, errs.ErrOutOfObjectIDs)
	}

	id := d.owner<<LocalBits | d.next
	d.next++
	d.buckets[h] = append(d.buckets[h], uint32(len(d.strings)))
	d.strings = append(d.strings, s)
	d.ids = append(d.ids, id)

	return id, nil
}

// Locate returns the id of s without inserting.
func (d *Dictionary) Locate(s string) (uint64, bool) {
	for _, idx := range d.buckets[hash.Sum(s)] {
		if d.strings[idx] == s {
			return d.ids[idx], true
		}
	}

	return 0, false
}

// Contents returns the parallel string and id vectors in insertion
// order. The slices alias dictionary state; callers must not mutate
// them.
func (d *Dictionary) Contents() ([]string, []uint64) {
	return d.strings, d.ids
}

// Len returns the number of distinct strings.
func (d *Dictionary) Len() int {
	return len(d.strings)
}
