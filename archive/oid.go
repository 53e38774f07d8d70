package archive

import (
	"fmt"

	"github.com/jaksonlabs/carbon/errs"
)

const (
	oidOwnerBits = 10
	oidLocalBits = 54

	maxOIDOwner = 1<<oidOwnerBits - 1
	maxOIDLocal = 1<<oidLocalBits - 1
)

// oidGenerator hands out unique 64-bit object ids partitioned as
// (owner:10 | local:54). One generator serves one serialization run; the
// archive itself treats object ids as opaque.
type oidGenerator struct {
	owner uint64
	next  uint64
}

func newOIDGenerator(owner uint16) (*oidGenerator, error) {
	if owner > maxOIDOwner {
		return nil, fmt.Errorf("object id owner %d exceeds %d: %w", owner, maxOIDOwner, errs.ErrIllegalArg)
	}

	return &oidGenerator{owner: uint64(owner), next: 1}, nil
}

// New returns the next object id, refusing once the 54-bit local space
// is exhausted.
func (g *oidGenerator) New() (uint64, error) {
	if g.next > maxOIDLocal {
		return 0, errs.ErrOutOfObjectIDs
	}
	id := g.owner<<oidLocalBits | g.next
	g.next++

	return id, nil
}
