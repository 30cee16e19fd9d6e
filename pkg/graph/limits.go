package graph

import (
	"fmt"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
)

// Hard ceilings on traversal depth. Variable-length matches beyond these
// get too expensive for an online request.
const (
	maxAllowedCycleDepth   = 10
	maxAllowedNetworkDepth = 6
)

// Limits bounds the friendship graph and the traversals run against it.
type Limits struct {
	MaxDirectFriends int
	CycleCheckDepth  int
	MaxNetworkSize   int
	NetworkDepth     int
}

// DefaultLimits returns six degrees for cycle checks and three for
// network statistics.
func DefaultLimits() Limits {
	return Limits{
		MaxDirectFriends: 1000,
		CycleCheckDepth:  6,
		MaxNetworkSize:   10000,
		NetworkDepth:     3,
	}
}

func (l Limits) Validate() error {
	if l.MaxDirectFriends <= 0 {
		return fmt.Errorf("%w: max direct friends must be positive, got %d", common.ErrInvalidInput, l.MaxDirectFriends)
	}
	if l.CycleCheckDepth < 1 || l.CycleCheckDepth > maxAllowedCycleDepth {
		return fmt.Errorf("%w: cycle check depth must be in [1, %d], got %d", common.ErrInvalidInput, maxAllowedCycleDepth, l.CycleCheckDepth)
	}
	if l.MaxNetworkSize <= 0 {
		return fmt.Errorf("%w: max network size must be positive, got %d", common.ErrInvalidInput, l.MaxNetworkSize)
	}
	if l.NetworkDepth < 1 || l.NetworkDepth > maxAllowedNetworkDepth {
		return fmt.Errorf("%w: network depth must be in [1, %d], got %d", common.ErrInvalidInput, maxAllowedNetworkDepth, l.NetworkDepth)
	}
	return nil
}
