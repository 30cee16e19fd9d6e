package person

import (
	"context"
	"fmt"
	"sync"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/leaselock"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"

	"github.com/google/uuid"
)

// AddFriend creates the friendship between personID and friendID. Every
// rule is checked before the first edge write, and the checks and writes
// run under the friendships lease so that no other mutation interleaves.
func (s *Service) AddFriend(ctx context.Context, personID, friendID string) error {
	if personID == friendID {
		return fmt.Errorf("%w: a person cannot befriend themselves", common.ErrConflict)
	}
	if err := s.requireKnown(ctx, personID, friendID); err != nil {
		return err
	}

	return s.withFriendLease(ctx, func(ctx context.Context) error {
		exists, err := s.graph.FriendshipExists(ctx, personID, friendID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s and %s are already friends", common.ErrConflict, personID, friendID)
		}

		reachable, err := s.graph.DetectFriendshipCycle(ctx, personID, friendID, 0)
		if err != nil {
			return err
		}
		if reachable {
			return fmt.Errorf("%w: %s is already reachable from %s", common.ErrCapacityExceeded, friendID, personID)
		}

		if err := s.checkCeilings(ctx, personID, friendID); err != nil {
			return err
		}

		if err := s.graph.AddFriendshipEdge(ctx, personID, friendID); err != nil {
			return err
		}
		logger.Info("[Person][AddFriend] Friendship created", "person_id", personID, "friend_id", friendID)
		return nil
	})
}

// RemoveFriend deletes both edges of an existing friendship.
func (s *Service) RemoveFriend(ctx context.Context, personID, friendID string) error {
	if personID == friendID {
		return fmt.Errorf("%w: a person cannot befriend themselves", common.ErrConflict)
	}
	if err := s.requireKnown(ctx, personID, friendID); err != nil {
		return err
	}

	return s.withFriendLease(ctx, func(ctx context.Context) error {
		exists, err := s.graph.FriendshipExists(ctx, personID, friendID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s and %s are not friends", common.ErrNotFound, personID, friendID)
		}
		if err := s.graph.RemoveFriendshipEdge(ctx, personID, friendID); err != nil {
			return err
		}
		logger.Info("[Person][RemoveFriend] Friendship removed", "person_id", personID, "friend_id", friendID)
		return nil
	})
}

// ListFriends returns the ledger rows of the direct friends of id, in graph
// order. Vertices without a ledger row are skipped.
func (s *Service) ListFriends(ctx context.Context, id string) ([]common.Person, error) {
	if _, err := s.ledger.GetPerson(ctx, id); err != nil {
		return nil, err
	}
	ids, err := s.graph.FindFriendIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []common.Person{}, nil
	}

	rows, err := s.ledger.ListPersonsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]common.Person, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	friends := make([]common.Person, 0, len(ids))
	for _, fid := range ids {
		if p, ok := byID[fid]; ok {
			friends = append(friends, p)
			delete(byID, fid)
		}
	}
	return friends, nil
}

func (s *Service) NetworkStats(ctx context.Context, id string) (common.NetworkStats, error) {
	if _, err := s.ledger.GetPerson(ctx, id); err != nil {
		return common.NetworkStats{}, err
	}
	return s.graph.GetFriendshipNetworkStats(ctx, id)
}

// requireKnown fails with ErrInvalidInput for a malformed id and with
// ErrNotFound for an id without a ledger row.
func (s *Service) requireKnown(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if err := uuid.Validate(id); err != nil {
			return fmt.Errorf("%w: person id %q", common.ErrInvalidInput, id)
		}
	}
	rows, err := s.ledger.ListPersonsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		known[row.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: person %s", common.ErrNotFound, id)
		}
	}
	return nil
}

// checkCeilings rejects the edge when either party already has the maximum
// number of direct friends or a network at the maximum size.
func (s *Service) checkCeilings(ctx context.Context, personID, friendID string) error {
	limits := s.graph.Limits()
	stats, err := s.graph.GetNetworkStatsBulk(ctx, []string{personID, friendID})
	if err != nil {
		return err
	}
	for _, id := range []string{personID, friendID} {
		st := stats[id]
		if st.DirectFriends >= limits.MaxDirectFriends {
			return fmt.Errorf("%w: %s has %d direct friends, limit %d", common.ErrCapacityExceeded, id, st.DirectFriends, limits.MaxDirectFriends)
		}
		if st.NetworkSize >= limits.MaxNetworkSize {
			return fmt.Errorf("%w: network of %s has %d persons, limit %d", common.ErrCapacityExceeded, id, st.NetworkSize, limits.MaxNetworkSize)
		}
	}
	return nil
}

// localLocker serializes within one process when no lease store is wired.
type localLocker struct {
	mu sync.Mutex
}

func (l *localLocker) WithLease(ctx context.Context, _ string, _ leaselock.Options, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}
