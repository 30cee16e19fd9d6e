package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lendnet/backend/internal/util"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const (
	compensationTries   = 3
	compensationTimeout = 30 * time.Second
	bulkFriendshipBatch = 50
)

// FriendshipExists reports whether the directed edge from -> to exists. The
// reverse edge is assumed to exist alongside it.
func (c *Client) FriendshipExists(ctx context.Context, from, to string) (bool, error) {
	records, err := c.exec(ctx, statement{
		name:   stmtEdgeExists,
		cypher: edgeExistsCypher,
		params: map[string]any{"from": from, "to": to},
	})
	if err != nil {
		return false, err
	}
	return len(records) > 0 && recordBool(records[0], "exists"), nil
}

// AddFriendshipEdge writes a -> b and then b -> a as two separate remote
// calls. When the second write fails, the first is deleted again so that no
// one-sided edge is left behind. If that rollback fails as well the error
// also matches ErrAsymmetricFriendship and the pair needs a reconcile pass.
func (c *Client) AddFriendshipEdge(ctx context.Context, a, b string) error {
	if a == b {
		return fmt.Errorf("%w: self friendship %s", common.ErrConflict, a)
	}

	existed, err := c.addDirectedEdge(ctx, a, b)
	if err != nil {
		return err
	}
	if _, err := c.addDirectedEdge(ctx, b, a); err != nil {
		if existed {
			return err
		}
		logger.Warn("[Graph][AddFriendshipEdge] Reverse edge failed, rolling back forward edge", "from", a, "to", b, "err", err)
		return c.compensate(ctx, a, b, err, func(ctx context.Context) error {
			_, err := c.removeDirectedEdge(ctx, a, b)
			return err
		})
	}

	logger.Debug("[Graph][AddFriendshipEdge] Friendship created", "person_id", a, "friend_id", b)
	return nil
}

// RemoveFriendshipEdge deletes a -> b and then b -> a. When the second
// delete fails, the first edge is restored.
func (c *Client) RemoveFriendshipEdge(ctx context.Context, a, b string) error {
	removed, err := c.removeDirectedEdge(ctx, a, b)
	if err != nil {
		return err
	}
	if _, err := c.removeDirectedEdge(ctx, b, a); err != nil {
		if removed == 0 {
			return err
		}
		logger.Warn("[Graph][RemoveFriendshipEdge] Reverse delete failed, restoring forward edge", "from", a, "to", b, "err", err)
		return c.compensate(ctx, a, b, err, func(ctx context.Context) error {
			_, err := c.addDirectedEdge(ctx, a, b)
			return err
		})
	}

	logger.Debug("[Graph][RemoveFriendshipEdge] Friendship removed", "person_id", a, "friend_id", b)
	return nil
}

// RepairEdge writes the single directed edge from -> to. The reconcile sweep
// uses it to restore the missing half of a one-sided friendship.
func (c *Client) RepairEdge(ctx context.Context, from, to string) error {
	_, err := c.addDirectedEdge(ctx, from, to)
	return err
}

// BulkAddFriendships creates friendships in batches; pairs within a batch
// are written concurrently. The first failure stops further batches.
func (c *Client) BulkAddFriendships(ctx context.Context, pairs []common.FriendPair) error {
	for start := 0; start < len(pairs); start += bulkFriendshipBatch {
		end := min(start+bulkFriendshipBatch, len(pairs))

		eg, ectx := errgroup.WithContext(ctx)
		for _, pair := range pairs[start:end] {
			eg.Go(func() error {
				return c.AddFriendshipEdge(ectx, pair.PersonID, pair.FriendID)
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// AsymmetricEdges lists directed edges whose reverse edge is missing.
func (c *Client) AsymmetricEdges(ctx context.Context) ([]common.FriendPair, error) {
	records, err := c.exec(ctx, statement{name: stmtAsymmetricEdges, cypher: asymmetricEdgesCypher})
	if err != nil {
		return nil, err
	}
	pairs := make([]common.FriendPair, 0, len(records))
	for _, rec := range records {
		pairs = append(pairs, common.FriendPair{
			PersonID: recordString(rec, "from"),
			FriendID: recordString(rec, "to"),
		})
	}
	return pairs, nil
}

func (c *Client) addDirectedEdge(ctx context.Context, from, to string) (bool, error) {
	records, err := c.exec(ctx, statement{
		name:   stmtAddEdge,
		cypher: addEdgeCypher,
		params: map[string]any{"from": from, "to": to},
		write:  true,
	})
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, fmt.Errorf("%w: person vertex %s or %s", common.ErrNotFound, from, to)
	}
	return recordBool(records[0], "existed"), nil
}

func (c *Client) removeDirectedEdge(ctx context.Context, from, to string) (int64, error) {
	records, err := c.exec(ctx, statement{
		name:   stmtRemoveEdge,
		cypher: removeEdgeCypher,
		params: map[string]any{"from": from, "to": to},
		write:  true,
	})
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	return recordInt(records[0], "removed"), nil
}

// compensate runs undo detached from ctx cancellation, since the original
// failure is often the caller's deadline.
func (c *Client) compensate(ctx context.Context, a, b string, cause error, undo func(context.Context) error) error {
	undoCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := util.RetryErrWithContext(undoCtx, compensationTries, undo); err != nil {
		asymmetricFriendshipsTotal.Inc()
		logger.Error("[Graph] Friendship left asymmetric", "person_id", a, "friend_id", b, "err", err)
		return errors.Join(
			fmt.Errorf("%w: %s <-> %s", common.ErrAsymmetricFriendship, a, b),
			cause,
			err,
		)
	}
	return cause
}
