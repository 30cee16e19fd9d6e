package graph

import (
	"context"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"
)

// FindFriendIDs returns the ids one outbound hop away from id. A store
// failure is returned as an error, never as a partial list.
func (c *Client) FindFriendIDs(ctx context.Context, id string) ([]string, error) {
	records, err := c.exec(ctx, statement{
		name:   stmtFriendIDs,
		cypher: friendIDsCypher,
		params: map[string]any{"id": id},
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if fid := recordString(rec, "id"); fid != "" {
			ids = append(ids, fid)
		}
	}
	return ids, nil
}

// FindMultipleFriendIDs resolves the direct friends of every id in one round
// trip. Every input id is a key of the result, mapped to an empty list when
// the person has no friends or no vertex.
func (c *Client) FindMultipleFriendIDs(ctx context.Context, ids []string) (map[string][]string, error) {
	result := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	records, err := c.exec(ctx, statement{
		name:   stmtBulkFriendIDs,
		cypher: bulkFriendIDsCypher,
		params: map[string]any{"ids": ids},
	})
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		result[recordString(rec, "personId")] = recordStrings(rec, "friendIds")
	}
	for _, id := range ids {
		if _, ok := result[id]; !ok {
			result[id] = []string{}
		}
	}
	return result, nil
}

// DetectFriendshipCycle reports whether to is already reachable from from
// within maxDepth hops, which means the edge from -> to would only add a
// redundant path. A maxDepth of zero or less uses the configured depth;
// larger values are clamped to the hard ceiling.
func (c *Client) DetectFriendshipCycle(ctx context.Context, from, to string, maxDepth int) (bool, error) {
	depth := c.cycleDepth(maxDepth)
	records, err := c.exec(ctx, statement{
		name:   stmtReachable,
		cypher: reachableCypher(depth),
		params: map[string]any{"from": from, "to": to},
	})
	if err != nil {
		return false, err
	}
	found := len(records) > 0 && recordBool(records[0], "reachable")
	if found {
		logger.Debug("[Graph][DetectFriendshipCycle] Target already reachable", "from", from, "to", to, "depth", depth)
	}
	return found, nil
}

// FindShortestPath returns the ids on the shortest friendship path from one
// person to another, both ends included. An empty slice means no path
// within maxDepth hops.
func (c *Client) FindShortestPath(ctx context.Context, from, to string, maxDepth int) ([]string, error) {
	if from == to {
		return []string{from}, nil
	}
	records, err := c.exec(ctx, statement{
		name:   stmtShortestPath,
		cypher: shortestPathCypher(c.cycleDepth(maxDepth)),
		params: map[string]any{"from": from, "to": to},
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []string{}, nil
	}
	return recordStrings(records[0], "ids"), nil
}

// GetFriendshipNetworkStats counts the direct friends, the second-degree
// friends and the network within the configured depth of id. An unknown id
// yields zero counts.
func (c *Client) GetFriendshipNetworkStats(ctx context.Context, id string) (common.NetworkStats, error) {
	stats, err := c.GetNetworkStatsBulk(ctx, []string{id})
	if err != nil {
		return common.NetworkStats{}, err
	}
	return stats[id], nil
}

// GetNetworkStatsBulk is GetFriendshipNetworkStats for many ids in one round
// trip. Every input id is a key of the result.
func (c *Client) GetNetworkStatsBulk(ctx context.Context, ids []string) (map[string]common.NetworkStats, error) {
	depth := c.limits.NetworkDepth
	result := make(map[string]common.NetworkStats, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	records, err := c.exec(ctx, statement{
		name:   stmtNetwork,
		cypher: networkCypher(depth),
		params: map[string]any{"ids": ids},
	})
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		id := recordString(rec, "id")
		result[id] = computeNetworkStats(
			id,
			recordStrings(rec, "direct"),
			recordStrings(rec, "within2"),
			recordStrings(rec, "network"),
			depth,
		)
	}
	for _, id := range ids {
		if _, ok := result[id]; !ok {
			result[id] = common.NetworkStats{Depth: depth}
		}
	}
	return result, nil
}

// computeNetworkStats derives the counts from raw reachability sets. Friends
// of friends are the persons within two hops minus direct friends and self.
// The network size is every distinct person within depth hops except self.
func computeNetworkStats(self string, direct, within2, network []string, depth int) common.NetworkStats {
	directSet := make(map[string]struct{}, len(direct))
	for _, id := range direct {
		if id != self {
			directSet[id] = struct{}{}
		}
	}

	second := make(map[string]struct{}, len(within2))
	for _, id := range within2 {
		if id == self {
			continue
		}
		if _, ok := directSet[id]; ok {
			continue
		}
		second[id] = struct{}{}
	}

	reach := make(map[string]struct{}, len(network))
	for _, id := range network {
		if id != self {
			reach[id] = struct{}{}
		}
	}

	return common.NetworkStats{
		DirectFriends:    len(directSet),
		FriendsOfFriends: len(second),
		NetworkSize:      len(reach),
		Depth:            depth,
	}
}

func (c *Client) cycleDepth(requested int) int {
	if requested <= 0 {
		return c.limits.CycleCheckDepth
	}
	return min(requested, maxAllowedCycleDepth)
}
