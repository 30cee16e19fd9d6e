package graph

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoltDown = errors.New("bolt: connection reset")

// memGraph answers statements from an in-memory adjacency map. fail is
// consulted before every statement with the per-name call number (1-based).
type memGraph struct {
	mu       sync.Mutex
	vertices map[string]map[string]any
	edges    map[string]map[string]bool
	calls    map[string]int
	fail     func(name string, call int) error
}

func newMemGraph() *memGraph {
	return &memGraph{
		vertices: map[string]map[string]any{},
		edges:    map[string]map[string]bool{},
		calls:    map[string]int{},
	}
}

func (g *memGraph) addPerson(ids ...string) {
	for _, id := range ids {
		g.vertices[id] = map[string]any{"name": id}
	}
}

func (g *memGraph) link(a, b string) {
	g.setEdge(a, b)
	g.setEdge(b, a)
}

func (g *memGraph) setEdge(a, b string) {
	if g.edges[a] == nil {
		g.edges[a] = map[string]bool{}
	}
	g.edges[a][b] = true
}

func (g *memGraph) hasEdge(a, b string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.edges[a][b]
}

func (g *memGraph) callCount(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[name]
}

func row(keys []string, values ...any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

var depthPattern = regexp.MustCompile(`\*(?:1)?\.\.(\d+)`)

// depthOf returns the last variable-length bound formatted into cypher.
func depthOf(cypher string) int {
	matches := depthPattern.FindAllStringSubmatch(cypher, -1)
	if len(matches) == 0 {
		return 0
	}
	d, _ := strconv.Atoi(matches[len(matches)-1][1])
	return d
}

// reach returns every vertex reachable from id in 1..depth hops.
func (g *memGraph) reach(id string, depth int) []string {
	seen := map[string]bool{}
	frontier := []string{id}
	for hop := 0; hop < depth; hop++ {
		var next []string
		for _, cur := range frontier {
			for nb := range g.edges[cur] {
				if !seen[nb] {
					seen[nb] = true
					next = append(next, nb)
				}
			}
		}
		frontier = next
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (g *memGraph) neighbours(id string) []string {
	out := make([]string, 0, len(g.edges[id]))
	for nb := range g.edges[id] {
		out = append(out, nb)
	}
	slices.Sort(out)
	return out
}

func (g *memGraph) run(_ context.Context, st statement) ([]*neo4j.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls[st.name]++
	if g.fail != nil {
		if err := g.fail(st.name, g.calls[st.name]); err != nil {
			return nil, err
		}
	}

	str := func(key string) string {
		s, _ := st.params[key].(string)
		return s
	}

	switch st.name {
	case stmtPing:
		return []*neo4j.Record{row([]string{"ok"}, int64(1))}, nil
	case stmtSchema, stmtUpsertPerson:
		if st.name == stmtUpsertPerson {
			g.vertices[str("id")] = map[string]any{"name": str("name"), "email": str("email")}
		}
		return nil, nil
	case stmtUpdatePerson:
		v, ok := g.vertices[str("id")]
		if !ok {
			return []*neo4j.Record{row([]string{"matched"}, int64(0))}, nil
		}
		for k, val := range st.params["props"].(map[string]any) {
			v[k] = val
		}
		return []*neo4j.Record{row([]string{"matched"}, int64(1))}, nil
	case stmtRemovePerson:
		id := str("id")
		delete(g.vertices, id)
		delete(g.edges, id)
		for _, out := range g.edges {
			delete(out, id)
		}
		return nil, nil
	case stmtListPersonIDs:
		var rows []*neo4j.Record
		for id := range g.vertices {
			rows = append(rows, row([]string{"id"}, id))
		}
		return rows, nil
	case stmtEdgeExists:
		return []*neo4j.Record{row([]string{"exists"}, g.edges[str("from")][str("to")])}, nil
	case stmtAddEdge:
		from, to := str("from"), str("to")
		_, okA := g.vertices[from]
		_, okB := g.vertices[to]
		if !okA || !okB {
			return nil, nil
		}
		existed := g.edges[from][to]
		g.setEdge(from, to)
		return []*neo4j.Record{row([]string{"existed"}, existed)}, nil
	case stmtRemoveEdge:
		from, to := str("from"), str("to")
		removed := int64(0)
		if g.edges[from][to] {
			delete(g.edges[from], to)
			removed = 1
		}
		return []*neo4j.Record{row([]string{"removed"}, removed)}, nil
	case stmtFriendIDs:
		var rows []*neo4j.Record
		for _, nb := range g.neighbours(str("id")) {
			rows = append(rows, row([]string{"id"}, nb))
		}
		return rows, nil
	case stmtBulkFriendIDs:
		var rows []*neo4j.Record
		for _, pid := range st.params["ids"].([]string) {
			if nbs := g.neighbours(pid); len(nbs) > 0 {
				rows = append(rows, row([]string{"personId", "friendIds"}, pid, toAny(nbs)))
			}
		}
		return rows, nil
	case stmtReachable:
		from, to := str("from"), str("to")
		_, okA := g.vertices[from]
		_, okB := g.vertices[to]
		if !okA || !okB {
			return nil, nil
		}
		return []*neo4j.Record{row([]string{"reachable"}, slices.Contains(g.reach(from, depthOf(st.cypher)), to))}, nil
	case stmtShortestPath:
		path := g.shortestPath(str("from"), str("to"), depthOf(st.cypher))
		if path == nil {
			return nil, nil
		}
		return []*neo4j.Record{row([]string{"ids"}, toAny(path))}, nil
	case stmtNetwork:
		keys := []string{"id", "direct", "within2", "network"}
		var rows []*neo4j.Record
		for _, pid := range st.params["ids"].([]string) {
			if _, ok := g.vertices[pid]; !ok {
				continue
			}
			rows = append(rows, row(keys, pid,
				toAny(g.neighbours(pid)),
				toAny(g.reach(pid, 2)),
				toAny(g.reach(pid, depthOf(st.cypher))),
			))
		}
		return rows, nil
	case stmtAsymmetricEdges:
		var rows []*neo4j.Record
		for from, out := range g.edges {
			for to := range out {
				if !g.edges[to][from] {
					rows = append(rows, row([]string{"from", "to"}, from, to))
				}
			}
		}
		return rows, nil
	case stmtClear:
		g.vertices = map[string]map[string]any{}
		g.edges = map[string]map[string]bool{}
		return nil, nil
	}
	return nil, fmt.Errorf("memGraph: unhandled statement %q", st.name)
}

func (g *memGraph) shortestPath(from, to string, depth int) []string {
	parent := map[string]string{from: ""}
	frontier := []string{from}
	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []string
		for _, cur := range frontier {
			for _, nb := range g.neighbours(cur) {
				if _, seen := parent[nb]; seen {
					continue
				}
				parent[nb] = cur
				if nb == to {
					path := []string{to}
					for p := cur; p != ""; p = parent[p] {
						path = append([]string{p}, path...)
					}
					return path
				}
				next = append(next, nb)
			}
		}
		frontier = next
	}
	return nil
}

func newTestClient(g *memGraph) *Client {
	return newClientWithRunner(g, DefaultLimits())
}

func TestAddFriendshipEdge_CreatesBothDirections(t *testing.T) {
	g := newMemGraph()
	g.addPerson("a", "b")
	c := newTestClient(g)

	require.NoError(t, c.AddFriendshipEdge(context.Background(), "a", "b"))

	assert.True(t, g.hasEdge("a", "b"))
	assert.True(t, g.hasEdge("b", "a"))
	exists, err := c.FriendshipExists(context.Background(), "b", "a")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAddFriendshipEdge_RejectsSelf(t *testing.T) {
	g := newMemGraph()
	g.addPerson("a")
	c := newTestClient(g)

	err := c.AddFriendshipEdge(context.Background(), "a", "a")

	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Zero(t, g.callCount(stmtAddEdge))
}

func TestAddFriendshipEdge_MissingVertex(t *testing.T) {
	g := newMemGraph()
	g.addPerson("a")
	c := newTestClient(g)

	err := c.AddFriendshipEdge(context.Background(), "a", "ghost")

	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.False(t, g.hasEdge("a", "ghost"))
}

func TestAddFriendshipEdge_CompensatesWhenReverseFails(t *testing.T) {
	g := newMemGraph()
	g.addPerson("a", "b")
	g.fail = func(name string, call int) error {
		if name == stmtAddEdge && call == 2 {
			return errBoltDown
		}
		return nil
	}
	c := newTestClient(g)

	err := c.AddFriendshipEdge(context.Background(), "a", "b")

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, common.ErrAsymmetricFriendship)
	assert.False(t, g.hasEdge("a", "b"), "forward edge must be rolled back")
	assert.False(t, g.hasEdge("b", "a"))
}

func TestAddFriendshipEdge_KeepsPreexistingForwardEdge(t *testing.T) {
	g := newMemGraph()
	g.addPerson("a", "b")
	g.setEdge("a", "b")
	g.fail = func(name string, call int) error {
		if name == stmtAddEdge && call == 2 {
			return errBoltDown
		}
		return nil
	}
	c := newTestClient(g)

	err := c.AddFriendshipEdge(context.Background(), "a", "b")

	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.True(t, g.hasEdge("a", "b"))
	assert.Zero(t, g.callCount(stmtRemoveEdge))
}

func TestAddFriendshipEdge_ReportsAsymmetryWhenRollbackFails(t *testing.T) {
	g := newMemGraph()
	g.addPerson("a", "b")
	g.fail = func(name string, call int) error {
		if (name == stmtAddEdge && call == 2) || name == stmtRemoveEdge {
			return errBoltDown
		}
		return nil
	}
	c := newTestClient(g)

	err := c.AddFriendshipEdge(context.Background(), "a", "b")

	assert.ErrorIs(t, err, common.ErrAsymmetricFriendship)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.Equal(t, compensationTries, g.callCount(stmtRemoveEdge))
	assert.True(t, g.hasEdge("a", "b"))
	assert.False(t, g.hasEdge("b", "a"))

	asym, err := c.AsymmetricEdges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []common.FriendPair{{PersonID: "a", FriendID: "b"}}, asym)
}

func TestRemoveFriendshipEdge_RestoresForwardEdgeWhenReverseFails(t *testing.T) {
	g := newMemGraph()
	g.addPerson("a", "b")
	g.link("a", "b")
	g.fail = func(name string, call int) error {
		if name == stmtRemoveEdge && call == 2 {
			return errBoltDown
		}
		return nil
	}
	c := newTestClient(g)

	err := c.RemoveFriendshipEdge(context.Background(), "a", "b")

	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.True(t, g.hasEdge("a", "b"))
	assert.True(t, g.hasEdge("b", "a"))
}

func TestRemoveFriendshipEdge_Symmetric(t *testing.T) {
	g := newMemGraph()
	g.addPerson("a", "b")
	g.link("a", "b")
	c := newTestClient(g)

	require.NoError(t, c.RemoveFriendshipEdge(context.Background(), "a", "b"))

	assert.False(t, g.hasEdge("a", "b"))
	assert.False(t, g.hasEdge("b", "a"))
}

func TestDetectFriendshipCycle(t *testing.T) {
	g := newMemGraph()
	g.addPerson("a", "b", "c", "d", "lonely")
	g.link("a", "b")
	g.link("b", "c")
	g.link("c", "d")
	c := newTestClient(g)
	ctx := context.Background()

	found, err := c.DetectFriendshipCycle(ctx, "a", "d", 0)
	require.NoError(t, err)
	assert.True(t, found, "d is three hops from a")

	found, err = c.DetectFriendshipCycle(ctx, "a", "d", 2)
	require.NoError(t, err)
	assert.False(t, found, "d is out of reach within two hops")

	found, err = c.DetectFriendshipCycle(ctx, "a", "lonely", 0)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCycleDepth_DefaultsAndClamps(t *testing.T) {
	c := newTestClient(newMemGraph())

	assert.Equal(t, 6, c.cycleDepth(0))
	assert.Equal(t, 6, c.cycleDepth(-3))
	assert.Equal(t, 4, c.cycleDepth(4))
	assert.Equal(t, maxAllowedCycleDepth, c.cycleDepth(50))
}

func TestFindMultipleFriendIDs_FillsEveryInputID(t *testing.T) {
	g := newMemGraph()
	g.addPerson("a", "b", "c", "x")
	g.link("a", "x")
	c := newTestClient(g)

	got, err := c.FindMultipleFriendIDs(context.Background(), []string{"a", "b", "c"})

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"x"}, got["a"])
	assert.NotNil(t, got["b"])
	assert.Empty(t, got["b"])
	assert.NotNil(t, got["c"])
	assert.Empty(t, got["c"])
	assert.Equal(t, 1, g.callCount(stmtBulkFriendIDs))
}

func TestFindMultipleFriendIDs_EmptyInputSkipsQuery(t *testing.T) {
	g := newMemGraph()
	c := newTestClient(g)

	got, err := c.FindMultipleFriendIDs(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, g.callCount(stmtBulkFriendIDs))
}

func TestFindFriendIDs_FailsClosed(t *testing.T) {
	g := newMemGraph()
	g.addPerson("a", "b")
	g.link("a", "b")
	g.fail = func(string, int) error { return errBoltDown }
	c := newTestClient(g)

	ids, err := c.FindFriendIDs(context.Background(), "a")

	assert.Nil(t, ids)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.ErrorIs(t, err, errBoltDown)
}

func TestGetFriendshipNetworkStats(t *testing.T) {
	g := newMemGraph()
	g.addPerson("a", "b", "c", "d", "e", "f")
	// a - b - c - d - e, plus a - f and f - c
	g.link("a", "b")
	g.link("b", "c")
	g.link("c", "d")
	g.link("d", "e")
	g.link("a", "f")
	g.link("f", "c")
	c := newTestClient(g)

	stats, err := c.GetFriendshipNetworkStats(context.Background(), "a")

	require.NoError(t, err)
	assert.Equal(t, common.NetworkStats{
		DirectFriends:    2,
		FriendsOfFriends: 1,
		NetworkSize:      4,
		Depth:            3,
	}, stats)
}

func TestGetNetworkStatsBulk_UnknownIDHasZeroCounts(t *testing.T) {
	g := newMemGraph()
	g.addPerson("a", "b")
	g.link("a", "b")
	c := newTestClient(g)

	stats, err := c.GetNetworkStatsBulk(context.Background(), []string{"a", "ghost"})

	require.NoError(t, err)
	assert.Equal(t, 1, stats["a"].DirectFriends)
	assert.Equal(t, 1, stats["a"].NetworkSize)
	assert.Equal(t, common.NetworkStats{Depth: 3}, stats["ghost"])
}

func TestComputeNetworkStats(t *testing.T) {
	stats := computeNetworkStats("me",
		[]string{"b", "c", "c"},
		[]string{"b", "c", "me", "d", "e", "d"},
		[]string{"b", "c", "me", "d", "e", "f"},
		3,
	)

	assert.Equal(t, 2, stats.DirectFriends)
	assert.Equal(t, 2, stats.FriendsOfFriends)
	assert.Equal(t, 5, stats.NetworkSize)
	assert.Equal(t, 3, stats.Depth)
}

func TestFindShortestPath(t *testing.T) {
	g := newMemGraph()
	g.addPerson("a", "b", "c", "d", "z")
	g.link("a", "b")
	g.link("b", "c")
	g.link("c", "d")
	g.link("a", "c")
	c := newTestClient(g)
	ctx := context.Background()

	path, err := c.FindShortestPath(ctx, "a", "d", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d"}, path)

	path, err = c.FindShortestPath(ctx, "a", "z", 0)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = c.FindShortestPath(ctx, "a", "a", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, path)
}

func TestBulkAddFriendships(t *testing.T) {
	g := newMemGraph()
	g.addPerson("hub")
	pairs := make([]common.FriendPair, 0, 120)
	for i := range 120 {
		id := fmt.Sprintf("p%03d", i)
		g.addPerson(id)
		pairs = append(pairs, common.FriendPair{PersonID: "hub", FriendID: id})
	}
	c := newTestClient(g)

	require.NoError(t, c.BulkAddFriendships(context.Background(), pairs))

	for _, p := range pairs {
		assert.True(t, g.hasEdge("hub", p.FriendID))
		assert.True(t, g.hasEdge(p.FriendID, "hub"))
	}
	assert.Equal(t, 240, g.callCount(stmtAddEdge))
}

func TestUpdatePersonVertex(t *testing.T) {
	g := newMemGraph()
	g.addPerson("a")
	c := newTestClient(g)
	ctx := context.Background()
	name := "Ada"

	require.NoError(t, c.UpdatePersonVertex(ctx, "a", VertexUpdate{}))
	assert.Zero(t, g.callCount(stmtUpdatePerson))

	require.NoError(t, c.UpdatePersonVertex(ctx, "a", VertexUpdate{Name: &name}))
	assert.Equal(t, "Ada", g.vertices["a"]["name"])

	err := c.UpdatePersonVertex(ctx, "ghost", VertexUpdate{Name: &name})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRemovePersonVertex_DropsIncidentEdges(t *testing.T) {
	g := newMemGraph()
	g.addPerson("a", "b")
	g.link("a", "b")
	c := newTestClient(g)
	ctx := context.Background()

	require.NoError(t, c.RemovePersonVertex(ctx, "a"))
	require.NoError(t, c.RemovePersonVertex(ctx, "a"))

	assert.False(t, g.hasEdge("b", "a"))
	ids, err := c.ListPersonIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestUpsertPersonVertex_RejectsEmptyID(t *testing.T) {
	c := newTestClient(newMemGraph())

	err := c.UpsertPersonVertex(context.Background(), "", "x", "x@example.com")

	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestClearGraph(t *testing.T) {
	g := newMemGraph()
	g.addPerson("a", "b")
	g.link("a", "b")
	c := newTestClient(g)

	require.NoError(t, c.ClearGraph(context.Background()))
	require.NoError(t, c.Ping(context.Background()))

	assert.Empty(t, g.vertices)
	assert.Empty(t, g.edges)
}

func TestLimitsValidate(t *testing.T) {
	require.NoError(t, DefaultLimits().Validate())

	bad := DefaultLimits()
	bad.CycleCheckDepth = 11
	assert.ErrorIs(t, bad.Validate(), common.ErrInvalidInput)

	bad = DefaultLimits()
	bad.NetworkDepth = 0
	assert.ErrorIs(t, bad.Validate(), common.ErrInvalidInput)
}
