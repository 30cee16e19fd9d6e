package person

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/graph"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/leaselock"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/store"

	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	persons map[string]common.Person
	next    int
	calls   *[]string
}

func (l *fakeLedger) log(call string) {
	*l.calls = append(*l.calls, "ledger."+call)
}

func (l *fakeLedger) CreatePerson(_ context.Context, name, email string) (common.Person, error) {
	l.log("create")
	for _, p := range l.persons {
		if p.Email == email {
			return common.Person{}, fmt.Errorf("%w: email %s", common.ErrConflict, email)
		}
	}
	l.next++
	p := common.Person{ID: fmt.Sprintf("00000000-0000-4000-8000-%012d", l.next), Name: name, Email: email}
	l.persons[p.ID] = p
	return p, nil
}

func (l *fakeLedger) GetPerson(_ context.Context, id string) (common.Person, error) {
	p, ok := l.persons[id]
	if !ok {
		return common.Person{}, fmt.Errorf("%w: person %s", common.ErrNotFound, id)
	}
	return p, nil
}

func (l *fakeLedger) UpdatePerson(_ context.Context, id string, u store.PersonUpdate) (common.Person, error) {
	l.log("update")
	p, ok := l.persons[id]
	if !ok {
		return common.Person{}, common.ErrNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	l.persons[id] = p
	return p, nil
}

func (l *fakeLedger) DeletePerson(_ context.Context, id string) error {
	l.log("delete")
	delete(l.persons, id)
	return nil
}

func (l *fakeLedger) ListPersonsByIDs(_ context.Context, ids []string) ([]common.Person, error) {
	var out []common.Person
	for _, id := range store.DedupeStrings(ids) {
		if p, ok := l.persons[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (l *fakeLedger) ListPersonIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(l.persons))
	for id := range l.persons {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type edge struct{ from, to string }

// memGraph keeps vertices and directed edges in maps and answers
// traversals with a breadth-first search.
type memGraph struct {
	limits   graph.Limits
	vertices map[string]common.Person
	edges    map[edge]bool
	calls    *[]string
	fail     map[string]error
}

func (g *memGraph) log(call string) error {
	*g.calls = append(*g.calls, "graph."+call)
	return g.fail[call]
}

func (g *memGraph) Limits() graph.Limits { return g.limits }

func (g *memGraph) UpsertPersonVertex(_ context.Context, id, name, email string) error {
	if err := g.log("upsert"); err != nil {
		return err
	}
	g.vertices[id] = common.Person{ID: id, Name: name, Email: email}
	return nil
}

func (g *memGraph) UpdatePersonVertex(_ context.Context, id string, u graph.VertexUpdate) error {
	if err := g.log("update"); err != nil {
		return err
	}
	v, ok := g.vertices[id]
	if !ok {
		return fmt.Errorf("%w: person vertex %s", common.ErrNotFound, id)
	}
	if u.Name != nil {
		v.Name = *u.Name
	}
	if u.Email != nil {
		v.Email = *u.Email
	}
	g.vertices[id] = v
	return nil
}

func (g *memGraph) RemovePersonVertex(_ context.Context, id string) error {
	if err := g.log("remove"); err != nil {
		return err
	}
	delete(g.vertices, id)
	for e := range g.edges {
		if e.from == id || e.to == id {
			delete(g.edges, e)
		}
	}
	return nil
}

func (g *memGraph) ListPersonIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(g.vertices))
	for id := range g.vertices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (g *memGraph) FriendshipExists(_ context.Context, from, to string) (bool, error) {
	return g.edges[edge{from, to}], g.fail["exists"]
}

func (g *memGraph) link(a, b string) {
	g.edges[edge{a, b}] = true
	g.edges[edge{b, a}] = true
}

func (g *memGraph) AddFriendshipEdge(_ context.Context, a, b string) error {
	if err := g.log("add_edge"); err != nil {
		return err
	}
	g.link(a, b)
	return nil
}

func (g *memGraph) RemoveFriendshipEdge(_ context.Context, a, b string) error {
	if err := g.log("remove_edge"); err != nil {
		return err
	}
	delete(g.edges, edge{a, b})
	delete(g.edges, edge{b, a})
	return nil
}

func (g *memGraph) reach(from string, depth int) map[string]int {
	dist := map[string]int{from: 0}
	frontier := []string{from}
	for d := 1; d <= depth && len(frontier) > 0; d++ {
		var next []string
		for _, id := range frontier {
			for e := range g.edges {
				if e.from != id {
					continue
				}
				if _, seen := dist[e.to]; !seen {
					dist[e.to] = d
					next = append(next, e.to)
				}
			}
		}
		frontier = next
	}
	return dist
}

func (g *memGraph) DetectFriendshipCycle(_ context.Context, from, to string, maxDepth int) (bool, error) {
	if maxDepth <= 0 {
		maxDepth = g.limits.CycleCheckDepth
	}
	_, ok := g.reach(from, maxDepth)[to]
	return ok, nil
}

func (g *memGraph) FindFriendIDs(_ context.Context, id string) ([]string, error) {
	var ids []string
	for e := range g.edges {
		if e.from == id {
			ids = append(ids, e.to)
		}
	}
	sort.Strings(ids)
	return ids, g.fail["friends"]
}

func (g *memGraph) GetFriendshipNetworkStats(ctx context.Context, id string) (common.NetworkStats, error) {
	stats, err := g.GetNetworkStatsBulk(ctx, []string{id})
	return stats[id], err
}

func (g *memGraph) GetNetworkStatsBulk(_ context.Context, ids []string) (map[string]common.NetworkStats, error) {
	out := make(map[string]common.NetworkStats, len(ids))
	for _, id := range ids {
		st := common.NetworkStats{Depth: g.limits.NetworkDepth}
		for other, d := range g.reach(id, g.limits.NetworkDepth) {
			if other == id {
				continue
			}
			switch d {
			case 1:
				st.DirectFriends++
			case 2:
				st.FriendsOfFriends++
			}
			st.NetworkSize++
		}
		out[id] = st
	}
	return out, nil
}

func (g *memGraph) AsymmetricEdges(context.Context) ([]common.FriendPair, error) {
	var pairs []common.FriendPair
	for e := range g.edges {
		if !g.edges[edge{e.to, e.from}] {
			pairs = append(pairs, common.FriendPair{PersonID: e.from, FriendID: e.to})
		}
	}
	return pairs, nil
}

func (g *memGraph) RepairEdge(_ context.Context, from, to string) error {
	if err := g.log("repair"); err != nil {
		return err
	}
	g.edges[edge{from, to}] = true
	return nil
}

func (g *memGraph) ClearGraph(context.Context) error {
	if err := g.log("clear"); err != nil {
		return err
	}
	clear(g.vertices)
	clear(g.edges)
	return nil
}

type recordingLocker struct {
	keys []string
	err  error
}

func (r *recordingLocker) WithLease(ctx context.Context, key string, _ leaselock.Options, fn func(context.Context) error) error {
	r.keys = append(r.keys, key)
	if r.err != nil {
		return r.err
	}
	return fn(ctx)
}

type fixture struct {
	svc    *Service
	ledger *fakeLedger
	graph  *memGraph
	locker *recordingLocker
	calls  []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{locker: &recordingLocker{}}
	f.ledger = &fakeLedger{persons: map[string]common.Person{}, calls: &f.calls}
	f.graph = &memGraph{
		limits:   graph.DefaultLimits(),
		vertices: map[string]common.Person{},
		edges:    map[edge]bool{},
		calls:    &f.calls,
		fail:     map[string]error{},
	}
	svc, err := NewService(NewServiceParams{Ledger: f.ledger, Graph: f.graph, Locker: f.locker})
	require.NoError(t, err)
	f.svc = svc
	return f
}

// persons creates n persons through the service and returns their ids.
func (f *fixture) persons(t *testing.T, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := range n {
		p, err := f.svc.Create(context.Background(), fmt.Sprintf("Person %d", i), fmt.Sprintf("p%d@example.com", i))
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	f.calls = nil
	return ids
}

func graphUnavailable(op string) error {
	return fmt.Errorf("%w: graph %s: connection reset", common.ErrStoreUnavailable, op)
}
