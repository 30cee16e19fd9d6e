package person

import (
	"context"
	"testing"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_RepairsDrift(t *testing.T) {
	f := newFixture(t)
	ids := f.persons(t, 3)

	delete(f.graph.vertices, ids[0])
	f.graph.vertices["orphan"] = common.Person{ID: "orphan"}
	f.graph.edges[edge{"orphan", ids[1]}] = true
	f.graph.edges[edge{ids[1], ids[2]}] = true

	report, err := f.svc.Reconcile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{VerticesCreated: 1, VerticesRemoved: 1, EdgesRepaired: 1}, report)
	assert.Equal(t, "Person 0", f.graph.vertices[ids[0]].Name)
	assert.NotContains(t, f.graph.vertices, "orphan")
	assert.True(t, f.graph.edges[edge{ids[2], ids[1]}])
	assert.Len(t, f.graph.edges, 2)

	again, err := f.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{}, again)
}

func TestReconcile_StopsOnGraphFailure(t *testing.T) {
	f := newFixture(t)
	ids := f.persons(t, 2)
	delete(f.graph.vertices, ids[0])
	delete(f.graph.vertices, ids[1])
	f.graph.fail["upsert"] = graphUnavailable("upsert_person")

	report, err := f.svc.Reconcile(context.Background())

	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.Zero(t, report.VerticesCreated)
}

func TestDiffIDs(t *testing.T) {
	missing, orphans := diffIDs([]string{"a", "b", "c"}, []string{"b", "d", "d"})

	assert.Equal(t, []string{"a", "c"}, missing)
	assert.Equal(t, []string{"d"}, orphans)
}

// hookLedger runs beforeList ahead of every id listing.
type hookLedger struct {
	*fakeLedger
	beforeList func()
}

func (l *hookLedger) ListPersonIDs(ctx context.Context) ([]string, error) {
	if l.beforeList != nil {
		l.beforeList()
	}
	return l.fakeLedger.ListPersonIDs(ctx)
}

// staleLedger hides ids from the id listing while still serving them by id.
type staleLedger struct {
	*fakeLedger
	hidden map[string]bool
}

func (l *staleLedger) ListPersonIDs(ctx context.Context) ([]string, error) {
	ids, err := l.fakeLedger.ListPersonIDs(ctx)
	out := ids[:0]
	for _, id := range ids {
		if !l.hidden[id] {
			out = append(out, id)
		}
	}
	return out, err
}

func TestReconcile_KeepsVertexCreatedDuringSweep(t *testing.T) {
	f := newFixture(t)
	ids := f.persons(t, 1)

	var late common.Person
	ledger := &hookLedger{fakeLedger: f.ledger}
	svc, err := NewService(NewServiceParams{Ledger: ledger, Graph: f.graph, Locker: f.locker})
	require.NoError(t, err)
	ledger.beforeList = func() {
		ledger.beforeList = nil
		late, err = svc.Create(context.Background(), "Late", "late@example.com")
		require.NoError(t, err)
		f.graph.link(late.ID, ids[0])
	}

	report, err := svc.Reconcile(context.Background())

	require.NoError(t, err)
	assert.Zero(t, report.VerticesRemoved)
	assert.Contains(t, f.graph.vertices, late.ID)
	assert.True(t, f.graph.edges[edge{late.ID, ids[0]}])
}

func TestReconcile_RechecksOrphansAgainstLedger(t *testing.T) {
	f := newFixture(t)
	ids := f.persons(t, 2)
	f.graph.link(ids[0], ids[1])
	f.graph.vertices["orphan"] = common.Person{ID: "orphan"}

	ledger := &staleLedger{fakeLedger: f.ledger, hidden: map[string]bool{ids[1]: true}}
	svc, err := NewService(NewServiceParams{Ledger: ledger, Graph: f.graph, Locker: f.locker})
	require.NoError(t, err)

	report, err := svc.Reconcile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.VerticesRemoved)
	assert.Contains(t, f.graph.vertices, ids[1])
	assert.NotContains(t, f.graph.vertices, "orphan")
	assert.True(t, f.graph.edges[edge{ids[0], ids[1]}])
}
