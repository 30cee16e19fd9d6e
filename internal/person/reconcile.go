package person

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/store"
)

const reconcileChunk = 500

// ReconcileReport counts what one sweep changed in the graph.
type ReconcileReport struct {
	VerticesCreated int `json:"vertices_created"`
	VerticesRemoved int `json:"vertices_removed"`
	EdgesRepaired   int `json:"edges_repaired"`
}

// Reconcile brings the graph in line with the ledger: vertices are created
// for ledger rows that lack one, vertices without a ledger row are removed
// and one-sided friendships get their missing reverse edge. Running it again
// right away changes nothing.
func (s *Service) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	err := s.withFriendLease(ctx, func(ctx context.Context) error {
		// Vertices are listed before ledger ids. A person created in between
		// then shows up as missing, never as an orphan.
		vertexIDs, err := s.graph.ListPersonIDs(ctx)
		if err != nil {
			return err
		}
		ledgerIDs, err := s.ledger.ListPersonIDs(ctx)
		if err != nil {
			return err
		}

		missing, orphans := diffIDs(ledgerIDs, vertexIDs)

		created, err := s.createVertices(ctx, missing)
		report.VerticesCreated = created
		if err != nil {
			return err
		}

		for _, id := range orphans {
			removed, err := s.removeOrphan(ctx, id)
			if err != nil {
				return err
			}
			if removed {
				report.VerticesRemoved++
			}
		}

		pairs, err := s.graph.AsymmetricEdges(ctx)
		if err != nil {
			return err
		}
		for _, pair := range pairs {
			if err := s.graph.RepairEdge(ctx, pair.FriendID, pair.PersonID); err != nil {
				return err
			}
			report.EdgesRepaired++
		}
		return nil
	})
	if err != nil {
		logger.Error("[Person][Reconcile] Sweep failed", "created", report.VerticesCreated, "removed", report.VerticesRemoved, "repaired", report.EdgesRepaired, "err", err)
		return report, err
	}

	logger.Info("[Person][Reconcile] Sweep completed", "created", report.VerticesCreated, "removed", report.VerticesRemoved, "repaired", report.EdgesRepaired)
	return report, nil
}

// removeOrphan drops the vertex of id unless the ledger row turned up after
// the listing.
func (s *Service) removeOrphan(ctx context.Context, id string) (bool, error) {
	_, err := s.ledger.GetPerson(ctx, id)
	switch {
	case err == nil:
		logger.Debug("[Person][Reconcile] Vertex has a ledger row now, keeping it", "person_id", id)
		return false, nil
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrInvalidInput):
	default:
		return false, err
	}
	if err := s.graph.RemovePersonVertex(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) createVertices(ctx context.Context, ids []string) (int, error) {
	created := 0
	err := store.ChunkRange(len(ids), reconcileChunk, func(start, end int) error {
		rows, err := s.ledger.ListPersonsByIDs(ctx, ids[start:end])
		if err != nil {
			return err
		}
		for _, p := range rows {
			if err := s.graph.UpsertPersonVertex(ctx, p.ID, p.Name, p.Email); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	return created, err
}

// diffIDs returns the ledger ids without a vertex and the vertex ids
// without a ledger row.
func diffIDs(ledgerIDs, vertexIDs []string) (missing, orphans []string) {
	inLedger := make(map[string]struct{}, len(ledgerIDs))
	for _, id := range ledgerIDs {
		inLedger[id] = struct{}{}
	}
	inGraph := make(map[string]struct{}, len(vertexIDs))
	for _, id := range vertexIDs {
		inGraph[id] = struct{}{}
		if _, ok := inLedger[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	for _, id := range ledgerIDs {
		if _, ok := inGraph[id]; !ok {
			missing = append(missing, id)
		}
	}
	return store.DedupeStrings(missing), store.DedupeStrings(orphans)
}
