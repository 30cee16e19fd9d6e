// Package person applies person and friendship mutations to the ledger and
// the friendship graph. The ledger is written first and is the source of
// truth; the graph follows it.
package person

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lendnet/backend/internal/util"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/graph"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/leaselock"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/store"
)

// Ledger is the part of the ledger store the coordinator needs.
type Ledger interface {
	CreatePerson(ctx context.Context, name, email string) (common.Person, error)
	GetPerson(ctx context.Context, id string) (common.Person, error)
	UpdatePerson(ctx context.Context, id string, update store.PersonUpdate) (common.Person, error)
	DeletePerson(ctx context.Context, id string) error
	ListPersonsByIDs(ctx context.Context, ids []string) ([]common.Person, error)
	ListPersonIDs(ctx context.Context) ([]string, error)
}

// Graph is the part of the graph client the coordinator needs.
type Graph interface {
	Limits() graph.Limits

	UpsertPersonVertex(ctx context.Context, id, name, email string) error
	UpdatePersonVertex(ctx context.Context, id string, update graph.VertexUpdate) error
	RemovePersonVertex(ctx context.Context, id string) error
	ListPersonIDs(ctx context.Context) ([]string, error)

	FriendshipExists(ctx context.Context, from, to string) (bool, error)
	AddFriendshipEdge(ctx context.Context, a, b string) error
	RemoveFriendshipEdge(ctx context.Context, a, b string) error
	DetectFriendshipCycle(ctx context.Context, from, to string, maxDepth int) (bool, error)
	FindFriendIDs(ctx context.Context, id string) ([]string, error)
	GetFriendshipNetworkStats(ctx context.Context, id string) (common.NetworkStats, error)
	GetNetworkStatsBulk(ctx context.Context, ids []string) (map[string]common.NetworkStats, error)

	AsymmetricEdges(ctx context.Context) ([]common.FriendPair, error)
	RepairEdge(ctx context.Context, from, to string) error
	ClearGraph(ctx context.Context) error
}

// Locker serializes friendship mutations across processes.
type Locker interface {
	WithLease(ctx context.Context, key string, opts leaselock.Options, fn func(ctx context.Context) error) error
}

var _ Graph = (*graph.Client)(nil)

type Service struct {
	ledger Ledger
	graph  Graph
	locker Locker
}

// NewServiceParams wires a Service. Without a Locker friendship mutations
// are only serialized within the process.
type NewServiceParams struct {
	Ledger Ledger
	Graph  Graph
	Locker Locker
}

func NewService(params NewServiceParams) (*Service, error) {
	if params.Ledger == nil || params.Graph == nil {
		return nil, fmt.Errorf("%w: person service needs a ledger and a graph", common.ErrInvalidInput)
	}
	locker := params.Locker
	if locker == nil {
		locker = &localLocker{}
	}
	return &Service{ledger: params.Ledger, graph: params.Graph, locker: locker}, nil
}

var friendLease = leaselock.Options{
	TTL:          30 * time.Second,
	Wait:         true,
	WaitInterval: 100 * time.Millisecond,
	WaitJitter:   50 * time.Millisecond,
	MaxWait:      10 * time.Second,
	TokenPrefix:  "friends-",
}

// Create inserts the ledger row and then mirrors it as a vertex. When the
// vertex write fails the ledger row stays; Reconcile creates the vertex
// later.
func (s *Service) Create(ctx context.Context, name, email string) (common.Person, error) {
	name = util.CleanName(name)
	email = util.NormalizeEmail(email)
	if name == "" || email == "" {
		return common.Person{}, fmt.Errorf("%w: name and email are required", common.ErrInvalidInput)
	}

	p, err := s.ledger.CreatePerson(ctx, name, email)
	if err != nil {
		return common.Person{}, err
	}
	if err := s.graph.UpsertPersonVertex(ctx, p.ID, p.Name, p.Email); err != nil {
		logger.Error("[Person][Create] Vertex write failed, ledger row kept for reconcile", "person_id", p.ID, "err", err)
		return common.Person{}, err
	}

	logger.Info("[Person][Create] Person created", "person_id", p.ID)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (common.Person, error) {
	return s.ledger.GetPerson(ctx, id)
}

// Update changes the ledger row and then the vertex, but only when name or
// email actually changed.
func (s *Service) Update(ctx context.Context, id string, update store.PersonUpdate) (common.Person, error) {
	if update.Name != nil {
		v := util.CleanName(*update.Name)
		if v == "" {
			return common.Person{}, fmt.Errorf("%w: name must not be empty", common.ErrInvalidInput)
		}
		update.Name = &v
	}
	if update.Email != nil {
		v := util.NormalizeEmail(*update.Email)
		if v == "" {
			return common.Person{}, fmt.Errorf("%w: email must not be empty", common.ErrInvalidInput)
		}
		update.Email = &v
	}

	before, err := s.ledger.GetPerson(ctx, id)
	if err != nil {
		return common.Person{}, err
	}
	if update.Empty() {
		return before, nil
	}

	after, err := s.ledger.UpdatePerson(ctx, id, update)
	if err != nil {
		return common.Person{}, err
	}

	var vu graph.VertexUpdate
	if after.Name != before.Name {
		vu.Name = &after.Name
	}
	if after.Email != before.Email {
		vu.Email = &after.Email
	}
	if vu.Name == nil && vu.Email == nil {
		return after, nil
	}

	err = s.graph.UpdatePersonVertex(ctx, id, vu)
	if errors.Is(err, common.ErrNotFound) {
		logger.Warn("[Person][Update] Vertex missing, recreating", "person_id", id)
		err = s.graph.UpsertPersonVertex(ctx, after.ID, after.Name, after.Email)
	}
	if err != nil {
		logger.Error("[Person][Update] Vertex update failed", "person_id", id, "err", err)
		return common.Person{}, err
	}
	return after, nil
}

// Delete checks the ledger row exists, deletes it and then removes the
// vertex with its edges.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.ledger.GetPerson(ctx, id); err != nil {
		return err
	}
	if err := s.ledger.DeletePerson(ctx, id); err != nil {
		return err
	}
	if err := s.graph.RemovePersonVertex(ctx, id); err != nil {
		logger.Error("[Person][Delete] Vertex removal failed, orphan left for reconcile", "person_id", id, "err", err)
		return err
	}

	logger.Info("[Person][Delete] Person deleted", "person_id", id)
	return nil
}

// ClearGraph drops every vertex and edge under the friendships lease, so no
// friend request writes into a graph that is being cleared. The ledger is
// untouched; Reconcile recreates the vertices without friendships.
func (s *Service) ClearGraph(ctx context.Context) error {
	return s.withFriendLease(ctx, func(ctx context.Context) error {
		if err := s.graph.ClearGraph(ctx); err != nil {
			return err
		}
		logger.Warn("[Person][ClearGraph] Graph cleared")
		return nil
	})
}

func (s *Service) withFriendLease(ctx context.Context, fn func(ctx context.Context) error) error {
	err := s.locker.WithLease(ctx, leaselock.FriendshipsKey, friendLease, fn)
	if errors.Is(err, leaselock.ErrBusy) || errors.Is(err, leaselock.ErrLost) {
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	return err
}
