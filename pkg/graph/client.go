package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lendnet/backend/internal/util"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// runner submits a statement to the graph store and returns its rows.
type runner interface {
	run(ctx context.Context, st statement) ([]*neo4j.Record, error)
}

type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func (d *driverRunner) run(ctx context.Context, st statement) ([]*neo4j.Record, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{neo4j.ExecuteQueryWithDatabase(d.database)}
	if st.write {
		opts = append(opts, neo4j.ExecuteQueryWithWritersRouting())
	} else {
		opts = append(opts, neo4j.ExecuteQueryWithReadersRouting())
	}

	res, err := neo4j.ExecuteQuery(ctx, d.driver, st.cypher, st.params, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// Client is the only component that talks to the graph store. It owns the
// driver, and with it the pooled connections shared by every caller.
//
// A Client should be created using NewClient.
type Client struct {
	runner runner
	limits Limits
	close  func(ctx context.Context) error
}

// NewClientParams defines how to reach the graph store and which traversal
// limits apply.
//
// ConnectRetries controls how often connectivity is verified, with growing
// pauses, before giving up; it only applies while connecting.
type NewClientParams struct {
	URI      string
	User     string
	Password string
	Database string

	Limits         Limits
	ConnectRetries int
}

// NewClient opens a driver and verifies that the graph store answers.
//
// Example:
//
//	client, err := graph.NewClient(ctx, graph.NewClientParams{
//		URI:      "bolt://localhost:7687",
//		User:     "neo4j",
//		Password: "secret",
//		Limits:   graph.DefaultLimits(),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close(ctx)
func NewClient(ctx context.Context, params NewClientParams) (*Client, error) {
	if err := params.Limits.Validate(); err != nil {
		return nil, err
	}

	driver, err := neo4j.NewDriverWithContext(params.URI, neo4j.BasicAuth(params.User, params.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("%w: graph driver: %w", common.ErrStoreUnavailable, err)
	}

	logger.Info("[Graph] Connecting to graph store", "uri", params.URI, "database", params.Database)
	err = util.RetryErrWithBackoff(ctx, params.ConnectRetries, time.Second, func(ctx context.Context) error {
		verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return driver.VerifyConnectivity(verifyCtx)
	})
	if err != nil {
		_ = driver.Close(context.Background())
		return nil, fmt.Errorf("%w: graph connectivity: %w", common.ErrStoreUnavailable, err)
	}
	logger.Info("[Graph] Connected to graph store")

	return &Client{
		runner: &driverRunner{driver: driver, database: params.Database},
		limits: params.Limits,
		close:  driver.Close,
	}, nil
}

func newClientWithRunner(r runner, limits Limits) *Client {
	return &Client{runner: r, limits: limits}
}

// Limits returns the traversal limits the client was configured with.
func (c *Client) Limits() Limits {
	return c.limits
}

// Close releases the driver.
func (c *Client) Close(ctx context.Context) error {
	if c.close == nil {
		return nil
	}
	logger.Info("[Graph] Disconnecting from graph store")
	return c.close(ctx)
}

// Ping submits a trivial query; it backs the detailed health check.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.exec(ctx, statement{name: stmtPing, cypher: pingCypher})
	return err
}

// EnsureSchema creates the uniqueness constraint on person ids.
func (c *Client) EnsureSchema(ctx context.Context) error {
	_, err := c.exec(ctx, statement{name: stmtSchema, cypher: schemaCypher, write: true})
	return err
}

// ClearGraph drops every vertex and edge. It is unguarded here; callers
// gate access.
func (c *Client) ClearGraph(ctx context.Context) error {
	logger.Warn("[Graph][ClearGraph] Clearing all data from the graph store")
	_, err := c.exec(ctx, statement{name: stmtClear, cypher: clearCypher, write: true})
	return err
}

// exec runs st and translates any failure into ErrStoreUnavailable.
func (c *Client) exec(ctx context.Context, st statement) ([]*neo4j.Record, error) {
	start := time.Now()
	records, err := c.runner.run(ctx, st)
	observeQuery(st.name, time.Since(start), err)
	if err != nil {
		logger.Error("[Graph] Query failed", "statement", st.name, "err", err)
		return nil, fmt.Errorf("%w: graph %s: %w", common.ErrStoreUnavailable, st.name, err)
	}
	logger.Debug("[Graph] Query executed", "statement", st.name, "rows", len(records), "duration_ms", time.Since(start).Milliseconds())
	return records, nil
}
