package graph

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"
)

// VertexUpdate carries the person properties to change; nil fields are left
// untouched.
type VertexUpdate struct {
	Name  *string
	Email *string
}

func (u VertexUpdate) props() map[string]any {
	props := make(map[string]any, 2)
	if u.Name != nil {
		props["name"] = *u.Name
	}
	if u.Email != nil {
		props["email"] = *u.Email
	}
	return props
}

// UpsertPersonVertex creates the vertex keyed by id or refreshes its
// properties. Calling it repeatedly is harmless.
func (c *Client) UpsertPersonVertex(ctx context.Context, id, name, email string) error {
	if id == "" {
		return fmt.Errorf("%w: person id is empty", common.ErrInvalidInput)
	}
	logger.Debug("[Graph][UpsertPersonVertex] Upserting person vertex", "person_id", id)
	_, err := c.exec(ctx, statement{
		name:   stmtUpsertPerson,
		cypher: upsertPersonCypher,
		params: map[string]any{"id": id, "name": name, "email": email},
		write:  true,
	})
	return err
}

// UpdatePersonVertex changes the given properties of an existing vertex.
// An empty update issues no query. A missing vertex is ErrNotFound.
func (c *Client) UpdatePersonVertex(ctx context.Context, id string, update VertexUpdate) error {
	props := update.props()
	if len(props) == 0 {
		return nil
	}
	records, err := c.exec(ctx, statement{
		name:   stmtUpdatePerson,
		cypher: updatePersonCypher,
		params: map[string]any{"id": id, "props": props},
		write:  true,
	})
	if err != nil {
		return err
	}
	if len(records) == 0 || recordInt(records[0], "matched") == 0 {
		return fmt.Errorf("%w: person vertex %s", common.ErrNotFound, id)
	}
	return nil
}

// RemovePersonVertex drops the vertex and every incident edge. Removing an
// absent vertex is not an error.
func (c *Client) RemovePersonVertex(ctx context.Context, id string) error {
	logger.Debug("[Graph][RemovePersonVertex] Removing person vertex", "person_id", id)
	_, err := c.exec(ctx, statement{
		name:   stmtRemovePerson,
		cypher: removePersonCypher,
		params: map[string]any{"id": id},
		write:  true,
	})
	return err
}

// ListPersonIDs returns the id of every person vertex.
func (c *Client) ListPersonIDs(ctx context.Context) ([]string, error) {
	records, err := c.exec(ctx, statement{name: stmtListPersonIDs, cypher: listPersonIDsCypher})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if id := recordString(rec, "id"); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
