package graph

import "fmt"

// Labels used in the graph store.
const (
	PersonLabel    = "Person"
	FriendEdgeType = "HAS_FRIEND"
)

// statement is one parameterized Cypher submission. Name identifies the
// operation in logs and metrics.
type statement struct {
	name   string
	cypher string
	params map[string]any
	write  bool
}

const (
	stmtPing            = "ping"
	stmtSchema          = "ensure_schema"
	stmtUpsertPerson    = "upsert_person"
	stmtUpdatePerson    = "update_person"
	stmtRemovePerson    = "remove_person"
	stmtListPersonIDs   = "list_person_ids"
	stmtEdgeExists      = "edge_exists"
	stmtAddEdge         = "add_edge"
	stmtRemoveEdge      = "remove_edge"
	stmtFriendIDs       = "friend_ids"
	stmtBulkFriendIDs   = "bulk_friend_ids"
	stmtReachable       = "reachable"
	stmtShortestPath    = "shortest_path"
	stmtNetwork         = "network"
	stmtAsymmetricEdges = "asymmetric_edges"
	stmtClear           = "clear"
)

const pingCypher = `RETURN 1 AS ok`

const schemaCypher = `
CREATE CONSTRAINT person_id_unique IF NOT EXISTS
FOR (p:Person) REQUIRE p.id IS UNIQUE
`

const upsertPersonCypher = `
MERGE (p:Person {id: $id})
SET p.name = $name, p.email = $email
`

const updatePersonCypher = `
MATCH (p:Person {id: $id})
SET p += $props
RETURN count(p) AS matched
`

const removePersonCypher = `
MATCH (p:Person {id: $id})
DETACH DELETE p
`

const listPersonIDsCypher = `
MATCH (p:Person)
RETURN p.id AS id
`

const edgeExistsCypher = `
MATCH (:Person {id: $from})-[r:HAS_FRIEND]->(:Person {id: $to})
RETURN count(r) > 0 AS exists
`

// addEdgeCypher yields no row when either vertex is missing. existed tells
// the caller whether the edge was already present before the MERGE.
const addEdgeCypher = `
MATCH (a:Person {id: $from}), (b:Person {id: $to})
OPTIONAL MATCH (a)-[existing:HAS_FRIEND]->(b)
WITH a, b, count(existing) > 0 AS existed
MERGE (a)-[r:HAS_FRIEND]->(b)
ON CREATE SET r.since = datetime()
RETURN existed
`

const removeEdgeCypher = `
OPTIONAL MATCH (:Person {id: $from})-[r:HAS_FRIEND]->(:Person {id: $to})
WITH collect(r) AS rels
FOREACH (rel IN rels | DELETE rel)
RETURN size(rels) AS removed
`

const friendIDsCypher = `
MATCH (:Person {id: $id})-[:HAS_FRIEND]->(f:Person)
RETURN DISTINCT f.id AS id
`

// bulkFriendIDsCypher only yields persons with at least one edge.
const bulkFriendIDsCypher = `
UNWIND $ids AS pid
MATCH (p:Person {id: pid})-[:HAS_FRIEND]->(f:Person)
RETURN pid AS personId, collect(DISTINCT f.id) AS friendIds
`

const asymmetricEdgesCypher = `
MATCH (a:Person)-[:HAS_FRIEND]->(b:Person)
WHERE NOT (b)-[:HAS_FRIEND]->(a)
RETURN a.id AS from, b.id AS to
`

const clearCypher = `
MATCH (n)
DETACH DELETE n
`

// Variable-length bounds cannot be parameters in Cypher, so the depth is
// formatted into the text. Depths are validated integers.

func reachableCypher(maxDepth int) string {
	return fmt.Sprintf(`
MATCH (a:Person {id: $from}), (b:Person {id: $to})
RETURN EXISTS { MATCH (a)-[:HAS_FRIEND*1..%d]->(b) } AS reachable
`, maxDepth)
}

func shortestPathCypher(maxDepth int) string {
	return fmt.Sprintf(`
MATCH (a:Person {id: $from}), (b:Person {id: $to})
MATCH path = shortestPath((a)-[:HAS_FRIEND*..%d]->(b))
RETURN [n IN nodes(path) | n.id] AS ids
`, maxDepth)
}

func networkCypher(depth int) string {
	return fmt.Sprintf(`
UNWIND $ids AS pid
MATCH (p:Person {id: pid})
OPTIONAL MATCH (p)-[:HAS_FRIEND]->(d:Person)
WITH p, collect(DISTINCT d.id) AS direct
OPTIONAL MATCH (p)-[:HAS_FRIEND*1..2]->(s:Person)
WITH p, direct, collect(DISTINCT s.id) AS within2
OPTIONAL MATCH (p)-[:HAS_FRIEND*1..%d]->(n:Person)
RETURN p.id AS id, direct, within2, collect(DISTINCT n.id) AS network
`, depth)
}
