package graph

import "github.com/neo4j/neo4j-go-driver/v5/neo4j"

func recordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func recordInt(rec *neo4j.Record, key string) int64 {
	v, ok := rec.Get(key)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}

func recordBool(rec *neo4j.Record, key string) bool {
	v, ok := rec.Get(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// recordStrings reads a list column. Cypher lists arrive as []any; null
// entries produced by OPTIONAL MATCH are skipped.
func recordStrings(rec *neo4j.Record, key string) []string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return []string{}
	}
	var items []any
	switch l := v.(type) {
	case []any:
		items = l
	case []string:
		return append([]string{}, l...)
	default:
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
