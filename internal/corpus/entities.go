package corpus

import (
	"context"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/google/vertex-ai-benchmarker/internal/bench"
	"google.golang.org/api/iterator"
)

// entityMap is featurestoreId -> entityType -> ordered entityIds, with
// duplicates preserved in insertion order. It is built once by an
// EntitySource and consulted only during placeholder expansion.
type entityMap map[string]map[string][]string

func newEntityMap() entityMap { return entityMap{} }

func (m entityMap) add(featurestoreID, entityType, entityID string) {
	byType, ok := m[featurestoreID]
	if !ok {
		byType = map[string][]string{}
		m[featurestoreID] = byType
	}
	byType[entityType] = append(byType[entityType], entityID)
}

func (m entityMap) lookup(featurestoreID, entityType string) []string {
	byType, ok := m[featurestoreID]
	if !ok {
		return nil
	}
	return byType[entityType]
}

// EntitySource produces the entity mapping consulted during placeholder
// expansion. fileEntitySource parses a whitespace-delimited token listing;
// bigQueryEntitySource runs a warehouse query.
type EntitySource interface {
	Load(ctx context.Context) (entityMap, error)
}

// fileEntitySource parses whitespace-delimited tokens of the form
// featurestores/{FS}/entityTypes/{ET}/entities/{ID}.
type fileEntitySource struct {
	content string
}

// newFileEntitySource wraps raw entity-listing content already read from a
// local path or gs:// blob.
func newFileEntitySource(content string) *fileEntitySource {
	return &fileEntitySource{content: content}
}

func (s *fileEntitySource) Load(ctx context.Context) (entityMap, error) {
	m := newEntityMap()
	for _, tok := range strings.Fields(s.content) {
		fs, et, id, err := parseEntityToken(tok)
		if err != nil {
			return nil, err
		}
		m.add(fs, et, id)
	}
	return m, nil
}

// parseEntityToken validates and splits a six-segment entity path.
func parseEntityToken(tok string) (featurestoreID, entityType, entityID string, err error) {
	segs := strings.Split(tok, "/")
	if len(segs) != 6 || segs[0] != "featurestores" || segs[2] != "entityTypes" || segs[4] != "entities" {
		return "", "", "", bench.Newf(bench.InputMalformed, "malformed entity token %q: want featurestores/{FS}/entityTypes/{ET}/entities/{ID}", tok)
	}
	if segs[1] == "" || segs[3] == "" || segs[5] == "" {
		return "", "", "", bench.Newf(bench.InputMalformed, "malformed entity token %q: empty segment", tok)
	}
	return segs[1], segs[3], segs[5], nil
}

// bigQueryEntitySource runs a warehouse query expecting result columns
// featurestore_id, entity_type_id, entity_id.
type bigQueryEntitySource struct {
	client *bigquery.Client
	query  string
}

func newBigQueryEntitySource(client *bigquery.Client, query string) *bigQueryEntitySource {
	return &bigQueryEntitySource{client: client, query: query}
}

type entityRow struct {
	FeaturestoreID string `bigquery:"featurestore_id"`
	EntityTypeID   string `bigquery:"entity_type_id"`
	EntityID       string `bigquery:"entity_id"`
}

// rowIterator is the subset of *bigquery.RowIterator's surface
// decodeEntityRows needs, narrowed so the row-mapping logic can be tested
// against a fake without a live warehouse connection.
type rowIterator interface {
	Next(dst interface{}) error
}

func (s *bigQueryEntitySource) Load(ctx context.Context) (entityMap, error) {
	q := s.client.Query(s.query)
	it, err := q.Read(ctx)
	if err != nil {
		return nil, bench.Wrap(bench.ExternalUnavailable, "entity warehouse query failed", err)
	}
	return decodeEntityRows(it)
}

// decodeEntityRows drains it into an entityMap, preserving row order within
// each featurestore/entityType pair.
func decodeEntityRows(it rowIterator) (entityMap, error) {
	m := newEntityMap()
	for {
		var row entityRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, bench.Wrap(bench.ExternalUnavailable, "entity warehouse query row decode failed", err)
		}
		m.add(row.FeaturestoreID, row.EntityTypeID, row.EntityID)
	}
	return m, nil
}
