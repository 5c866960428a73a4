package corpus

import (
	"context"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/google/vertex-ai-benchmarker/internal/bench"
)

// Builder orchestrates parse -> entity map -> expansion -> ordered Corpus.
// Exactly one of EntityFilePath or EntityQuery should be set; an empty
// Builder with neither produces a Corpus with no placeholder expansion
// (literal entity ids pass through unchanged).
type Builder struct {
	TemplatePath   string
	EntityFilePath string
	EntityQuery    string

	StorageClient  *storage.Client
	BigQueryClient *bigquery.Client
}

// Build reads the template and entity inputs, expands placeholders, and
// returns the resulting Corpus in template traversal order.
func (b *Builder) Build(ctx context.Context) (Corpus, error) {
	templateSrc, err := readSource(ctx, b.StorageClient, b.TemplatePath)
	if err != nil {
		return Corpus{}, err
	}
	groups, err := parseTemplate(templateSrc)
	if err != nil {
		return Corpus{}, err
	}

	entities, err := b.loadEntities(ctx)
	if err != nil {
		return Corpus{}, err
	}

	var requests []Request
	for _, g := range groups {
		for _, tr := range g.requests {
			expanded, err := expandRequest(g.featurestoreID, tr, entities)
			if err != nil {
				return Corpus{}, err
			}
			requests = append(requests, expanded...)
		}
	}
	if len(requests) == 0 {
		return Corpus{}, bench.New(bench.InputMalformed, "corpus is empty after expansion")
	}
	return FromRequests(requests), nil
}

func (b *Builder) loadEntities(ctx context.Context) (entityMap, error) {
	var source EntitySource
	switch {
	case b.EntityQuery != "":
		if b.BigQueryClient == nil {
			return nil, bench.New(bench.Internal, "entity query requires a warehouse client")
		}
		source = newBigQueryEntitySource(b.BigQueryClient, b.EntityQuery)
	case b.EntityFilePath != "":
		content, err := readSource(ctx, b.StorageClient, b.EntityFilePath)
		if err != nil {
			return nil, err
		}
		source = newFileEntitySource(content)
	default:
		return newEntityMap(), nil
	}
	return source.Load(ctx)
}

// expandRequest materializes one or more corpus.Request values from a
// parsed template request, expanding ${ENTITY_ID} placeholders against the
// entity mapping in insertion order.
func expandRequest(featurestoreID string, tr templateRequest, entities entityMap) ([]Request, error) {
	if tr.kind == Single {
		if !isPlaceholder(tr.entityID) {
			req, err := NewSingleRequest(featurestoreID, tr.entityType, tr.entityID, tr.featureIDs)
			if err != nil {
				return nil, err
			}
			return []Request{req}, nil
		}
		ids := entities.lookup(featurestoreID, tr.entityType)
		out := make([]Request, 0, len(ids))
		for _, id := range ids {
			req, err := NewSingleRequest(featurestoreID, tr.entityType, id, tr.featureIDs)
			if err != nil {
				return nil, err
			}
			out = append(out, req)
		}
		return out, nil
	}

	entityIDs := tr.entityIDs
	for _, id := range tr.entityIDs {
		if isPlaceholder(id) {
			entityIDs = entities.lookup(featurestoreID, tr.entityType)
			break
		}
	}
	req, err := NewStreamingRequest(featurestoreID, tr.entityType, entityIDs, tr.featureIDs)
	if err != nil {
		return nil, err
	}
	return []Request{req}, nil
}
