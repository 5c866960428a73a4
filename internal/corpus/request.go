// Package corpus builds the ordered sequence of parameterized requests a
// run drives against the feature-retrieval service: it parses a request
// template and an entity corpus, expands ${ENTITY_ID} placeholders against
// the entity mapping, and materializes the result as a Corpus.
package corpus

import (
	"fmt"

	"github.com/google/vertex-ai-benchmarker/internal/bench"
)

// EntityKind distinguishes the two request shapes a Request can take.
type EntityKind int

const (
	// Single requests carry exactly one entity ID.
	Single EntityKind = iota
	// Streaming requests carry an ordered sequence of entity IDs.
	Streaming
)

// Request is one immutable, parameterized call to the remote service.
// Exactly one of EntityID/EntityIDs is populated, matching the Kind.
type Request struct {
	FeaturestoreID string
	EntityType     string
	Kind           EntityKind
	entityID       string
	entityIDs      []string
	FeatureIDs     []string
}

// NewSingleRequest builds a Request backed by one entity ID.
func NewSingleRequest(featurestoreID, entityType, entityID string, featureIDs []string) (Request, error) {
	if entityID == "" {
		return Request{}, bench.New(bench.InputMalformed, "single request requires a non-empty entity id")
	}
	if len(featureIDs) == 0 {
		return Request{}, bench.New(bench.InputMalformed, "request requires at least one feature id")
	}
	return Request{
		FeaturestoreID: featurestoreID,
		EntityType:     entityType,
		Kind:           Single,
		entityID:       entityID,
		FeatureIDs:     featureIDs,
	}, nil
}

// NewStreamingRequest builds a Request backed by an ordered entity ID list.
func NewStreamingRequest(featurestoreID, entityType string, entityIDs, featureIDs []string) (Request, error) {
	if len(entityIDs) == 0 {
		return Request{}, bench.New(bench.InputMalformed, "streaming request requires at least one entity id")
	}
	if len(featureIDs) == 0 {
		return Request{}, bench.New(bench.InputMalformed, "request requires at least one feature id")
	}
	return Request{
		FeaturestoreID: featurestoreID,
		EntityType:     entityType,
		Kind:           Streaming,
		entityIDs:      entityIDs,
		FeatureIDs:     featureIDs,
	}, nil
}

// EntityID returns the single entity id. Only valid when Kind == Single.
func (r Request) EntityID() string { return r.entityID }

// EntityIDs returns the streaming entity id list. Only valid when
// Kind == Streaming.
func (r Request) EntityIDs() []string { return r.entityIDs }

func (r Request) String() string {
	if r.Kind == Streaming {
		return fmt.Sprintf("featurestoreID: %s, entityType: %s, entityIDs: %v, featureIDs: %v",
			r.FeaturestoreID, r.EntityType, r.entityIDs, r.FeatureIDs)
	}
	return fmt.Sprintf("featurestoreID: %s, entityType: %s, entityID: %s, featureIDs: %v",
		r.FeaturestoreID, r.EntityType, r.entityID, r.FeatureIDs)
}

// Corpus is the finite ordered sequence of Requests driving a run.
type Corpus struct {
	requests []Request
}

// FromRequests wraps an in-memory request list as a Corpus directly,
// bypassing template/entity parsing entirely. This is the Go analogue of
// the original builderForInputList mode, used by the arithmetic test
// Caller scenarios where there is no template or entity file to parse.
func FromRequests(requests []Request) Corpus {
	return Corpus{requests: requests}
}

// Len returns the number of requests in the corpus.
func (c Corpus) Len() int { return len(c.requests) }

// At returns the request at index i.
func (c Corpus) At(i int) Request { return c.requests[i] }

// Empty reports whether the corpus has no requests.
func (c Corpus) Empty() bool { return len(c.requests) == 0 }
