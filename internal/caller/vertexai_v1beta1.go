package caller

import (
	"context"
	"fmt"
	"io"

	aiplatform "cloud.google.com/go/aiplatform/apiv1beta1"
	"cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"github.com/google/vertex-ai-benchmarker/internal/bench"
	"github.com/google/vertex-ai-benchmarker/internal/corpus"
	"google.golang.org/api/option"
)

// vertexAIV1beta1Caller issues requests against the v1beta1
// FeaturestoreOnlineServingClient, mirroring vertexAIV1Caller exactly.
type vertexAIV1beta1Caller struct {
	client *aiplatform.FeaturestoreOnlineServingClient
	cfg    BuilderConfig
}

func newVertexAIV1beta1(ctx context.Context, cfg BuilderConfig, opts ...option.ClientOption) (Caller, error) {
	client, err := aiplatform.NewFeaturestoreOnlineServingClient(ctx, opts...)
	if err != nil {
		return nil, bench.Wrap(bench.ExternalUnavailable, "constructing v1beta1 featurestore online serving client", err)
	}
	return &vertexAIV1beta1Caller{client: client, cfg: cfg}, nil
}

func (c *vertexAIV1beta1Caller) entityTypePath(req corpus.Request) string {
	return fmt.Sprintf("projects/%s/locations/%s/featurestores/%s/entityTypes/%s",
		c.cfg.Project, c.cfg.Location, req.FeaturestoreID, req.EntityType)
}

func (c *vertexAIV1beta1Caller) Issue(ctx context.Context, req corpus.Request) error {
	selector := &aiplatformpb.FeatureSelector{
		IdMatcher: &aiplatformpb.IdMatcher{Ids: req.FeatureIDs},
	}

	if req.Kind == corpus.Streaming {
		stream, err := c.client.StreamingReadFeatureValues(ctx, &aiplatformpb.StreamingReadFeatureValuesRequest{
			EntityType:      c.entityTypePath(req),
			EntityIds:       req.EntityIDs(),
			FeatureSelector: selector,
		})
		if err != nil {
			return wrapRPCError("streaming read feature values", err)
		}
		for {
			_, err := stream.Recv()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return wrapRPCError("streaming read feature values recv", err)
			}
		}
	}

	_, err := c.client.ReadFeatureValues(ctx, &aiplatformpb.ReadFeatureValuesRequest{
		EntityType:      c.entityTypePath(req),
		EntityId:        req.EntityID(),
		FeatureSelector: selector,
	})
	if err != nil {
		return wrapRPCError("read feature values", err)
	}
	return nil
}

func (c *vertexAIV1beta1Caller) Close() error { return c.client.Close() }
