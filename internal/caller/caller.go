// Package caller provides the single-method port that turns one
// corpus.Request into an RPC against the feature-retrieval service, plus a
// factory that selects an implementation by API version.
package caller

import (
	"context"
	"fmt"

	"github.com/google/vertex-ai-benchmarker/internal/bench"
	"github.com/google/vertex-ai-benchmarker/internal/corpus"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Caller issues one Request against the remote service. Implementations
// choose the streaming vs single-entity RPC path based on the Request's
// populated field.
type Caller interface {
	Issue(ctx context.Context, req corpus.Request) error
	Close() error
}

// APIVersion selects which Vertex AI Feature Store client surface a Caller
// is built against.
type APIVersion int

const (
	V1 APIVersion = iota
	V1beta1
)

func (v APIVersion) String() string {
	if v == V1beta1 {
		return "v1beta1"
	}
	return "v1"
}

// defaultEndpoint mirrors the original constructor's fallback.
func defaultEndpoint(location string) string {
	return fmt.Sprintf("%s-aiplatform.googleapis.com:443", location)
}

// BuilderConfig carries the shared constructor surface both API-version
// Callers accept.
type BuilderConfig struct {
	Project          string
	Location         string
	EndpointOverride string
}

func (c BuilderConfig) endpoint() string {
	if c.EndpointOverride != "" {
		return c.EndpointOverride
	}
	return defaultEndpoint(c.Location)
}

// wrapRPCError classifies a Vertex AI RPC failure by its gRPC status code
// before tagging it with a bench.Kind, sharpening the original caller's
// exception-mapping logic: a deadline/cancellation is an ExecutionTimeout,
// a rejected argument or missing resource is InputMalformed, and anything
// else (unavailable, transport-level) falls back to ExternalUnavailable.
func wrapRPCError(msg string, err error) error {
	switch status.Code(err) {
	case codes.DeadlineExceeded, codes.Canceled:
		return bench.Wrap(bench.ExecutionTimeout, msg, err)
	case codes.InvalidArgument, codes.NotFound:
		return bench.Wrap(bench.InputMalformed, msg, err)
	default:
		return bench.Wrap(bench.ExternalUnavailable, msg, err)
	}
}

// Build constructs the concrete Caller for the given API version.
func Build(ctx context.Context, version APIVersion, cfg BuilderConfig, opts ...option.ClientOption) (Caller, error) {
	endpointOpt := option.WithEndpoint(cfg.endpoint())
	allOpts := append([]option.ClientOption{endpointOpt}, opts...)

	switch version {
	case V1:
		return newVertexAIV1(ctx, cfg, allOpts...)
	case V1beta1:
		return newVertexAIV1beta1(ctx, cfg, allOpts...)
	default:
		return nil, bench.Newf(bench.Internal, "unknown API version %v", version)
	}
}
