package caller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderConfig_EndpointDefault(t *testing.T) {
	cfg := BuilderConfig{Location: "us-central1"}
	assert.Equal(t, "us-central1-aiplatform.googleapis.com:443", cfg.endpoint())
}

func TestBuilderConfig_EndpointOverride(t *testing.T) {
	cfg := BuilderConfig{Location: "us-central1", EndpointOverride: "custom:443"}
	assert.Equal(t, "custom:443", cfg.endpoint())
}

func TestAPIVersion_String(t *testing.T) {
	assert.Equal(t, "v1", V1.String())
	assert.Equal(t, "v1beta1", V1beta1.String())
}
