package corpus

import (
	"testing"

	"github.com/google/vertex-ai-benchmarker/internal/bench"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSingleRequest_RejectsEmptyEntityID(t *testing.T) {
	_, err := NewSingleRequest("fs", "et", "", []string{"f1"})
	require.Error(t, err)
	assert.True(t, bench.Is(err, bench.InputMalformed))
}

func TestNewSingleRequest_RejectsEmptyFeatureIDs(t *testing.T) {
	_, err := NewSingleRequest("fs", "et", "e1", nil)
	require.Error(t, err)
	assert.True(t, bench.Is(err, bench.InputMalformed))
}

func TestNewStreamingRequest_RejectsEmptyEntityIDs(t *testing.T) {
	_, err := NewStreamingRequest("fs", "et", nil, []string{"f1"})
	require.Error(t, err)
	assert.True(t, bench.Is(err, bench.InputMalformed))
}

func TestFromRequests_PreservesOrderAndLength(t *testing.T) {
	r1, err := NewSingleRequest("fs", "et", "a", []string{"f1"})
	require.NoError(t, err)
	r2, err := NewSingleRequest("fs", "et", "b", []string{"f1"})
	require.NoError(t, err)

	c := FromRequests([]Request{r1, r2})
	require.Equal(t, 2, c.Len())
	assert.Equal(t, "a", c.At(0).EntityID())
	assert.Equal(t, "b", c.At(1).EntityID())
	assert.False(t, c.Empty())
}
