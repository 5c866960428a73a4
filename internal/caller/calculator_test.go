package caller

import (
	"context"
	"testing"

	"github.com/google/vertex-ai-benchmarker/internal/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculator_RecordsSum(t *testing.T) {
	sink := &RecordingSink{}
	c := NewCalculator(sink)
	req, err := corpus.NewSingleRequest("fs", "et", "e1", []string{"1", "2"})
	require.NoError(t, err)

	require.NoError(t, c.Issue(context.Background(), req))
	assert.Equal(t, []int{3}, sink.Sums())
}

func TestCalculator_RejectsWrongFeatureIDCount(t *testing.T) {
	sink := &RecordingSink{}
	c := NewCalculator(sink)
	req, err := corpus.NewSingleRequest("fs", "et", "e1", []string{"1"})
	require.NoError(t, err)

	err = c.Issue(context.Background(), req)
	require.Error(t, err)
}

func TestCalculator_RejectsNonIntegerFeatureID(t *testing.T) {
	sink := &RecordingSink{}
	c := NewCalculator(sink)
	req, err := corpus.NewSingleRequest("fs", "et", "e1", []string{"a", "2"})
	require.NoError(t, err)

	err = c.Issue(context.Background(), req)
	require.Error(t, err)
}

func TestRecordingSink_PreservesOrder(t *testing.T) {
	sink := &RecordingSink{}
	for _, v := range []int{5, 1, 9} {
		sink.Record(v)
	}
	assert.Equal(t, []int{5, 1, 9}, sink.Sums())
}
