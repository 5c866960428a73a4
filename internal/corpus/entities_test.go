package corpus

import (
	"fmt"
	"testing"

	"github.com/google/vertex-ai-benchmarker/internal/bench"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"
)

// fakeRowIterator satisfies rowIterator over a fixed in-memory row set, so
// decodeEntityRows's mapping logic can be exercised without a live
// warehouse query.
type fakeRowIterator struct {
	rows []entityRow
	i    int
}

func (f *fakeRowIterator) Next(dst interface{}) error {
	if f.i >= len(f.rows) {
		return iterator.Done
	}
	row, ok := dst.(*entityRow)
	if !ok {
		return fmt.Errorf("unexpected dst type %T", dst)
	}
	*row = f.rows[f.i]
	f.i++
	return nil
}

func TestDecodeEntityRows_GroupsByFeaturestoreAndEntityTypeInRowOrder(t *testing.T) {
	it := &fakeRowIterator{rows: []entityRow{
		{FeaturestoreID: "fs1", EntityTypeID: "et1", EntityID: "e1"},
		{FeaturestoreID: "fs1", EntityTypeID: "et1", EntityID: "e2"},
		{FeaturestoreID: "fs1", EntityTypeID: "et2", EntityID: "e3"},
		{FeaturestoreID: "fs2", EntityTypeID: "et1", EntityID: "e4"},
	}}

	m, err := decodeEntityRows(it)
	require.NoError(t, err)

	assert.Equal(t, []string{"e1", "e2"}, m.lookup("fs1", "et1"))
	assert.Equal(t, []string{"e3"}, m.lookup("fs1", "et2"))
	assert.Equal(t, []string{"e4"}, m.lookup("fs2", "et1"))
	assert.Nil(t, m.lookup("fs3", "et1"))
}

func TestDecodeEntityRows_Empty(t *testing.T) {
	m, err := decodeEntityRows(&fakeRowIterator{})
	require.NoError(t, err)
	assert.Nil(t, m.lookup("fs1", "et1"))
}

func TestBuilder_LoadEntities_EntityQueryWithoutClientIsInternalError(t *testing.T) {
	b := &Builder{EntityQuery: "select *"}
	_, err := b.loadEntities(nil)
	require.Error(t, err)
	assert.True(t, bench.Is(err, bench.Internal))
}
