package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/vertex-ai-benchmarker/internal/bench"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const singlePlaceholderTemplate = `
requests_per_featurestore {
  featurestore_id: "fs"
  requests {
    read_feature_values_request {
      entity_type: "et"
      entity_id: "${ENTITY_ID}"
      feature_selector {
        id_matcher {
          ids: "f1"
        }
      }
    }
  }
}
`

func TestBuilder_PlaceholderExpansion(t *testing.T) {
	templatePath := writeTemp(t, "template.txt", singlePlaceholderTemplate)
	entityPath := writeTemp(t, "entities.txt",
		"featurestores/fs/entityTypes/et/entities/a featurestores/fs/entityTypes/et/entities/b featurestores/fs/entityTypes/et/entities/c")

	b := &Builder{TemplatePath: templatePath, EntityFilePath: entityPath}
	c, err := b.Build(context.Background())
	require.NoError(t, err)

	require.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"a", "b", "c"}, []string{c.At(0).EntityID(), c.At(1).EntityID(), c.At(2).EntityID()})
	for i := 0; i < c.Len(); i++ {
		assert.Equal(t, Single, c.At(i).Kind)
		assert.Equal(t, []string{"f1"}, c.At(i).FeatureIDs)
	}
}

func TestBuilder_RoundTrip_EveryExpandedEntityIDCameFromListing(t *testing.T) {
	templatePath := writeTemp(t, "template.txt", singlePlaceholderTemplate)
	entityPath := writeTemp(t, "entities.txt",
		"featurestores/fs/entityTypes/et/entities/x featurestores/fs/entityTypes/et/entities/y")

	b := &Builder{TemplatePath: templatePath, EntityFilePath: entityPath}
	c, err := b.Build(context.Background())
	require.NoError(t, err)

	listing := map[string]bool{"x": true, "y": true}
	for i := 0; i < c.Len(); i++ {
		assert.True(t, listing[c.At(i).EntityID()])
	}
}

func TestBuilder_NoPlaceholder_PassesThroughLiteralEntityID(t *testing.T) {
	template := `
requests_per_featurestore {
  featurestore_id: "fs"
  requests {
    read_feature_values_request {
      entity_type: "et"
      entity_id: "literal-id"
      feature_selector {
        id_matcher {
          ids: "f1"
        }
      }
    }
  }
}
`
	templatePath := writeTemp(t, "template.txt", template)
	b := &Builder{TemplatePath: templatePath}
	c, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "literal-id", c.At(0).EntityID())
}

func TestBuilder_MalformedTemplate_FailsWithInputMalformed(t *testing.T) {
	templatePath := writeTemp(t, "template.txt", `requests_per_featurestore { featurestore_id: "fs" `)
	b := &Builder{TemplatePath: templatePath}
	_, err := b.Build(context.Background())
	require.Error(t, err)
	assert.True(t, bench.Is(err, bench.InputMalformed))
}

func TestBuilder_MalformedEntityToken_FailsWithInputMalformed(t *testing.T) {
	templatePath := writeTemp(t, "template.txt", singlePlaceholderTemplate)
	entityPath := writeTemp(t, "entities.txt", "not/a/valid/token")

	b := &Builder{TemplatePath: templatePath, EntityFilePath: entityPath}
	_, err := b.Build(context.Background())
	require.Error(t, err)
	assert.True(t, bench.Is(err, bench.InputMalformed))
}

func TestBuilder_StreamingEntityIDsPlaceholder_SubstitutesWholeList(t *testing.T) {
	template := `
requests_per_featurestore {
  featurestore_id: "fs"
  requests {
    streaming_read_feature_values_request {
      entity_type: "et"
      entity_ids: "${ENTITY_ID}"
      feature_selector {
        id_matcher {
          ids: "f1"
          ids: "f2"
        }
      }
    }
  }
}
`
	templatePath := writeTemp(t, "template.txt", template)
	entityPath := writeTemp(t, "entities.txt",
		"featurestores/fs/entityTypes/et/entities/a featurestores/fs/entityTypes/et/entities/b")

	b := &Builder{TemplatePath: templatePath, EntityFilePath: entityPath}
	c, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, []string{"a", "b"}, c.At(0).EntityIDs())
	assert.Equal(t, []string{"f1", "f2"}, c.At(0).FeatureIDs)
}
