package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// The embedded config.yaml is what new installations start from, so it has
// to stay parseable and in sync with the defaults.
func TestDefaultConfigIsValidYAML(t *testing.T) {
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(getDefaultConfig()), &doc))

	for _, section := range []string{"main", "output", "geocoding", "timezone", "import"} {
		assert.Contains(t, doc, section)
	}

	output, ok := doc["output"].(map[string]any)
	require.True(t, ok)
	sqlite, ok := output["sqlite"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, sqlite["enabled"])

	importSection, ok := doc["import"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2.0, importSection["timewindow"])
}

func TestSetTestSettings(t *testing.T) {
	original := GetSettings()
	t.Cleanup(func() { SetTestSettings(original) })

	s := validTestSettings()
	SetTestSettings(s)
	assert.Same(t, s, GetSettings())
}
