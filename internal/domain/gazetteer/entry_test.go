package gazetteer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Gazetteer file loading: JSON and YAML, fatal on empty or malformed input
// =============================================================================

func TestLoadEntries_JSONPreservesOrderAndCodes(t *testing.T) {
	entries, err := LoadEntries(filepath.Join("testdata", "labels.json"))
	require.NoError(t, err)
	require.Len(t, entries, 7)

	assert.Equal(t, "Schweiz", entries[0].Label)
	assert.Equal(t, "", entries[0].Canton, "null canton decodes to empty")
	assert.Equal(t, "1200", entries[3].District, "numeric district decodes to string")
	assert.Equal(t, "CH0246000351", entries[6].LabelID)
	assert.Equal(t, "CH", entries[6].Country())
}

func TestLoadEntries_YAML(t *testing.T) {
	entries, err := LoadEntries(filepath.Join("testdata", "labels.yaml"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "311", entries[0].District)
	assert.Equal(t, 1, entries[1].Level)
	assert.Equal(t, "", entries[1].District)
}

func TestParseEntries_Empty(t *testing.T) {
	_, err := ParseEntries([]byte(`[]`), "json")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ParseEntries([]byte(``), "yaml")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestParseEntries_Malformed(t *testing.T) {
	cases := map[string]string{
		"no label":    `[{"label": "", "label_id": "CH1", "level": 1}]`,
		"no label_id": `[{"label": "Bern", "level": 1}]`,
		"no level":    `[{"label": "Bern", "label_id": "CH1"}]`,
		"null level":  `[{"label": "Bern", "label_id": "CH1", "level": null}]`,
		"text level":  `[{"label": "Bern", "label_id": "CH1", "level": "high"}]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEntries([]byte(doc), "json")
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParseEntries_Unparsable(t *testing.T) {
	_, err := ParseEntries([]byte(`{not json`), "json")
	assert.Error(t, err)

	_, err = ParseEntries([]byte(`[]`), "xml")
	assert.Error(t, err)
}

func TestLoadEntries_MissingFile(t *testing.T) {
	_, err := LoadEntries(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseEntries_FloatCodes(t *testing.T) {
	entries, err := ParseEntries([]byte(`[{"label": "Aarau", "label_id": "CH1901004001", "level": 3.0, "canton": "AG", "district": 1901.0}]`), "json")
	require.NoError(t, err)
	assert.Equal(t, 3, entries[0].Level)
	assert.Equal(t, "1901", entries[0].District)
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, "yaml", FormatOf("labels.YML"))
	assert.Equal(t, "yaml", FormatOf("a/b/labels.yaml"))
	assert.Equal(t, "json", FormatOf("labels.json"))
	assert.Equal(t, "json", FormatOf("labels"))
}
