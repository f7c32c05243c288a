package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexColor(t *testing.T) {
	r, g, b, err := ParseHexColor("#D32F2F")
	require.NoError(t, err)
	assert.Equal(t, uint8(0xD3), r)
	assert.Equal(t, uint8(0x2F), g)
	assert.Equal(t, uint8(0x2F), b)
}

func TestParseHexColorWithoutHash(t *testing.T) {
	r, g, b, err := ParseHexColor("00FF00")
	require.NoError(t, err)
	assert.Equal(t, uint8(0), r)
	assert.Equal(t, uint8(255), g)
	assert.Equal(t, uint8(0), b)
}

func TestParseHexColorInvalid(t *testing.T) {
	cases := []string{"", "#FFF", "#GGGGGG", "#D32F2F00", "red"}
	for _, c := range cases {
		_, _, _, err := ParseHexColor(c)
		assert.Error(t, err, "expected error for %q", c)
	}
}

func TestProjectPaths(t *testing.T) {
	project := filepath.Join("some", "project")

	assert.Equal(t, filepath.Join(project, "data", "images"), GetImagesDir(project))
	assert.Equal(t, filepath.Join(project, "output"), GetOutputDir(project))
	assert.Equal(t, filepath.Join(project, "models"), GetModelsDir(project))
	assert.Equal(t, filepath.Join(project, "results.db"), GetDefaultDatabasePath(project))
}
