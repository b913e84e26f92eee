package plotting

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/collisionforest/collision"
	"github.com/YuminosukeSato/collisionforest/pkg/errors"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func ranked() []collision.FeatureImportance {
	return []collision.FeatureImportance{
		{Feature: "RoadMiles", Importance: 0.1},
		{Feature: "Intersections", Importance: 0.3},
		{Feature: "Population", Importance: 0.6},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	r := NewBarChartRenderer(t.TempDir())
	require.NoError(t, r.Render(&buf, collision.ImportanceTitle, ranked()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderSVG(t *testing.T) {
	var buf bytes.Buffer
	r := &BarChartRenderer{Format: "svg"}
	require.NoError(t, r.Render(&buf, "Features Importances", ranked()))
	assert.Contains(t, buf.String(), "<svg")
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := NewBarChartRenderer("").Render(&buf, "t", nil)
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))
	assert.Zero(t, buf.Len())
}

func TestRenderImportancesWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	r := NewBarChartRenderer(dir)
	require.NoError(t, r.RenderImportances("counts_NYC_TotalInjuries", collision.ImportanceTitle, ranked()))

	data, err := os.ReadFile(filepath.Join(dir, "counts_NYC_TotalInjuries.png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "a_b_c_d", fileName("a/b\\c d"))
}
