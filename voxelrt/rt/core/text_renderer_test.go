package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextRendererAtlas(t *testing.T) {
	tr, err := NewTextRenderer(nil, 16)
	require.NoError(t, err)

	for _, r := range "FPS 0123456789 render" {
		if r == ' ' {
			continue
		}
		g, ok := tr.Glyphs[r]
		require.True(t, ok, "glyph %q", r)
		assert.Greater(t, g.Adv, float32(0))
		assert.Less(t, g.UVMin[0], g.UVMax[0])
	}
}

func TestTextRendererVertices(t *testing.T) {
	tr, err := NewTextRenderer(nil, 16)
	require.NoError(t, err)

	items := []TextItem{{Text: "ab\ncd", Position: [2]float32{10, 10}, Scale: 1, Color: [4]float32{1, 1, 1, 1}}}
	verts := tr.BuildVertices(items, 800, 600)
	assert.Len(t, verts, 4*6)
	for _, v := range verts {
		assert.GreaterOrEqual(t, v.Pos[0], float32(-1))
		assert.LessOrEqual(t, v.Pos[0], float32(1))
	}
	assert.Empty(t, tr.BuildVertices(items, 0, 600))

	w1, h1 := tr.MeasureText("ab", 1)
	w2, h2 := tr.MeasureText("ab\nab", 1)
	assert.Equal(t, w1, w2)
	assert.Equal(t, 2*h1, h2)
	assert.Equal(t, tr.LineHeight(1), h1)

	_, err = NewTextRenderer([]byte("not a font"), 16)
	assert.Error(t, err)
}
