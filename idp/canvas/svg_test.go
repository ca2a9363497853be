package canvas

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSVG(t *testing.T, data []byte) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(data))
	root := doc.SelectElement("svg")
	require.NotNil(t, root)
	return root
}

func TestExportSVG_Strokes(t *testing.T) {
	s := newSurface(t)
	require.NoError(t, s.Replay([][]Point{
		{{X: 10, Y: 10}, {X: 20, Y: 30}, {X: 40, Y: 35}},
		{{X: 100, Y: 100}, {X: 150, Y: 120}},
	}))

	data, err := s.ExportSVG()
	require.NoError(t, err)

	root := parseSVG(t, data)
	assert.Equal(t, "500", root.SelectAttrValue("width", ""))
	assert.Equal(t, "200", root.SelectAttrValue("height", ""))

	paths := root.SelectElements("path")
	require.Len(t, paths, 2)
	assert.Equal(t, "M10.00 10.00 L20.00 30.00 L40.00 35.00", paths[0].SelectAttrValue("d", ""))
	assert.Equal(t, "#000000", paths[0].SelectAttrValue("stroke", ""))
	assert.Equal(t, "3", paths[0].SelectAttrValue("stroke-width", ""))
	assert.Equal(t, "round", paths[1].SelectAttrValue("stroke-linecap", ""))
}

func TestExportSVG_ClearedSurfaceHasNoPaths(t *testing.T) {
	s := newSurface(t)
	require.NoError(t, s.Replay([][]Point{{{X: 10, Y: 10}, {X: 20, Y: 30}}}))
	s.Clear()

	data, err := s.ExportSVG()
	require.NoError(t, err)
	assert.Empty(t, parseSVG(t, data).SelectElements("path"))
}
