package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathAccumulatesSegments(t *testing.T) {
	p := NewPath()
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.QuadraticTo(15, 5, 10, 10)
	p.CubicTo(8, 12, 2, 12, 0, 10)
	p.Close()

	segs := p.Segments()
	require.Len(t, segs, 5)
	assert.Equal(t, SegMoveTo, segs[0].Op)
	assert.Equal(t, SegLineTo, segs[1].Op)
	assert.Equal(t, SegQuadTo, segs[2].Op)
	assert.Equal(t, SegCubeTo, segs[3].Op)
	assert.Equal(t, SegClose, segs[4].Op)
}

func TestPathLineWithoutCurrentPointStartsSubpath(t *testing.T) {
	p := NewPath()
	p.LineTo(5, 5)
	segs := p.Segments()
	require.Len(t, segs, 1)
	assert.Equal(t, SegMoveTo, segs[0].Op)
}

func TestPathArcDecomposesToCubics(t *testing.T) {
	p := NewPath()
	p.Arc(50, 50, 20, 0, 3.14159)

	cubics := 0
	for _, s := range p.Segments() {
		if s.Op == SegCubeTo {
			cubics++
		}
	}
	assert.GreaterOrEqual(t, cubics, 2, "half circle needs at least two cubic spans")
}

func TestPathEllipseIsClosed(t *testing.T) {
	p := NewPath()
	p.Ellipse(10, 10, 5, 8)
	segs := p.Segments()
	require.NotEmpty(t, segs)
	assert.Equal(t, SegClose, segs[len(segs)-1].Op)
}

func TestPathCopyIsIndependent(t *testing.T) {
	p := NewPath()
	p.MoveTo(0, 0)
	p.LineTo(1, 1)

	cp := p.Copy()
	p.LineTo(2, 2)

	assert.Len(t, cp.Segments(), 2)
	assert.Len(t, p.Segments(), 3)
}

func TestPathResetClears(t *testing.T) {
	p := NewPath()
	p.Rect(0, 0, 4, 4)
	require.False(t, p.Empty())
	p.Reset()
	assert.True(t, p.Empty())
}

func TestFlattenProducesPolylines(t *testing.T) {
	p := NewPath()
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.QuadraticTo(15, 5, 10, 10)
	p.Close()

	lines := p.flatten()
	require.Len(t, lines, 1)
	// move + line + 16 curve steps + close
	assert.Len(t, lines[0], 19)
	assert.Equal(t, [2]float64{0, 0}, lines[0][0])
	assert.Equal(t, [2]float64{0, 0}, lines[0][len(lines[0])-1])
}
