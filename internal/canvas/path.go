package canvas

import "math"

// SegmentOp tags one entry in a Path's segment list.
type SegmentOp int

const (
	SegMoveTo SegmentOp = iota
	SegLineTo
	SegQuadTo
	SegCubeTo
	SegClose
)

// Segment is one path operation. Args holds up to three points:
// MoveTo/LineTo use Args[0:2], QuadTo Args[0:4], CubeTo Args[0:6].
type Segment struct {
	Op   SegmentOp
	Args [6]float64
}

// Path accumulates segments incrementally. The renderer issues operations
// piecemeal across a save/restore stack, so the builder is re-entrant: it can
// be extended, copied, and replayed any number of times.
type Path struct {
	segs       []Segment
	cur        [2]float64
	start      [2]float64
	hasCurrent bool
}

func NewPath() *Path {
	return &Path{}
}

func (p *Path) MoveTo(x, y float64) {
	p.segs = append(p.segs, Segment{Op: SegMoveTo, Args: [6]float64{x, y}})
	p.cur = [2]float64{x, y}
	p.start = p.cur
	p.hasCurrent = true
}

func (p *Path) LineTo(x, y float64) {
	if !p.hasCurrent {
		p.MoveTo(x, y)
		return
	}
	p.segs = append(p.segs, Segment{Op: SegLineTo, Args: [6]float64{x, y}})
	p.cur = [2]float64{x, y}
}

func (p *Path) QuadraticTo(cx, cy, x, y float64) {
	if !p.hasCurrent {
		p.MoveTo(cx, cy)
	}
	p.segs = append(p.segs, Segment{Op: SegQuadTo, Args: [6]float64{cx, cy, x, y}})
	p.cur = [2]float64{x, y}
}

func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	if !p.hasCurrent {
		p.MoveTo(c1x, c1y)
	}
	p.segs = append(p.segs, Segment{Op: SegCubeTo, Args: [6]float64{c1x, c1y, c2x, c2y, x, y}})
	p.cur = [2]float64{x, y}
}

func (p *Path) Close() {
	if !p.hasCurrent {
		return
	}
	p.segs = append(p.segs, Segment{Op: SegClose})
	p.cur = p.start
}

// Arc appends a circular arc around (cx, cy) from angle a1 to a2 (radians),
// decomposed into cubic beziers of at most a quarter turn each.
func (p *Path) Arc(cx, cy, r, a1, a2 float64) {
	if r <= 0 {
		return
	}
	sweep := a2 - a1
	steps := int(math.Ceil(math.Abs(sweep) / (math.Pi / 2)))
	if steps == 0 {
		steps = 1
	}
	delta := sweep / float64(steps)
	// magic constant for a cubic approximation of a circular arc
	k := 4.0 / 3.0 * math.Tan(delta/4)

	x0 := cx + r*math.Cos(a1)
	y0 := cy + r*math.Sin(a1)
	if p.hasCurrent {
		p.LineTo(x0, y0)
	} else {
		p.MoveTo(x0, y0)
	}

	for i := 0; i < steps; i++ {
		t0 := a1 + float64(i)*delta
		t1 := t0 + delta
		cos0, sin0 := math.Cos(t0), math.Sin(t0)
		cos1, sin1 := math.Cos(t1), math.Sin(t1)

		c1x := cx + r*(cos0-k*sin0)
		c1y := cy + r*(sin0+k*cos0)
		c2x := cx + r*(cos1+k*sin1)
		c2y := cy + r*(sin1-k*cos1)
		p.CubicTo(c1x, c1y, c2x, c2y, cx+r*cos1, cy+r*sin1)
	}
}

// Ellipse appends a full axis-aligned ellipse centered at (cx, cy).
func (p *Path) Ellipse(cx, cy, rx, ry float64) {
	if rx <= 0 || ry <= 0 {
		return
	}
	const k = 0.5522847498 // cubic approximation of a quarter circle
	p.MoveTo(cx+rx, cy)
	p.CubicTo(cx+rx, cy+k*ry, cx+k*rx, cy+ry, cx, cy+ry)
	p.CubicTo(cx-k*rx, cy+ry, cx-rx, cy+k*ry, cx-rx, cy)
	p.CubicTo(cx-rx, cy-k*ry, cx-k*rx, cy-ry, cx, cy-ry)
	p.CubicTo(cx+k*rx, cy-ry, cx+rx, cy-k*ry, cx+rx, cy)
	p.Close()
}

// Rect appends an axis-aligned rectangle as a closed subpath.
func (p *Path) Rect(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

// Segments returns the accumulated segment list.
func (p *Path) Segments() []Segment {
	return p.segs
}

// Empty reports whether nothing has been accumulated.
func (p *Path) Empty() bool {
	return len(p.segs) == 0
}

// Reset clears the builder for reuse.
func (p *Path) Reset() {
	p.segs = p.segs[:0]
	p.hasCurrent = false
}

// Copy returns an independent snapshot of the path.
func (p *Path) Copy() *Path {
	cp := &Path{
		segs:       make([]Segment, len(p.segs)),
		cur:        p.cur,
		start:      p.start,
		hasCurrent: p.hasCurrent,
	}
	copy(cp.segs, p.segs)
	return cp
}

// flatten converts the path into polylines, one per subpath, subdividing
// curves into fixed-count line segments. Used for stroking.
func (p *Path) flatten() [][][2]float64 {
	const curveSteps = 16

	var lines [][][2]float64
	var cur [][2]float64
	var last, first [2]float64

	flush := func() {
		if len(cur) > 1 {
			lines = append(lines, cur)
		}
		cur = nil
	}

	for _, s := range p.segs {
		switch s.Op {
		case SegMoveTo:
			flush()
			last = [2]float64{s.Args[0], s.Args[1]}
			first = last
			cur = [][2]float64{last}
		case SegLineTo:
			last = [2]float64{s.Args[0], s.Args[1]}
			cur = append(cur, last)
		case SegQuadTo:
			cx, cy := s.Args[0], s.Args[1]
			x, y := s.Args[2], s.Args[3]
			x0, y0 := last[0], last[1]
			for i := 1; i <= curveSteps; i++ {
				t := float64(i) / curveSteps
				mt := 1 - t
				px := mt*mt*x0 + 2*mt*t*cx + t*t*x
				py := mt*mt*y0 + 2*mt*t*cy + t*t*y
				cur = append(cur, [2]float64{px, py})
			}
			last = [2]float64{x, y}
		case SegCubeTo:
			c1x, c1y := s.Args[0], s.Args[1]
			c2x, c2y := s.Args[2], s.Args[3]
			x, y := s.Args[4], s.Args[5]
			x0, y0 := last[0], last[1]
			for i := 1; i <= curveSteps; i++ {
				t := float64(i) / curveSteps
				mt := 1 - t
				px := mt*mt*mt*x0 + 3*mt*mt*t*c1x + 3*mt*t*t*c2x + t*t*t*x
				py := mt*mt*mt*y0 + 3*mt*mt*t*c1y + 3*mt*t*t*c2y + t*t*t*y
				cur = append(cur, [2]float64{px, py})
			}
			last = [2]float64{x, y}
		case SegClose:
			if len(cur) > 0 {
				cur = append(cur, first)
				last = first
			}
		}
	}
	flush()
	return lines
}
