package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Surface is a headless drawing target: an in-memory pixel buffer plus a
// drawing context. It stands in for the platform surface the rendering
// library assumes exists. Each invocation constructs its own Surface; nothing
// here is process-global.
type Surface struct {
	img *image.RGBA
	ctx *Context
}

// NewSurface allocates a white-backed w×h surface.
func NewSurface(w, h int, logger *slog.Logger) *Surface {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	s := &Surface{img: img}
	s.ctx = newContext(img, logger)
	return s
}

// Image exposes the backing pixel buffer.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Context returns the drawing context bound to this surface.
func (s *Surface) Context() *Context {
	return s.ctx
}

// drawState is the saved/restored portion of the context. The transform is
// translate+scale only; the renderer never issues rotations here.
type drawState struct {
	fill      color.Color
	stroke    color.Color
	lineWidth float64
	tx, ty    float64
	sx, sy    float64
}

// Context implements the 2D drawing operations the rendering library needs.
// Every mutating operation is wrapped so an internal panic is absorbed and
// counted instead of aborting the page render: a partially drawn page beats
// a failed one.
type Context struct {
	img     *image.RGBA
	path    *Path
	state   drawState
	stack   []drawState
	dropped int
	logger  *slog.Logger
}

func newContext(img *image.RGBA, logger *slog.Logger) *Context {
	return &Context{
		img:  img,
		path: NewPath(),
		state: drawState{
			fill:      color.Black,
			stroke:    color.Black,
			lineWidth: 1,
			sx:        1,
			sy:        1,
		},
		logger: logger,
	}
}

// guard runs op under panic recovery. A recovered panic degrades the
// operation to a counted no-op.
func (c *Context) guard(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.dropped++
			c.logger.Warn("drawing operation dropped", "op", name, "panic", r)
		}
	}()
	fn()
}

// DroppedOps reports how many operations were absorbed as no-ops.
func (c *Context) DroppedOps() int {
	return c.dropped
}

// Save pushes the current state; Restore pops it. Unbalanced Restores are
// absorbed, matching the renderer's clipping/compositing stack semantics.
func (c *Context) Save() {
	c.stack = append(c.stack, c.state)
}

func (c *Context) Restore() {
	if len(c.stack) == 0 {
		c.dropped++
		c.logger.Warn("drawing operation dropped", "op", "restore", "panic", "restore without save")
		return
	}
	c.state = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *Context) SetFillColor(col color.Color)   { c.state.fill = col }
func (c *Context) SetStrokeColor(col color.Color) { c.state.stroke = col }

func (c *Context) SetLineWidth(w float64) {
	if w > 0 {
		c.state.lineWidth = w
	}
}

func (c *Context) Translate(dx, dy float64) {
	c.state.tx += dx * c.state.sx
	c.state.ty += dy * c.state.sy
}

func (c *Context) Scale(sx, sy float64) {
	c.state.sx *= sx
	c.state.sy *= sy
}

// apply maps a user-space point through the current transform.
func (c *Context) apply(x, y float64) (float64, float64) {
	return c.state.tx + x*c.state.sx, c.state.ty + y*c.state.sy
}

// Path construction. Coordinates are transformed as they are recorded, so a
// Restore after segments were added does not retroactively move them.

func (c *Context) BeginPath() {
	c.path = NewPath()
}

func (c *Context) MoveTo(x, y float64) {
	px, py := c.apply(x, y)
	c.path.MoveTo(px, py)
}

func (c *Context) LineTo(x, y float64) {
	px, py := c.apply(x, y)
	c.path.LineTo(px, py)
}

func (c *Context) QuadraticCurveTo(cx, cy, x, y float64) {
	pcx, pcy := c.apply(cx, cy)
	px, py := c.apply(x, y)
	c.path.QuadraticTo(pcx, pcy, px, py)
}

func (c *Context) BezierCurveTo(c1x, c1y, c2x, c2y, x, y float64) {
	p1x, p1y := c.apply(c1x, c1y)
	p2x, p2y := c.apply(c2x, c2y)
	px, py := c.apply(x, y)
	c.path.CubicTo(p1x, p1y, p2x, p2y, px, py)
}

func (c *Context) Arc(cx, cy, r, a1, a2 float64) {
	pcx, pcy := c.apply(cx, cy)
	c.path.Arc(pcx, pcy, r*c.state.sx, a1, a2)
}

func (c *Context) Ellipse(cx, cy, rx, ry float64) {
	pcx, pcy := c.apply(cx, cy)
	c.path.Ellipse(pcx, pcy, rx*c.state.sx, ry*c.state.sy)
}

func (c *Context) RectPath(x, y, w, h float64) {
	px, py := c.apply(x, y)
	c.path.Rect(px, py, w*c.state.sx, h*c.state.sy)
}

func (c *Context) ClosePath() {
	c.path.Close()
}

// Fill rasterizes the accumulated path with the fill color.
func (c *Context) Fill() {
	c.guard("fill", func() {
		c.rasterize(c.path, c.state.fill)
	})
}

// Stroke outlines the accumulated path at the current line width. The
// outline is a flattened ribbon fill, which is enough fidelity for preview
// rendering.
func (c *Context) Stroke() {
	c.guard("stroke", func() {
		half := c.state.lineWidth / 2
		if half <= 0 {
			half = 0.5
		}
		ribbon := NewPath()
		for _, line := range c.path.flatten() {
			for i := 0; i+1 < len(line); i++ {
				segmentRibbon(ribbon, line[i], line[i+1], half)
			}
		}
		c.rasterize(ribbon, c.state.stroke)
	})
}

// FillRect is the common fill-a-box fast path.
func (c *Context) FillRect(x, y, w, h float64) {
	c.guard("fillRect", func() {
		p := NewPath()
		px, py := c.apply(x, y)
		p.Rect(px, py, w*c.state.sx, h*c.state.sy)
		c.rasterize(p, c.state.fill)
	})
}

// ClearRect resets a box back to white.
func (c *Context) ClearRect(x, y, w, h float64) {
	c.guard("clearRect", func() {
		p := NewPath()
		px, py := c.apply(x, y)
		p.Rect(px, py, w*c.state.sx, h*c.state.sy)
		c.rasterize(p, color.White)
	})
}

// DrawImage composites src scaled into the destination box.
func (c *Context) DrawImage(src image.Image, x, y, w, h float64) {
	c.guard("drawImage", func() {
		if src == nil || w <= 0 || h <= 0 {
			panic("drawImage: empty source or box")
		}
		px, py := c.apply(x, y)
		dr := image.Rect(int(px), int(py), int(px+w*c.state.sx), int(py+h*c.state.sy))
		xdraw.ApproxBiLinear.Scale(c.img, dr, src, src.Bounds(), xdraw.Over, nil)
	})
}

// PixelRegion returns a copy of the pixels under r.
func (c *Context) PixelRegion(r image.Rectangle) *image.RGBA {
	r = r.Intersect(c.img.Bounds())
	out := image.NewRGBA(r)
	draw.Draw(out, r, c.img, r.Min, draw.Src)
	return out
}

// SetPixelRegion writes src into the buffer at the given offset.
func (c *Context) SetPixelRegion(src image.Image, at image.Point) {
	c.guard("setPixelRegion", func() {
		if src == nil {
			panic("setPixelRegion: nil source")
		}
		r := src.Bounds().Sub(src.Bounds().Min).Add(at)
		draw.Draw(c.img, r, src, src.Bounds().Min, draw.Src)
	})
}

// rasterize scan-converts p onto the buffer with the given color.
func (c *Context) rasterize(p *Path, col color.Color) {
	if p.Empty() {
		return
	}
	b := c.img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over

	open := false
	for _, s := range p.Segments() {
		switch s.Op {
		case SegMoveTo:
			if open {
				z.ClosePath()
			}
			z.MoveTo(float32(s.Args[0]), float32(s.Args[1]))
			open = true
		case SegLineTo:
			z.LineTo(float32(s.Args[0]), float32(s.Args[1]))
		case SegQuadTo:
			z.QuadTo(float32(s.Args[0]), float32(s.Args[1]), float32(s.Args[2]), float32(s.Args[3]))
		case SegCubeTo:
			z.CubeTo(float32(s.Args[0]), float32(s.Args[1]), float32(s.Args[2]), float32(s.Args[3]), float32(s.Args[4]), float32(s.Args[5]))
		case SegClose:
			z.ClosePath()
			open = false
		}
	}
	if open {
		z.ClosePath()
	}
	z.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

// segmentRibbon appends the quad covering one stroked line segment.
func segmentRibbon(dst *Path, a, b [2]float64, half float64) {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	length := dx*dx + dy*dy
	if length == 0 {
		return
	}
	// unit normal
	inv := 1 / math.Sqrt(length)
	nx := -dy * inv * half
	ny := dx * inv * half

	dst.MoveTo(a[0]+nx, a[1]+ny)
	dst.LineTo(b[0]+nx, b[1]+ny)
	dst.LineTo(b[0]-nx, b[1]-ny)
	dst.LineTo(a[0]-nx, a[1]-ny)
	dst.Close()
}
