package canvas

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// face returns the drawing face. basicfont carries its glyphs in the binary,
// so text keeps working when no system font engine is present.
func (c *Context) face() font.Face {
	return basicfont.Face7x13
}

// MeasureString returns the advance width and line height of s in pixels.
// When measurement panics (a hostile face), it falls back to fixed 7×13
// metrics so callers always get a usable box.
func (c *Context) MeasureString(s string) (w, h float64) {
	w, h = float64(len(s))*7, 13
	c.guard("measureText", func() {
		f := c.face()
		adv := font.MeasureString(f, s)
		m := f.Metrics()
		w = float64(adv) / 64
		h = float64(m.Height) / 64
	})
	return w, h
}

// DrawString draws s with its baseline at (x, y) in the fill color.
func (c *Context) DrawString(s string, x, y float64) {
	c.guard("fillText", func() {
		px, py := c.apply(x, y)
		d := font.Drawer{
			Dst:  c.img,
			Src:  image.NewUniform(c.state.fill),
			Face: c.face(),
			Dot:  fixed.P(int(px), int(py)),
		}
		d.DrawString(s)
	})
}

// DrawStringCentered draws s centered horizontally around x.
func (c *Context) DrawStringCentered(s string, x, y float64) {
	w, _ := c.MeasureString(s)
	c.DrawString(s, x-w/2, y)
}
