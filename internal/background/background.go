// Package background paints the animated backdrops of the style catalog.
package background

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

type Kind int

const (
	KindGradient Kind = iota
	KindSolid
)

func (k Kind) String() string {
	switch k {
	case KindGradient:
		return "gradient"
	case KindSolid:
		return "solid"
	default:
		return "unknown"
	}
}

// Background fills a whole canvas for a given frame. Implementations must
// cover every pixel: canvases are recycled without clearing.
type Background interface {
	Kind() Kind
	Name() string
	Paint(dst *image.RGBA, frame int)
}

// Gradient is a vertical two-color gradient, From at the top row.
type Gradient struct {
	From, To color.RGBA
}

func (g Gradient) Kind() Kind { return KindGradient }

func (g Gradient) Name() string {
	return fmt.Sprintf("gradient %s-%s", hex(g.From), hex(g.To))
}

// Paint fills each scanline with channel(y) = c1 + (c2-c1)*y/height.
func (g Gradient) Paint(dst *image.RGBA, frame int) {
	b := dst.Bounds()
	h := b.Dy()
	for y := 0; y < h; y++ {
		row := image.Rect(b.Min.X, b.Min.Y+y, b.Max.X, b.Min.Y+y+1)
		draw.Draw(dst, row, image.NewUniform(g.At(y, h)), image.Point{}, draw.Src)
	}
}

// At returns the color of scanline y on a canvas of the given height.
func (g Gradient) At(y, height int) color.RGBA {
	return color.RGBA{
		R: lerp(g.From.R, g.To.R, y, height),
		G: lerp(g.From.G, g.To.G, y, height),
		B: lerp(g.From.B, g.To.B, y, height),
		A: 255,
	}
}

// lerp returns the channel value a + (b-a)*y/height truncated to an
// integer. The value is never negative, so truncation is a floor over the
// whole expression, not over the delta alone.
func lerp(a, b uint8, y, height int) uint8 {
	return uint8(int(a) + floorDiv((int(b)-int(a))*y, height))
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Solid is a flat fill.
type Solid struct {
	Fill color.RGBA
}

func (s Solid) Kind() Kind { return KindSolid }

func (s Solid) Name() string { return "solid " + hex(s.Fill) }

func (s Solid) Paint(dst *image.RGBA, frame int) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(s.Fill), image.Point{}, draw.Src)
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Catalog returns the ten backgrounds in their fixed order. The position of
// an entry is part of each style's identity.
func Catalog() []Background {
	return []Background{
		Gradient{From: rgb(20, 20, 60), To: rgb(60, 20, 80)},
		Gradient{From: rgb(0, 0, 0), To: rgb(40, 40, 40)},
		Gradient{From: rgb(0, 40, 80), To: rgb(0, 10, 30)},
		Gradient{From: rgb(60, 0, 0), To: rgb(20, 0, 0)},
		Gradient{From: rgb(0, 60, 40), To: rgb(0, 20, 20)},
		Solid{Fill: rgb(15, 15, 15)},
		Solid{Fill: rgb(30, 0, 60)},
		Solid{Fill: rgb(0, 50, 50)},
		Solid{Fill: rgb(70, 30, 0)},
		Solid{Fill: rgb(10, 10, 40)},
	}
}
