// Package motion animates the prompt text over a background, one frame at a
// time.
package motion

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/Sayannath2003/local-text-gif-generator/internal/text"
)

type Kind int

const (
	KindStatic Kind = iota
	KindWave
	KindSlideUp
	KindSlideDown
	KindPulse
)

func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindWave:
		return "wave"
	case KindSlideUp:
		return "slideUp"
	case KindSlideDown:
		return "slideDown"
	case KindPulse:
		return "pulse"
	default:
		return "unknown"
	}
}

// Scene is what a motion needs to draw the prompt. Metrics is computed once
// per batch and shared; Typesetter belongs to a single worker.
type Scene struct {
	Text       string
	Geometry   text.Geometry
	BaseSize   int
	Metrics    *text.Metrics
	Typesetter *text.Typesetter
}

// Motion draws the scene's text onto a canvas for one frame.
type Motion interface {
	Kind() Kind
	Name() string
	Animate(dst *image.RGBA, frame int, sc *Scene) error
}

// Clamp keeps a block top inside [padding, height-blockHeight-padding].
// The lower bound wins when the block is taller than the canvas allows.
func Clamp(y int, g text.Geometry, blockHeight int) int {
	upper := g.Height - blockHeight - g.Padding
	return max(g.Padding, min(upper, y))
}

func drawBase(dst *image.RGBA, sc *Scene, y int, col color.Color) error {
	face, err := sc.Typesetter.Face(sc.Metrics.Size)
	if err != nil {
		return err
	}
	return sc.Metrics.Draw(dst, face, sc.Geometry, y, col)
}

// Static draws the text at the vertical center, unchanged across frames.
type Static struct {
	Color color.RGBA
}

func (s Static) Kind() Kind   { return KindStatic }
func (s Static) Name() string { return KindStatic.String() }

func (s Static) Y(frame int, sc *Scene) int { return sc.Metrics.CenterY }

func (s Static) Animate(dst *image.RGBA, frame int, sc *Scene) error {
	return drawBase(dst, sc, s.Y(frame, sc), s.Color)
}

// Wave bobs the text around the center: offset = round(sin(frame/Period) * Amplitude).
type Wave struct {
	Amplitude float64
	Period    float64
	Color     color.RGBA
}

func (w Wave) Kind() Kind   { return KindWave }
func (w Wave) Name() string { return KindWave.String() }

func (w Wave) Y(frame int, sc *Scene) int {
	offset := int(math.Round(math.Sin(float64(frame)/w.Period) * w.Amplitude))
	return Clamp(sc.Metrics.CenterY+offset, sc.Geometry, sc.Metrics.BlockHeight)
}

func (w Wave) Animate(dst *image.RGBA, frame int, sc *Scene) error {
	return drawBase(dst, sc, w.Y(frame, sc), w.Color)
}

// Direction of a Slide.
type Direction int

const (
	Up Direction = iota
	Down
)

// Slide moves the text Speed pixels per frame. Up enters from the bottom
// edge, Down from above the top edge; both stop at the clamp bounds.
type Slide struct {
	Direction Direction
	Speed     int
	Color     color.RGBA
}

func (s Slide) Kind() Kind {
	if s.Direction == Down {
		return KindSlideDown
	}
	return KindSlideUp
}

func (s Slide) Name() string { return s.Kind().String() }

func (s Slide) Y(frame int, sc *Scene) int {
	var y int
	if s.Direction == Down {
		y = frame*s.Speed - sc.Metrics.BlockHeight
	} else {
		y = sc.Geometry.Height - frame*s.Speed
	}
	return Clamp(y, sc.Geometry, sc.Metrics.BlockHeight)
}

func (s Slide) Animate(dst *image.RGBA, frame int, sc *Scene) error {
	return drawBase(dst, sc, s.Y(frame, sc), s.Color)
}

// Pulse oscillates the font size: size = base + round(sin(frame/Period) * Amplitude).
// Wrapping depends on size, so the layout is measured again every frame
// instead of using the shared metrics.
type Pulse struct {
	Amplitude float64
	Period    float64
	Color     color.RGBA
}

func (p Pulse) Kind() Kind   { return KindPulse }
func (p Pulse) Name() string { return KindPulse.String() }

func (p Pulse) Size(frame int, base int) int {
	return base + int(math.Round(math.Sin(float64(frame)/p.Period)*p.Amplitude))
}

func (p Pulse) Animate(dst *image.RGBA, frame int, sc *Scene) error {
	face, err := sc.Typesetter.Face(p.Size(frame, sc.BaseSize))
	if err != nil {
		return fmt.Errorf("pulse frame %d: %w", frame, err)
	}
	m := text.Measure(sc.Text, face, sc.Geometry)
	return m.Draw(dst, face, sc.Geometry, m.CenterY, p.Color)
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Catalog returns the five motions in their fixed order.
func Catalog() []Motion {
	return []Motion{
		Static{Color: rgb(255, 255, 255)},
		Wave{Amplitude: 12, Period: 3, Color: rgb(255, 215, 0)},
		Slide{Direction: Up, Speed: 18, Color: rgb(0, 255, 255)},
		Slide{Direction: Down, Speed: 18, Color: rgb(200, 255, 200)},
		Pulse{Amplitude: 6, Period: 2, Color: rgb(255, 100, 100)},
	}
}
