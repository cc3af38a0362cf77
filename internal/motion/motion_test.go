package motion

import (
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/Sayannath2003/local-text-gif-generator/internal/text"
)

var testGeometry = text.Geometry{Width: 800, Height: 450, Padding: 40, LineGap: 6}

func newScene(t *testing.T, prompt string) *Scene {
	t.Helper()
	f, err := text.LoadFont("")
	if err != nil {
		t.Fatalf("LoadFont failed: %v", err)
	}
	ts := text.NewTypesetter(f)
	t.Cleanup(func() { ts.Close() })

	face, err := ts.Face(70)
	if err != nil {
		t.Fatal(err)
	}
	return &Scene{
		Text:       prompt,
		Geometry:   testGeometry,
		BaseSize:   70,
		Metrics:    text.Measure(prompt, face, testGeometry),
		Typesetter: ts,
	}
}

type positioned interface {
	Motion
	Y(frame int, sc *Scene) int
}

func TestBoundedMotionsStayInside(t *testing.T) {
	prompts := []string{"HELLO WORLD", "a somewhat longer prompt that needs two lines of text"}
	bounded := []positioned{
		Wave{Amplitude: 12, Period: 3},
		Slide{Direction: Up, Speed: 18},
		Slide{Direction: Down, Speed: 18},
	}

	for _, p := range prompts {
		sc := newScene(t, p)
		lo := testGeometry.Padding
		hi := testGeometry.Height - sc.Metrics.BlockHeight - testGeometry.Padding
		for _, m := range bounded {
			t.Run(m.Name()+"/"+p, func(t *testing.T) {
				for frame := 0; frame < 25; frame++ {
					y := m.Y(frame, sc)
					if y < lo || y > hi {
						t.Errorf("frame %d: y=%d outside [%d, %d]", frame, y, lo, hi)
					}
				}
			})
		}
	}
}

func TestSlideUpTravelsThenHolds(t *testing.T) {
	sc := newScene(t, "HELLO WORLD")
	s := Slide{Direction: Up, Speed: 18}
	hi := testGeometry.Height - sc.Metrics.BlockHeight - testGeometry.Padding

	if got := s.Y(0, sc); got != hi {
		t.Errorf("frame 0: expected bottom clamp %d, got %d", hi, got)
	}
	if got := s.Y(24, sc); got != testGeometry.Padding {
		t.Errorf("frame 24: expected top clamp %d, got %d", testGeometry.Padding, got)
	}
	for f := 1; f < 25; f++ {
		if s.Y(f, sc) > s.Y(f-1, sc) {
			t.Fatalf("slideUp moved down between frames %d and %d", f-1, f)
		}
	}
}

func TestSlideDownMirrorsSlideUp(t *testing.T) {
	sc := newScene(t, "HELLO WORLD")
	s := Slide{Direction: Down, Speed: 18}
	if got := s.Y(0, sc); got != testGeometry.Padding {
		t.Errorf("frame 0: expected top clamp, got %d", got)
	}
	for f := 1; f < 25; f++ {
		if s.Y(f, sc) < s.Y(f-1, sc) {
			t.Fatalf("slideDown moved up between frames %d and %d", f-1, f)
		}
	}
	want := Clamp(10*18-sc.Metrics.BlockHeight, testGeometry, sc.Metrics.BlockHeight)
	if got := s.Y(10, sc); got != want {
		t.Errorf("frame 10: got %d, want %d", got, want)
	}
}

func TestWaveOffset(t *testing.T) {
	sc := newScene(t, "HELLO WORLD")
	w := Wave{Amplitude: 12, Period: 3}
	for f := 0; f < 25; f++ {
		want := sc.Metrics.CenterY + int(math.Round(math.Sin(float64(f)/3)*12))
		if got := w.Y(f, sc); got != want {
			t.Errorf("frame %d: y=%d, want %d", f, got, want)
		}
	}
}

func TestStaticIsCentered(t *testing.T) {
	sc := newScene(t, "HELLO WORLD")
	s := Static{}
	if s.Y(0, sc) != sc.Metrics.CenterY || s.Y(17, sc) != sc.Metrics.CenterY {
		t.Error("static motion must stay at the vertical center")
	}
}

func TestClampTallBlock(t *testing.T) {
	// Block taller than the canvas: the lower bound wins.
	if got := Clamp(-300, testGeometry, 600); got != testGeometry.Padding {
		t.Errorf("Expected padding %d, got %d", testGeometry.Padding, got)
	}
}

func TestPulseSize(t *testing.T) {
	p := Pulse{Amplitude: 6, Period: 2}
	seen := map[int]bool{}
	for f := 0; f < 25; f++ {
		size := p.Size(f, 70)
		if size < 64 || size > 76 {
			t.Errorf("frame %d: size %d out of range", f, size)
		}
		seen[size] = true
	}
	if p.Size(0, 70) != 70 {
		t.Errorf("frame 0 should use the base size, got %d", p.Size(0, 70))
	}
	if len(seen) < 3 {
		t.Errorf("expected the size to oscillate, saw %v", seen)
	}
}

func TestAnimateDrawsInMotionColor(t *testing.T) {
	for _, m := range Catalog() {
		t.Run(m.Name(), func(t *testing.T) {
			sc := newScene(t, "HELLO WORLD")
			dst := image.NewRGBA(image.Rect(0, 0, testGeometry.Width, testGeometry.Height))
			if err := m.Animate(dst, 5, sc); err != nil {
				t.Fatalf("Animate failed: %v", err)
			}
			want := motionColor(m)
			found := false
			for i := 0; i < len(dst.Pix) && !found; i += 4 {
				c := color.RGBA{dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3]}
				found = c == want
			}
			if !found {
				t.Errorf("no pixel in %v after drawing", want)
			}
		})
	}
}

func TestPulseHandlesLongPrompt(t *testing.T) {
	sc := newScene(t, strings.Repeat("PULSE ", 30))
	dst := image.NewRGBA(image.Rect(0, 0, testGeometry.Width, testGeometry.Height))
	p := Pulse{Amplitude: 6, Period: 2, Color: rgb(255, 100, 100)}
	for f := 0; f < 25; f++ {
		if err := p.Animate(dst, f, sc); err != nil {
			t.Fatalf("frame %d: %v", f, err)
		}
	}
}

func TestCatalogOrder(t *testing.T) {
	want := []Kind{KindStatic, KindWave, KindSlideUp, KindSlideDown, KindPulse}
	cat := Catalog()
	if len(cat) != len(want) {
		t.Fatalf("Expected %d motions, got %d", len(want), len(cat))
	}
	for i, m := range cat {
		if m.Kind() != want[i] {
			t.Errorf("entry %d: %s, want %s", i, m.Kind(), want[i])
		}
	}
}

func motionColor(m Motion) color.RGBA {
	switch v := m.(type) {
	case Static:
		return v.Color
	case Wave:
		return v.Color
	case Slide:
		return v.Color
	case Pulse:
		return v.Color
	}
	return color.RGBA{}
}
