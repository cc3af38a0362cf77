package text

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Geometry describes the canvas the text is laid out on.
type Geometry struct {
	Width   int
	Height  int
	Padding int
	LineGap int
}

// UsableWidth is the canvas width minus padding on both sides.
func (g Geometry) UsableWidth() float64 {
	return float64(g.Width - 2*g.Padding)
}

// Line is one wrapped line and its measured width.
type Line struct {
	Text  string
	Width float64
}

// Wrap splits s into lines greedily: words are accumulated while the
// candidate line stays narrower than the usable width. A word that is wider
// than the usable width on its own keeps a line to itself. The result always
// has at least one line.
func Wrap(s string, face *Face, g Geometry) []Line {
	limit := g.UsableWidth()
	var lines []Line
	current := ""

	for _, word := range strings.Fields(s) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if face.Advance(candidate) < limit {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, Line{Text: current, Width: face.Advance(current)})
		}
		current = word
	}
	return append(lines, Line{Text: current, Width: face.Advance(current)})
}

// BlockHeight is the height of the wrapped block: lines × (size + line gap).
func BlockHeight(s string, face *Face, g Geometry) int {
	return len(Wrap(s, face, g)) * (face.Size() + g.LineGap)
}

// Metrics is the layout of one text at one font size. It is read-only once
// built and may be shared between goroutines.
type Metrics struct {
	Text        string
	Font        string
	Size        int
	Lines       []Line
	LineHeight  int
	BlockHeight int
	CenterY     int
}

// Measure wraps s once and derives block height and the vertical center.
func Measure(s string, face *Face, g Geometry) *Metrics {
	lines := Wrap(s, face, g)
	lineHeight := face.Size() + g.LineGap
	block := len(lines) * lineHeight
	return &Metrics{
		Text:        s,
		Font:        face.FontName(),
		Size:        face.Size(),
		Lines:       lines,
		LineHeight:  lineHeight,
		BlockHeight: block,
		CenterY:     FloorDiv(g.Height-block, 2),
	}
}

// Draw renders the lines centered horizontally, the first line's top at
// originY. The face must have the size the metrics were measured with.
func (m *Metrics) Draw(dst draw.Image, face *Face, g Geometry, originY int, col color.Color) error {
	if face.Size() != m.Size || face.FontName() != m.Font {
		return fmt.Errorf("text: face %s@%d does not match metrics %s@%d",
			face.FontName(), face.Size(), m.Font, m.Size)
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face.face,
	}
	ascent := face.Ascent()
	y := originY
	for _, line := range m.Lines {
		if line.Text != "" {
			x := FloorDiv(g.Width-int(line.Width), 2)
			d.Dot = fixed.P(x, y+ascent)
			d.DrawString(line.Text)
		}
		y += m.LineHeight
	}
	return nil
}

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

type cacheKey struct {
	text    string
	font    string
	size    int
	width   int
	padding int
	lineGap int
	height  int
}

// Cache memoizes Metrics per (text, font, size, geometry). Safe for
// concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*Metrics
}

func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*Metrics)}
}

func (c *Cache) Metrics(s string, face *Face, g Geometry) *Metrics {
	key := cacheKey{
		text:    s,
		font:    face.FontName(),
		size:    face.Size(),
		width:   g.Width,
		padding: g.Padding,
		lineGap: g.LineGap,
		height:  g.Height,
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.entries[key]; ok {
		return m
	}
	m := Measure(s, face, g)
	c.entries[key] = m
	return m
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
