package text

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// ErrFontLoad is returned when the configured font cannot be read or parsed.
var ErrFontLoad = errors.New("text: font load failed")

// Font is a parsed OpenType font. It is safe for concurrent use; faces
// derived from it are not.
type Font struct {
	name string
	otf  *opentype.Font
}

// LoadFont reads the font at path. An empty path selects the embedded Go Bold.
func LoadFont(path string) (*Font, error) {
	if path == "" {
		return ParseFont("gobold", gobold.TTF)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFontLoad, path, err)
	}
	return ParseFont(filepath.Base(path), data)
}

// ParseFont parses raw TTF/OTF bytes.
func ParseFont(name string, data []byte) (*Font, error) {
	otf, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFontLoad, name, err)
	}
	if family, err := otf.Name(nil, sfnt.NameIDFamily); err == nil && family != "" && name == "" {
		name = family
	}
	return &Font{name: name, otf: otf}, nil
}

func (f *Font) Name() string { return f.name }

// Face creates a face at size pixels (72 DPI, so points equal pixels).
func (f *Font) Face(size int) (*Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("text: invalid font size %d", size)
	}
	ff, err := opentype.NewFace(f.otf, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("text: create face %s@%d: %w", f.name, size, err)
	}
	return &Face{font: f, size: size, face: ff}, nil
}

// Face is a sized font face. Not safe for concurrent use.
type Face struct {
	font *Font
	size int
	face font.Face
}

func (f *Face) Size() int        { return f.size }
func (f *Face) FontName() string { return f.font.name }

// Advance returns the rendered width of s in pixels.
func (f *Face) Advance(s string) float64 {
	return fixedToFloat(font.MeasureString(f.face, s))
}

// Ascent is the distance from the top of a line to its baseline.
func (f *Face) Ascent() int {
	return f.face.Metrics().Ascent.Ceil()
}

func (f *Face) Close() error {
	return f.face.Close()
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// Typesetter caches faces by size over a shared Font. One per worker.
type Typesetter struct {
	font  *Font
	faces map[int]*Face
}

func NewTypesetter(f *Font) *Typesetter {
	return &Typesetter{font: f, faces: make(map[int]*Face)}
}

func (t *Typesetter) Font() *Font { return t.font }

func (t *Typesetter) Face(size int) (*Face, error) {
	if face, ok := t.faces[size]; ok {
		return face, nil
	}
	face, err := t.font.Face(size)
	if err != nil {
		return nil, err
	}
	t.faces[size] = face
	return face, nil
}

func (t *Typesetter) Close() error {
	var errs []error
	for size, face := range t.faces {
		if err := face.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(t.faces, size)
	}
	return errors.Join(errs...)
}
