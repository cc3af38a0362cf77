package animation

import (
	"image"
	"image/color"

	"github.com/soniakeys/quant/median"
)

// Quantize converts an opaque RGBA frame into a paletted image of at most
// maxColors entries. Frames that already fit keep their exact colors;
// otherwise the palette comes from median cut. Pixels map to the nearest
// palette entry, memoized per color.
func Quantize(src *image.RGBA, maxColors int) *image.Paletted {
	if maxColors <= 0 || maxColors > 256 {
		maxColors = 256
	}
	b := src.Bounds()

	pal, ok := exactPalette(src, maxColors)
	if !ok {
		pal = median.Quantizer(maxColors).Quantize(make(color.Palette, 0, maxColors), src)
	}

	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), pal)
	index := make(map[color.RGBA]uint8, len(pal))
	var last color.RGBA
	var lastIdx uint8
	haveLast := false
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := src.RGBAAt(b.Min.X+x, b.Min.Y+y)
			if !haveLast || c != last {
				idx, seen := index[c]
				if !seen {
					idx = uint8(pal.Index(c))
					index[c] = idx
				}
				last, lastIdx, haveLast = c, idx, true
			}
			dst.Pix[y*dst.Stride+x] = lastIdx
		}
	}
	return dst
}

// exactPalette lists the frame's colors in scan order when there are at
// most maxColors of them.
func exactPalette(src *image.RGBA, maxColors int) (color.Palette, bool) {
	b := src.Bounds()
	seen := make(map[color.RGBA]struct{}, maxColors)
	pal := make(color.Palette, 0, maxColors)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := src.RGBAAt(x, y)
			if _, ok := seen[c]; ok {
				continue
			}
			if len(pal) == maxColors {
				return nil, false
			}
			seen[c] = struct{}{}
			pal = append(pal, c)
		}
	}
	return pal, true
}
