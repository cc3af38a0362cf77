// Package animation serializes frame sequences into looping animated images.
package animation

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"io"
	"time"
)

var (
	ErrNoFrames    = errors.New("animation: no frames")
	ErrFrameBounds = errors.New("animation: frame bounds differ from the first frame")
)

type Params struct {
	FrameDuration time.Duration
	Loop          bool
}

// Encoder writes an ordered frame sequence as one animated artifact.
type Encoder interface {
	Encode(ctx context.Context, w io.Writer, frames []*image.RGBA, p Params) error
	Extension() string
	ContentType() string
}

// GIFEncoder produces animated GIFs with a uniform frame delay.
type GIFEncoder struct {
	MaxColors int
}

func (e *GIFEncoder) Extension() string   { return ".gif" }
func (e *GIFEncoder) ContentType() string { return "image/gif" }

// Encode keeps the frame order and uses the first frame as the logical
// screen. The GIF delay unit is 10ms, so 120ms becomes 12.
func (e *GIFEncoder) Encode(ctx context.Context, w io.Writer, frames []*image.RGBA, p Params) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}

	delay := int(p.FrameDuration / (10 * time.Millisecond))
	if delay < 1 {
		delay = 1
	}
	loop := -1
	if p.Loop {
		loop = 0
	}

	base := frames[0].Bounds()
	anim := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		LoopCount: loop,
	}
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if frame.Bounds() != base {
			return fmt.Errorf("%w: frame %d is %v, first is %v", ErrFrameBounds, i, frame.Bounds(), base)
		}
		anim.Image[i] = Quantize(frame, e.MaxColors)
		anim.Delay[i] = delay
	}

	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("gif encode error: %w", err)
	}
	return nil
}
