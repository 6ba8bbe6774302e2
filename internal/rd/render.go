package rd

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"github.com/san-kum/rdlab/internal/config"
)

// Image renders the current state with the configured style.
func (g *Grid) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.W, g.H))
	paint := g.painter()
	for i := range g.b {
		c := paint(g.a[i], g.b[i])
		o := i * 4
		img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = c.R, c.G, c.B, 0xff
	}
	return img
}

func (g *Grid) painter() func(a, b float64) color.RGBA {
	switch int(g.cfg.RenderingStyle) {
	case config.StyleHSL:
		h := g.cfg.HSL
		return func(_, b float64) color.RGBA {
			t := 0.0
			if span := h.From.Max - h.From.Min; span > 0 {
				t = clamp01((b - h.From.Min) / span)
			}
			return hslToRGB(lerp(h.To.Min, h.To.Max, t), h.Saturation, h.Luminosity)
		}
	case config.StyleGrayscale:
		return func(a, b float64) color.RGBA {
			v := uint8(math.Round(clamp01(a-b) * 255))
			return color.RGBA{v, v, v, 0xff}
		}
	default:
		stops := g.cfg.GradientColors.Stops()
		return func(_, b float64) color.RGBA { return gradient(stops, b) }
	}
}

func gradient(stops []config.ColorStop, v float64) color.RGBA {
	if v <= stops[0].Stop {
		return rgb(stops[0].Color)
	}
	for i := 1; i < len(stops); i++ {
		lo, hi := stops[i-1], stops[i]
		if v > hi.Stop {
			continue
		}
		t := 0.0
		if span := hi.Stop - lo.Stop; span > 0 {
			t = (v - lo.Stop) / span
		}
		return rgb(config.RGB{
			R: lerp(lo.Color.R, hi.Color.R, t),
			G: lerp(lo.Color.G, hi.Color.G, t),
			B: lerp(lo.Color.B, hi.Color.B, t),
		})
	}
	return rgb(stops[len(stops)-1].Color)
}

func rgb(c config.RGB) color.RGBA {
	ch := func(v float64) uint8 { return uint8(math.Round(math.Max(0, math.Min(255, v)))) }
	return color.RGBA{ch(c.R), ch(c.G), ch(c.B), 0xff}
}

// hslToRGB takes hue, saturation and lightness in 0..1.
func hslToRGB(h, s, l float64) color.RGBA {
	if s == 0 {
		v := l * 255
		return rgb(config.RGB{R: v, G: v, B: v})
	}
	q := l * (1 + s)
	if l >= 0.5 {
		q = l + s - l*s
	}
	p := 2*l - q
	return rgb(config.RGB{
		R: hue(p, q, h+1.0/3) * 255,
		G: hue(p, q, h) * 255,
		B: hue(p, q, h-1.0/3) * 255,
	})
}

func hue(p, q, t float64) float64 {
	t -= math.Floor(t)
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}

type bufferPool struct{ p sync.Pool }

func (bp *bufferPool) Get() *png.EncoderBuffer {
	b, _ := bp.p.Get().(*png.EncoderBuffer)
	return b
}

func (bp *bufferPool) Put(b *png.EncoderBuffer) { bp.p.Put(b) }

type encoder struct {
	png png.Encoder
	buf bytes.Buffer
}

func newEncoder() *encoder {
	return &encoder{png: png.Encoder{CompressionLevel: png.BestSpeed, BufferPool: &bufferPool{}}}
}

// EncodeFrame renders the grid to PNG bytes. An empty grid yields no data,
// which capture treats as not ready yet.
func (g *Grid) EncodeFrame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.W == 0 || g.H == 0 {
		return nil, nil
	}
	g.enc.buf.Reset()
	if err := g.enc.png.Encode(&g.enc.buf, g.Image()); err != nil {
		return nil, err
	}
	out := make([]byte, g.enc.buf.Len())
	copy(out, g.enc.buf.Bytes())
	return out, nil
}
