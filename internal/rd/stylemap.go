package rd

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"net/http"
	"os"
	"strings"

	"github.com/san-kum/rdlab/internal/config"
)

var ErrBadDataURL = errors.New("rd: malformed image data url")

// styleMap is a decoded brightness image, values 0..1 row-major.
type styleMap struct {
	src  string
	w, h int
	lum  []float64
}

func (g *Grid) loadStyleMap(sm config.StyleMap) (*styleMap, error) {
	if !sm.ImageLoaded || sm.ImageData == "" {
		return nil, nil
	}
	if g.styleMap != nil && g.styleMap.src == sm.ImageData {
		return g.styleMap, nil
	}
	return decodeStyleMap(sm.ImageData)
}

func decodeStyleMap(dataURL string) (*styleMap, error) {
	raw, err := decodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("rd: style map: %w", err)
	}

	b := img.Bounds()
	m := &styleMap{src: dataURL, w: b.Dx(), h: b.Dy(), lum: make([]float64, b.Dx()*b.Dy())}
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			m.lum[y*m.w+x] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)) / 0xffff
		}
	}
	return m, nil
}

func decodeDataURL(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "data:") {
		return nil, ErrBadDataURL
	}
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, ErrBadDataURL
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	return raw, nil
}

// DataURL reads an image file and returns it as a base64 data url, the form
// style maps are kept in.
func DataURL(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mime := http.DetectContentType(raw)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("rd: %s is %s, not an image", path, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}

// weights maps every grid cell into the image through the map transform and
// returns its brightness. Cells that fall outside the image get zero.
func (m *styleMap) weights(w, h int, sm config.StyleMap) []float64 {
	if m == nil || m.w == 0 || m.h == 0 || w == 0 || h == 0 {
		return nil
	}
	scale := sm.Scale
	if scale == 0 {
		scale = 1
	}
	rad := -sm.Rotation * math.Pi / 180
	sin, cos := math.Sincos(rad)
	fit := math.Min(float64(m.w)/float64(w), float64(m.h)/float64(h))

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			u := float64(x) - float64(w)/2 - sm.Translate.X
			v := float64(y) - float64(h)/2 - sm.Translate.Y
			u, v = (u*cos-v*sin)/scale, (u*sin+v*cos)/scale

			ix := int(math.Floor(u*fit + float64(m.w)/2))
			iy := int(math.Floor(v*fit + float64(m.h)/2))
			if ix < 0 || iy < 0 || ix >= m.w || iy >= m.h {
				continue
			}
			out[y*w+x] = m.lum[iy*m.w+ix]
		}
	}
	return out
}
