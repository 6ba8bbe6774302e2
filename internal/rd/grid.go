// Package rd simulates the Gray-Scott reaction-diffusion system on a wrapped
// grid and renders it to PNG frames.
package rd

import (
	"math/rand"
	"runtime"
	"sync"

	"github.com/san-kum/rdlab/internal/config"
)

// Laplacian weights for the 3x3 stencil.
const (
	wAdjacent = 0.2
	wDiagonal = 0.05
)

// Grid holds the two chemical concentrations. It is not safe for concurrent
// use; Step fans out internally.
type Grid struct {
	W, H int

	a, b   []float64
	na, nb []float64

	cfg      config.Config
	styleMap *styleMap
	mapT     []float64
	workers  int
	steps    int

	enc *encoder
}

// New allocates a grid sized by cfg.Canvas and seeds it.
func New(cfg *config.Config, workers int) (*Grid, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g := &Grid{workers: workers, enc: newEncoder()}
	if err := g.Configure(cfg); err != nil {
		return nil, err
	}
	g.Reset()
	return g, nil
}

// Configure applies new parameters. A changed canvas size reallocates and
// reseeds the grid.
func (g *Grid) Configure(cfg *config.Config) error {
	resized := cfg.Canvas.Width != g.W || cfg.Canvas.Height != g.H
	g.cfg = *cfg

	if resized {
		g.W, g.H = max(cfg.Canvas.Width, 0), max(cfg.Canvas.Height, 0)
		n := g.W * g.H
		g.a, g.b = make([]float64, n), make([]float64, n)
		g.na, g.nb = make([]float64, n), make([]float64, n)
		g.Reset()
	}

	sm, err := g.loadStyleMap(cfg.StyleMap)
	if err != nil {
		return err
	}
	g.styleMap = sm
	g.mapT = sm.weights(g.W, g.H, cfg.StyleMap)
	return nil
}

// Reset fills the grid with A and drops the seed pattern of B.
func (g *Grid) Reset() {
	for i := range g.a {
		g.a[i], g.b[i] = 1, 0
	}
	g.steps = 0
	if g.W == 0 || g.H == 0 {
		return
	}

	size := int(g.cfg.Seed.Size)
	if size < 1 {
		size = 1
	}
	cx, cy := g.W/2, g.H/2
	switch int(g.cfg.Seed.Type) {
	case config.SeedSquare:
		g.fillRect(cx-size, cy-size, 2*size, 2*size)
	case config.SeedNoise:
		rng := rand.New(rand.NewSource(1))
		spots := max(g.W*g.H/(size*size*8), 1)
		for i := 0; i < spots; i++ {
			g.fillRect(rng.Intn(g.W), rng.Intn(g.H), 3, 3)
		}
	default:
		for y := cy - size; y <= cy+size; y++ {
			for x := cx - size; x <= cx+size; x++ {
				if (x-cx)*(x-cx)+(y-cy)*(y-cy) <= size*size {
					g.set(x, y)
				}
			}
		}
	}
}

func (g *Grid) fillRect(x0, y0, w, h int) {
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			g.set(x, y)
		}
	}
}

func (g *Grid) set(x, y int) {
	x, y = wrap(x, g.W), wrap(y, g.H)
	g.b[y*g.W+x] = 1
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// Steps returns how many steps ran since the last Reset.
func (g *Grid) Steps() int { return g.steps }

// Step advances the simulation n times.
func (g *Grid) Step(n int) {
	if g.W == 0 || g.H == 0 {
		return
	}
	for i := 0; i < n; i++ {
		g.step()
		g.a, g.na = g.na, g.a
		g.b, g.nb = g.nb, g.b
		g.steps++
	}
}

func (g *Grid) step() {
	workers := min(g.workers, g.H)
	band := (g.H + workers - 1) / workers

	var wg sync.WaitGroup
	for y0 := 0; y0 < g.H; y0 += band {
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			for y := y0; y < y1; y++ {
				g.stepRow(y)
			}
		}(y0, min(y0+band, g.H))
	}
	wg.Wait()
}

func (g *Grid) stepRow(y int) {
	c := &g.cfg
	w := g.W
	up, down := wrap(y-1, g.H)*w, wrap(y+1, g.H)*w
	row := y * w

	// bias tilts diffusion towards one direction without changing its total
	wl, wr := wAdjacent-c.Bias.X, wAdjacent+c.Bias.X
	wu, wd := wAdjacent-c.Bias.Y, wAdjacent+c.Bias.Y

	for x := 0; x < w; x++ {
		l, r := wrap(x-1, w), wrap(x+1, w)
		i := row + x

		lapA := -g.a[i] +
			wl*g.a[row+l] + wr*g.a[row+r] + wu*g.a[up+x] + wd*g.a[down+x] +
			wDiagonal*(g.a[up+l]+g.a[up+r]+g.a[down+l]+g.a[down+r])
		lapB := -g.b[i] +
			wl*g.b[row+l] + wr*g.b[row+r] + wu*g.b[up+x] + wd*g.b[down+x] +
			wDiagonal*(g.b[up+l]+g.b[up+r]+g.b[down+l]+g.b[down+r])

		f, k, da, db := c.F, c.K, c.DA, c.DB
		if g.mapT != nil {
			t := g.mapT[i]
			f = lerp(f, c.StyleMap.F, t)
			k = lerp(k, c.StyleMap.K, t)
			da = lerp(da, c.StyleMap.DA, t)
			db = lerp(db, c.StyleMap.DB, t)
		}

		a, b := g.a[i], g.b[i]
		abb := a * b * b
		g.na[i] = clamp01(a + (da*lapA-abb+f*(1-a))*c.Timestep)
		g.nb[i] = clamp01(b + (db*lapB+abb-(k+f)*b)*c.Timestep)
	}
}

// At returns the concentrations at x, y. Coordinates wrap.
func (g *Grid) At(x, y int) (a, b float64) {
	i := wrap(y, g.H)*g.W + wrap(x, g.W)
	return g.a[i], g.b[i]
}

// MeanB is the average B concentration, a cheap summary of pattern growth.
func (g *Grid) MeanB() float64 {
	if len(g.b) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range g.b {
		sum += v
	}
	return sum / float64(len(g.b))
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
