package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/san-kum/rdlab/internal/params"
	"gopkg.in/yaml.v3"
)

const (
	DefaultF        = 0.0545
	DefaultK        = 0.062
	DefaultDA       = 0.2097
	DefaultDB       = 0.105
	DefaultTimestep = 1.0
	DefaultWidth    = 320
	DefaultHeight   = 240
)

// Rendering styles.
const (
	StyleGradient = iota
	StyleHSL
	StyleGrayscale
)

// Seed patterns.
const (
	SeedCircle = iota
	SeedSquare
	SeedNoise
)

// Config is the live set of simulation and display parameters. The json names
// match the browser playground so catalogs written there load here.
type Config struct {
	F              float64        `json:"f" yaml:"f"`
	K              float64        `json:"k" yaml:"k"`
	DA             float64        `json:"dA" yaml:"dA"`
	DB             float64        `json:"dB" yaml:"dB"`
	Timestep       float64        `json:"timestep" yaml:"timestep"`
	Bias           Vec2           `json:"bias" yaml:"bias"`
	StyleMap       StyleMap       `json:"styleMap" yaml:"styleMap"`
	HSL            HSL            `json:"hsl" yaml:"hsl"`
	GradientColors GradientColors `json:"gradientColors" yaml:"gradientColors"`
	Canvas         Canvas         `json:"canvas" yaml:"canvas"`
	RenderingStyle Int            `json:"renderingStyle" yaml:"renderingStyle"`
	Seed           Seed           `json:"seed" yaml:"seed"`
}

type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// StyleMap is an optional image whose brightness blends the base reaction
// parameters towards a second set.
type StyleMap struct {
	ImageData   string  `json:"imageData" yaml:"-"`
	ImageLoaded bool    `json:"imageLoaded" yaml:"-"`
	Scale       float64 `json:"scale" yaml:"scale"`
	Rotation    float64 `json:"rotation" yaml:"rotation"`
	Translate   Vec2    `json:"translate" yaml:"translate"`
	F           float64 `json:"f" yaml:"f"`
	K           float64 `json:"k" yaml:"k"`
	DA          float64 `json:"dA" yaml:"dA"`
	DB          float64 `json:"dB" yaml:"dB"`
}

type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

type HSL struct {
	From       Range   `json:"from" yaml:"from"`
	To         Range   `json:"to" yaml:"to"`
	Saturation float64 `json:"saturation" yaml:"saturation"`
	Luminosity float64 `json:"luminosity" yaml:"luminosity"`
}

type RGB struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
}

type GradientColors struct {
	Color1RGB  RGB     `json:"color1RGB" yaml:"color1RGB"`
	Color1Stop float64 `json:"color1Stop" yaml:"color1Stop"`
	Color2RGB  RGB     `json:"color2RGB" yaml:"color2RGB"`
	Color2Stop float64 `json:"color2Stop" yaml:"color2Stop"`
	Color3RGB  RGB     `json:"color3RGB" yaml:"color3RGB"`
	Color3Stop float64 `json:"color3Stop" yaml:"color3Stop"`
	Color4RGB  RGB     `json:"color4RGB" yaml:"color4RGB"`
	Color4Stop float64 `json:"color4Stop" yaml:"color4Stop"`
	Color5RGB  RGB     `json:"color5RGB" yaml:"color5RGB"`
	Color5Stop float64 `json:"color5Stop" yaml:"color5Stop"`
}

// ColorStop is one entry of the display gradient; Color channels are 0..255.
type ColorStop struct {
	Color RGB
	Stop  float64
}

// Stops returns the five gradient stops in order.
func (g GradientColors) Stops() []ColorStop {
	return []ColorStop{
		{g.Color1RGB, g.Color1Stop},
		{g.Color2RGB, g.Color2Stop},
		{g.Color3RGB, g.Color3Stop},
		{g.Color4RGB, g.Color4Stop},
		{g.Color5RGB, g.Color5Stop},
	}
}

type Canvas struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

type Seed struct {
	Type Int     `json:"type" yaml:"type"`
	Size float64 `json:"size" yaml:"size"`
}

// Int decodes from either a JSON number or a numeric string. Dropdowns in the
// browser store their selection as a string.
type Int int

func (i *Int) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*i = Int(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("config: expected number or numeric string, got %s", data)
	}
	if s == "" {
		*i = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	*i = Int(v)
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		F:        DefaultF,
		K:        DefaultK,
		DA:       DefaultDA,
		DB:       DefaultDB,
		Timestep: DefaultTimestep,
		StyleMap: StyleMap{
			Scale: 1.0,
			F:     DefaultF,
			K:     DefaultK,
			DA:    DefaultDA,
			DB:    DefaultDB,
		},
		HSL: HSL{
			From:       Range{Min: 0, Max: 0.3},
			To:         Range{Min: 0, Max: 1},
			Saturation: 0.7,
			Luminosity: 0.5,
		},
		GradientColors: GradientColors{
			Color1RGB: RGB{0, 0, 0}, Color1Stop: 0,
			Color2RGB: RGB{0, 255, 0}, Color2Stop: 0.2,
			Color3RGB: RGB{255, 255, 0}, Color3Stop: 0.21,
			Color4RGB: RGB{255, 0, 0}, Color4Stop: 0.4,
			Color5RGB: RGB{255, 255, 255}, Color5Stop: 0.6,
		},
		Canvas: Canvas{Width: DefaultWidth, Height: DefaultHeight},
		Seed:   Seed{Type: SeedCircle, Size: 20},
	}
}

// Tree returns the configuration as a params tree.
func (c *Config) Tree() (params.Group, error) {
	return params.FromStruct(c)
}

// Merge folds a (possibly partial or older) tree into c. Fields the tree does
// not mention keep their current values.
func (c *Config) Merge(tree params.Group) error {
	live, err := c.Tree()
	if err != nil {
		return err
	}
	params.Merge(live, tree)

	var out Config
	if err := live.Decode(&out); err != nil {
		return fmt.Errorf("config: apply tree: %w", err)
	}
	*c = out
	return nil
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Load reads a yaml parameter file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
