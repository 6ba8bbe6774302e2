package config

import "math"

// Field describes one numeric parameter the panel can edit.
type Field struct {
	Path  string
	Label string
	Min   float64
	Max   float64
	Step  float64
}

// Fields lists the editable parameters in panel order.
var Fields = []Field{
	{Path: "f", Label: "Feed", Min: 0, Max: 0.1, Step: 0.0001},
	{Path: "k", Label: "Kill", Min: 0, Max: 0.1, Step: 0.0001},
	{Path: "dA", Label: "dA", Min: 0, Max: 1, Step: 0.0001},
	{Path: "dB", Label: "dB", Min: 0, Max: 1, Step: 0.0001},
	{Path: "timestep", Label: "Timestep", Min: 0, Max: 1.5, Step: 0.01},
	{Path: "bias.x", Label: "Bias x", Min: -0.2, Max: 0.2, Step: 0.001},
	{Path: "bias.y", Label: "Bias y", Min: -0.2, Max: 0.2, Step: 0.001},
	{Path: "styleMap.scale", Label: "Map scale", Min: 0.1, Max: 3, Step: 0.01},
	{Path: "styleMap.rotation", Label: "Map rotation", Min: -180, Max: 180, Step: 1},
	{Path: "styleMap.f", Label: "Feed (#2)", Min: 0, Max: 0.1, Step: 0.0001},
	{Path: "styleMap.k", Label: "Kill (#2)", Min: 0, Max: 0.1, Step: 0.0001},
	{Path: "hsl.saturation", Label: "Saturation", Min: 0, Max: 1, Step: 0.01},
	{Path: "hsl.luminosity", Label: "Luminosity", Min: 0, Max: 1, Step: 0.01},
}

// FieldByPath returns the metadata for path.
func FieldByPath(path string) (Field, bool) {
	for _, f := range Fields {
		if f.Path == path {
			return f, true
		}
	}
	return Field{}, false
}

// Clamp limits v to the field range and snaps it to the step grid.
func (f Field) Clamp(v float64) float64 {
	if f.Step > 0 {
		v = f.Min + math.Round((v-f.Min)/f.Step)*f.Step
	}
	return math.Max(f.Min, math.Min(f.Max, v))
}

// Float returns a pointer to the numeric field at path, for in-place edits.
func (c *Config) Float(path string) (*float64, bool) {
	switch path {
	case "f":
		return &c.F, true
	case "k":
		return &c.K, true
	case "dA":
		return &c.DA, true
	case "dB":
		return &c.DB, true
	case "timestep":
		return &c.Timestep, true
	case "bias.x":
		return &c.Bias.X, true
	case "bias.y":
		return &c.Bias.Y, true
	case "styleMap.scale":
		return &c.StyleMap.Scale, true
	case "styleMap.rotation":
		return &c.StyleMap.Rotation, true
	case "styleMap.translate.x":
		return &c.StyleMap.Translate.X, true
	case "styleMap.translate.y":
		return &c.StyleMap.Translate.Y, true
	case "styleMap.f":
		return &c.StyleMap.F, true
	case "styleMap.k":
		return &c.StyleMap.K, true
	case "styleMap.dA":
		return &c.StyleMap.DA, true
	case "styleMap.dB":
		return &c.StyleMap.DB, true
	case "hsl.saturation":
		return &c.HSL.Saturation, true
	case "hsl.luminosity":
		return &c.HSL.Luminosity, true
	}
	return nil, false
}

// Adjust moves the field at path by n steps, clamped to its range.
func (c *Config) Adjust(path string, n int) bool {
	meta, ok := FieldByPath(path)
	if !ok {
		return false
	}
	p, ok := c.Float(path)
	if !ok {
		return false
	}
	*p = meta.Clamp(*p + float64(n)*meta.Step)
	return true
}
