package config

import (
	"sort"

	"github.com/san-kum/rdlab/internal/params"
)

type Preset struct {
	Description string
	Values      params.Group
}

func feedKill(f, k float64) params.Group {
	return params.Group{"f": params.Number(f), "k": params.Number(k)}
}

var Presets = map[string]Preset{
	"coral":    {"branching coral growth", feedKill(0.0545, 0.062)},
	"mitosis":  {"dividing cells", feedKill(0.0367, 0.0649)},
	"solitons": {"stable moving spots", feedKill(0.03, 0.062)},
	"worms":    {"long thin worms", feedKill(0.078, 0.061)},
	"maze":     {"labyrinth of stripes", feedKill(0.029, 0.057)},
	"holes":    {"negative spots", feedKill(0.039, 0.058)},
	"chaos":    {"turbulent waves", feedKill(0.026, 0.051)},
	"spots": {"fixed spots, wider seed", params.Group{
		"f":    params.Number(0.062),
		"k":    params.Number(0.061),
		"seed": params.Group{"type": params.Number(SeedNoise)},
	}},
}

// GetPreset returns the defaults with the named preset applied, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	if err := cfg.Merge(p.Values); err != nil {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
