package lighting

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsYAML []byte

// DefaultPreset is applied to a fresh session.
const DefaultPreset = "studio"

// Preset is a named built-in rig.
type Preset struct {
	Name        string  `yaml:"name"`
	Label       string  `yaml:"label"`
	Description string  `yaml:"description"`
	Lights      Lights  `yaml:"lights"`
	Ambient     Ambient `yaml:"ambient"`
}

// Rig returns the preset as a session rig.
func (p Preset) Rig() Rig {
	r := Rig{Ambient: p.Ambient, Preset: p.Name}
	r = r.WithLight(Key, p.Lights.Key)
	r = r.WithLight(Fill, p.Lights.Fill)
	return r.WithLight(Rim, p.Lights.Rim)
}

var loadPresets = sync.OnceValue(func() []Preset {
	ps, err := ParsePresets(presetsYAML)
	if err != nil {
		panic(err)
	}
	return ps
})

// ParsePresets decodes a YAML preset list and checks its colours.
func ParsePresets(data []byte) ([]Preset, error) {
	var ps []Preset
	if err := yaml.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("lighting: parse presets: %w", err)
	}
	for _, p := range ps {
		if p.Name == "" {
			return nil, fmt.Errorf("lighting: preset %q has no name", p.Label)
		}
		if err := p.Rig().Validate(); err != nil {
			return nil, fmt.Errorf("lighting: preset %s: %w", p.Name, err)
		}
	}
	return ps, nil
}

// Presets returns the built-in presets in display order.
func Presets() []Preset {
	ps := loadPresets()
	out := make([]Preset, len(ps))
	copy(out, ps)
	return out
}

// PresetByName looks up a built-in preset.
func PresetByName(name string) (Preset, bool) {
	for _, p := range loadPresets() {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}
