package pose

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"pose-studio/internal/joint"
)

//go:embed presets.yaml
var presetsYAML []byte

// Preset is a named built-in pose.
type Preset struct {
	ID          string
	Name        string
	Description string
	Pose        Pose
}

type presetEntry struct {
	ID          string                 `yaml:"id"`
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Joints      map[string]joint.Euler `yaml:"joints"`
}

var loadPresets = sync.OnceValue(func() []Preset {
	ps, err := ParsePresets(presetsYAML)
	if err != nil {
		panic(err)
	}
	return ps
})

// ParsePresets decodes a YAML preset list.
func ParsePresets(data []byte) ([]Preset, error) {
	var entries []presetEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("pose: parse presets: %w", err)
	}
	out := make([]Preset, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("pose: preset %q has no id", e.Name)
		}
		out = append(out, Preset{
			ID:          e.ID,
			Name:        e.Name,
			Description: e.Description,
			Pose:        FromMap(e.Joints),
		})
	}
	return out, nil
}

// Presets returns the built-in presets in display order.
func Presets() []Preset {
	ps := loadPresets()
	out := make([]Preset, len(ps))
	copy(out, ps)
	return out
}

// PresetByID looks up a built-in preset.
func PresetByID(id string) (Preset, bool) {
	for _, p := range loadPresets() {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// MatchPreset returns the first preset equal to p within DefaultTolerance.
func MatchPreset(p Pose) (Preset, bool) {
	for _, pr := range loadPresets() {
		if Matches(p, pr.Pose, DefaultTolerance) {
			return pr, true
		}
	}
	return Preset{}, false
}
