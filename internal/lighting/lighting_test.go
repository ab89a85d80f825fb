package lighting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets(t *testing.T) {
	ps := Presets()
	require.Len(t, ps, 6)
	var names []string
	for _, p := range ps {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"studio", "rembrandt", "butterfly", "split", "rim", "outdoor"}, names)

	p, ok := PresetByName("rembrandt")
	require.True(t, ok)
	r := p.Rig()
	assert.Equal(t, "rembrandt", r.Preset)
	assert.Equal(t, "#fff5e6", r.Lights.Key.Color)
	assert.Equal(t, 1.8, r.Lights.Key.Intensity)
	assert.Equal(t, 0.1, r.Ambient.Intensity)

	_, ok = PresetByName("nope")
	assert.False(t, ok)
}

func TestDefaultIsStudio(t *testing.T) {
	r := Default()
	assert.Equal(t, DefaultPreset, r.Preset)
	assert.Equal(t, Position{Azimuth: 45, Elevation: 45, Distance: 5}, r.Lights.Key.Position)
	assert.Equal(t, 180.0, r.Lights.Rim.Position.Azimuth)
	assert.True(t, r.Lights.Fill.Enabled)
	assert.NoError(t, r.Validate())
}

func TestOutdoorRimAzimuthWraps(t *testing.T) {
	p, ok := PresetByName("outdoor")
	require.True(t, ok)
	assert.Equal(t, -160.0, p.Rig().Lights.Rim.Position.Azimuth)
}

func TestSpotClamped(t *testing.T) {
	s := Spot{Position: Position{Azimuth: 540, Elevation: -10, Distance: 40}, Intensity: 7}.Clamped()
	assert.Equal(t, 180.0, s.Position.Azimuth)
	assert.Equal(t, 0.0, s.Position.Elevation)
	assert.Equal(t, 15.0, s.Position.Distance)
	assert.Equal(t, 3.0, s.Intensity)

	s = Spot{Position: Position{Azimuth: -190, Elevation: math.NaN(), Distance: 1}, Intensity: -1}.Clamped()
	assert.Equal(t, 170.0, s.Position.Azimuth)
	assert.Equal(t, 0.0, s.Position.Elevation)
	assert.Equal(t, 2.0, s.Position.Distance)
	assert.Equal(t, 0.0, s.Intensity)
}

func TestCartesian(t *testing.T) {
	front := Position{Azimuth: 0, Elevation: 0, Distance: 2}.Cartesian()
	assert.InDelta(t, 2, front[2], 1e-12)
	left := Position{Azimuth: 90, Elevation: 0, Distance: 1}.Cartesian()
	assert.InDelta(t, 1, left[0], 1e-12)
	top := Position{Azimuth: 30, Elevation: 90, Distance: 3}.Cartesian()
	assert.InDelta(t, 3, top[1], 1e-12)
	assert.InDelta(t, 0, top[0], 1e-12)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, RGB{1, 128.0 / 255, 0}, c)

	c, err = ParseColor("#fff")
	require.NoError(t, err)
	assert.Equal(t, RGB{1, 1, 1}, c)
	assert.Equal(t, RGB{1, 1, 1}, c.Linear())

	for _, bad := range []string{"", "#12", "#gggggg", "#12345678"} {
		_, err := ParseColor(bad)
		assert.ErrorIs(t, err, ErrInvalidColor, bad)
	}
}

func TestParse(t *testing.T) {
	id, err := Parse("rim")
	require.NoError(t, err)
	assert.Equal(t, Rim, id)
	_, err = Parse("back")
	assert.ErrorIs(t, err, ErrUnknownLight)
}

func TestWithLight(t *testing.T) {
	r := Default()
	fill := r.Light(Fill)
	fill.Intensity = 9
	fill.Color = "#00ff00"
	r2 := r.WithLight(Fill, fill)
	assert.Equal(t, 3.0, r2.Light(Fill).Intensity)
	assert.Equal(t, "#00ff00", r2.Lights.Fill.Color)
	assert.Equal(t, r.Lights.Key, r2.Lights.Key)
	assert.Equal(t, r.Preset, r2.Preset)
}

func TestParsePresetsRejectsBadColour(t *testing.T) {
	_, err := ParsePresets([]byte(`- name: x
  lights:
    key: {color: "#zzz"}
    fill: {color: "#fff"}
    rim: {color: "#fff"}
  ambient: {color: "#000"}
`))
	assert.ErrorIs(t, err, ErrInvalidColor)
}
