package lighting

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrUnknownLight  = errors.New("lighting: unknown light")
	ErrInvalidColor  = errors.New("lighting: invalid colour")
	ErrUnknownPreset = errors.New("lighting: unknown preset")
)

// RGB is a colour with components in [0, 1].
type RGB [3]float64

// ParseColor parses "#rgb" or "#rrggbb" into an sRGB colour.
func ParseColor(hex string) (RGB, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	return RGB{
		float64(v>>16&0xff) / 255,
		float64(v>>8&0xff) / 255,
		float64(v&0xff) / 255,
	}, nil
}

// Linear converts sRGB components to linear light.
func (c RGB) Linear() RGB {
	for i, v := range c {
		if v <= 0.04045 {
			c[i] = v / 12.92
		} else {
			c[i] = math.Pow((v+0.055)/1.055, 2.4)
		}
	}
	return c
}

// Scale multiplies every component by k.
func (c RGB) Scale(k float64) RGB {
	return RGB{c[0] * k, c[1] * k, c[2] * k}
}
