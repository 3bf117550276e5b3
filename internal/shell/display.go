package shell

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Mode selects how cell values are turned into color and opacity.
type Mode string

const (
	ModeCoverage   Mode = "coverage"
	ModeIncreasing Mode = "increasing"
	ModeBimodal    Mode = "bimodal"
	ModeDefault    Mode = "default"
)

// ParseMode maps a catalog display name to a Mode. Unknown names fall back
// to ModeDefault.
func ParseMode(name string) Mode {
	switch Mode(strings.ToLower(name)) {
	case ModeCoverage:
		return ModeCoverage
	case ModeIncreasing:
		return ModeIncreasing
	case ModeBimodal:
		return ModeBimodal
	default:
		return ModeDefault
	}
}

const (
	// OutlierTrim is the number of values dropped from each end of the
	// sorted snapshot when deriving the display range.
	OutlierTrim = 100

	// MaterialLevels is the number of precomputed opacity materials.
	MaterialLevels = 100

	coverageFracScale = 99
	increasingScale   = 75
	bimodalScale      = 60
)

// RGB is a color with channels in [0, 1].
type RGB struct {
	R, G, B float64
}

var (
	White = RGB{1, 1, 1}
	Cold  = RGB{0, 0, 1}
	Hot   = RGB{1, 0, 0}
)

// Hex packs the color as 0xRRGGBB.
func (c RGB) Hex() uint32 {
	r := uint32(math.Round(clamp01(c.R) * 255))
	g := uint32(math.Round(clamp01(c.G) * 255))
	b := uint32(math.Round(clamp01(c.B) * 255))
	return r<<16 | g<<8 | b
}

func (c RGB) Colorful() colorful.Color {
	return colorful.Color{R: c.R, G: c.G, B: c.B}
}

// FromColorful converts a go-colorful color, clamping out-of-gamut channels.
func FromColorful(c colorful.Color) RGB {
	c = c.Clamped()
	return RGB{c.R, c.G, c.B}
}

// ParseColor accepts "#rrggbb", "0xrrggbb" or a decimal integer, the forms
// used by the variable catalog.
func ParseColor(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return White, nil
	}
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return RGB{}, fmt.Errorf("parse color %q: %w", s, err)
		}
		return FromColorful(c), nil
	}
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return RGB{
		R: float64(n>>16&0xff) / 255,
		G: float64(n>>8&0xff) / 255,
		B: float64(n&0xff) / 255,
	}, nil
}

// DisplayConfig maps cell values to color and opacity for one shell.
type DisplayConfig struct {
	Mode      Mode
	BaseColor RGB
	Units     string
	Min       float64
	Max       float64
}

// NewDisplayConfig derives the display range from a representative
// snapshot, trimming OutlierTrim values from each end.
func NewDisplayConfig(mode Mode, base RGB, units string, snap Snapshot) DisplayConfig {
	lo, hi := TrimmedRange(snap, OutlierTrim)
	return DisplayConfig{
		Mode:      mode,
		BaseColor: base,
		Units:     units,
		Min:       lo,
		Max:       hi,
	}
}

// TrimmedRange returns the values at positions trim and len-trim of the
// sorted finite values. Snapshots too short to trim use their full range.
func TrimmedRange(snap Snapshot, trim int) (float64, float64) {
	vals := make([]float64, 0, len(snap))
	for _, v := range snap {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, 0
	}
	sort.Float64s(vals)
	if trim <= 0 || len(vals) <= 2*trim {
		return vals[0], vals[len(vals)-1]
	}
	return vals[trim], vals[len(vals)-trim]
}

func (d DisplayConfig) mid() float64 { return d.Min + (d.Max-d.Min)*0.5 }

// Color returns the face color for value v.
func (d DisplayConfig) Color(v float64) RGB {
	switch d.Mode {
	case ModeCoverage, ModeIncreasing:
		return d.BaseColor
	case ModeBimodal:
		if v < d.mid() {
			return Cold
		}
		return Hot
	default:
		return White
	}
}

// MaterialIndex returns the opacity bucket in [0, MaterialLevels) for v.
// Degenerate ranges and non-finite values map to 0.
func (d DisplayConfig) MaterialIndex(v float64) int {
	switch d.Mode {
	case ModeCoverage, ModeIncreasing:
		if d.Mode == ModeCoverage && d.Units == "frac" {
			return bucket(v, coverageFracScale)
		}
		return bucket((v-d.Min)/(d.Max-d.Min), increasingScale)
	case ModeBimodal:
		half := (d.Max - d.Min) * 0.5
		return bucket(math.Abs(v-d.mid())/half, bimodalScale)
	default:
		return 0
	}
}

// Opacity returns the opacity of material index m.
func Opacity(m int) float64 {
	return float64(m) / MaterialLevels
}

func bucket(ratio float64, scale float64) int {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0
	}
	x := int(math.Floor(clamp01(ratio) * scale))
	if x > MaterialLevels-1 {
		return MaterialLevels - 1
	}
	return x
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(x, 1))
}
