package frustal

import (
	"strings"
)

// Preset is a named snapshot of a view.
type Preset struct {
	Name    string
	Domain  Domain
	Options Options
}

func withOptions(f func(o *Options)) Options {
	o := DefaultOptions()
	f(&o)
	return o
}

var centred = Domain{Scale: 1.5}

var Presets = []Preset{
	{
		Name:    "Mandelbrot",
		Domain:  DefaultDomain(),
		Options: DefaultOptions(),
	},
	{
		Name:   "Multibrot 3",
		Domain: centred,
		Options: withOptions(func(o *Options) {
			o.Order = 3
		}),
	},
	{
		Name:   "Newton",
		Domain: Domain{Scale: 2},
		Options: withOptions(func(o *Options) {
			o.Variant = Newton
			o.Precision = 20
			o.Real, o.Imaginary = 1, 0
		}),
	},
	{
		Name:   "Julia",
		Domain: centred,
		Options: withOptions(func(o *Options) {
			o.Variant = Julia
			o.Precision = 2000
			o.Lightness = 5
		}),
	},
	{
		Name:   "Julia 1-φ",
		Domain: centred,
		Options: withOptions(func(o *Options) {
			o.Variant = Julia
			o.Precision = 20
			o.Real, o.Imaginary = -0.61803398875, 0
			o.Lightness = 1.5
		}),
	},
	{
		Name:   "Julia φ−2 + (φ−1)i",
		Domain: centred,
		Options: withOptions(func(o *Options) {
			o.Variant = Julia
			o.Precision = 1000
			o.Real, o.Imaginary = -0.38196601125, 0.61803398875
			o.Lightness = 5
		}),
	},
	{
		Name:   "Julia (-.835 -.2321i)",
		Domain: centred,
		Options: withOptions(func(o *Options) {
			o.Variant = Julia
			o.Precision = 500
			o.Real, o.Imaginary = -0.835, -0.2321
			o.Lightness = 7
		}),
	},
	{
		Name:   "Julia (-.8i)",
		Domain: centred,
		Options: withOptions(func(o *Options) {
			o.Variant = Julia
			o.Precision = 200
			o.Real, o.Imaginary = 0, -0.8
			o.Lightness = 4
		}),
	},
}

// FindPreset looks a preset up by case-insensitive name.
func FindPreset(name string) (Preset, bool) {
	for _, p := range Presets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}
