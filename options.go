package frustal

import (
	"fmt"
	"strconv"
	"strings"
)

type Variant int

const (
	Mandelbrot Variant = iota
	Julia
	Mandelbar
	BurningShip
	Newton
	Newton2
	Newton3
	Newton4
	Newton5
	numVariants
)

var variantNames = [...]string{
	Mandelbrot:  "mandelbrot",
	Julia:       "julia",
	Mandelbar:   "mandelbar",
	BurningShip: "burningship",
	Newton:      "newton",
	Newton2:     "newton2",
	Newton3:     "newton3",
	Newton4:     "newton4",
	Newton5:     "newton5",
}

func (v Variant) String() string {
	if v < 0 || v >= numVariants {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantNames[v]
}

// Next cycles through the variants.
func (v Variant) Next() Variant {
	return (v + 1) % numVariants
}

func ParseVariant(s string) (Variant, error) {
	for i, name := range variantNames {
		if name == s {
			return Variant(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < int(numVariants) {
		return Variant(n), nil
	}
	return 0, paramErr(FieldVariant, s, ErrInvalidValue)
}

type Colorization int

const (
	Relative Colorization = iota
	RelativeBnW
	AbsoluteHSL
	AbsoluteLogHSL
	numColorizations
)

var colorizationNames = [...]string{
	Relative:       "relative",
	RelativeBnW:    "relative-bnw",
	AbsoluteHSL:    "absolute-hsl",
	AbsoluteLogHSL: "absolute-log-hsl",
}

func (c Colorization) String() string {
	if c < 0 || c >= numColorizations {
		return fmt.Sprintf("Colorization(%d)", int(c))
	}
	return colorizationNames[c]
}

func (c Colorization) Next() Colorization {
	return (c + 1) % numColorizations
}

func ParseColorization(s string) (Colorization, error) {
	for i, name := range colorizationNames {
		if name == s {
			return Colorization(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < int(numColorizations) {
		return Colorization(n), nil
	}
	return 0, paramErr(FieldColorization, s, ErrInvalidValue)
}

// Option field names accepted by Options.Set and Options.Get.
const (
	FieldVariant      = "variant"
	FieldPrecision    = "precision"
	FieldSmooth       = "smooth"
	FieldOrder        = "order"
	FieldReal         = "real"
	FieldImaginary    = "imaginary"
	FieldLightness    = "lightness"
	FieldColorization = "colorization"
)

// OptionFields lists every Options field in display order.
var OptionFields = []string{
	FieldVariant,
	FieldPrecision,
	FieldSmooth,
	FieldOrder,
	FieldReal,
	FieldImaginary,
	FieldLightness,
	FieldColorization,
}

const (
	MinPrecision = 1
	MaxPrecision = 100000
	MinOrder     = 2
	MaxOrder     = 16
	MaxConstant  = 4.0
	MaxLightness = 100.0
)

// Options are the evaluator parameters. The zero value is not valid, start
// from DefaultOptions.
type Options struct {
	Variant      Variant
	Precision    int
	Smooth       bool
	Order        int
	Real         float64
	Imaginary    float64
	Lightness    float64
	Colorization Colorization
}

func DefaultOptions() Options {
	return Options{
		Variant:      Mandelbrot,
		Precision:    25,
		Smooth:       true,
		Order:        2,
		Real:         -0.8,
		Imaginary:    0.156,
		Lightness:    1,
		Colorization: Relative,
	}
}

// Validate checks every field range independently and returns the first
// violation.
func (o Options) Validate() error {
	if o.Variant < 0 || o.Variant >= numVariants {
		return paramErr(FieldVariant, int(o.Variant), ErrOutOfRange)
	}
	if o.Precision < MinPrecision || o.Precision > MaxPrecision {
		return paramErr(FieldPrecision, o.Precision, ErrOutOfRange)
	}
	if o.Order < MinOrder || o.Order > MaxOrder {
		return paramErr(FieldOrder, o.Order, ErrOutOfRange)
	}
	if !finite(o.Real) || o.Real < -MaxConstant || o.Real > MaxConstant {
		return paramErr(FieldReal, o.Real, ErrOutOfRange)
	}
	if !finite(o.Imaginary) || o.Imaginary < -MaxConstant || o.Imaginary > MaxConstant {
		return paramErr(FieldImaginary, o.Imaginary, ErrOutOfRange)
	}
	if !finite(o.Lightness) || o.Lightness <= 0 || o.Lightness > MaxLightness {
		return paramErr(FieldLightness, o.Lightness, ErrOutOfRange)
	}
	if o.Colorization < 0 || o.Colorization >= numColorizations {
		return paramErr(FieldColorization, int(o.Colorization), ErrOutOfRange)
	}
	return nil
}

// Set parses value and assigns it to the named field. On error o is left
// unchanged.
func (o *Options) Set(name, value string) error {
	next := *o
	value = strings.TrimSpace(value)
	switch name {
	case FieldVariant:
		v, err := ParseVariant(value)
		if err != nil {
			return err
		}
		next.Variant = v
	case FieldPrecision:
		n, err := strconv.Atoi(value)
		if err != nil {
			return paramErr(name, value, ErrInvalidValue)
		}
		next.Precision = n
	case FieldSmooth:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return paramErr(name, value, ErrInvalidValue)
		}
		next.Smooth = b
	case FieldOrder:
		n, err := strconv.Atoi(value)
		if err != nil {
			return paramErr(name, value, ErrInvalidValue)
		}
		next.Order = n
	case FieldReal, FieldImaginary, FieldLightness:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return paramErr(name, value, ErrInvalidValue)
		}
		switch name {
		case FieldReal:
			next.Real = f
		case FieldImaginary:
			next.Imaginary = f
		default:
			next.Lightness = f
		}
	case FieldColorization:
		c, err := ParseColorization(value)
		if err != nil {
			return err
		}
		next.Colorization = c
	default:
		return paramErr(name, value, ErrUnknownField)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*o = next
	return nil
}

// Get formats the named field the way Set accepts it.
func (o Options) Get(name string) (string, error) {
	switch name {
	case FieldVariant:
		return o.Variant.String(), nil
	case FieldPrecision:
		return strconv.Itoa(o.Precision), nil
	case FieldSmooth:
		return strconv.FormatBool(o.Smooth), nil
	case FieldOrder:
		return strconv.Itoa(o.Order), nil
	case FieldReal:
		return strconv.FormatFloat(o.Real, 'g', -1, 64), nil
	case FieldImaginary:
		return strconv.FormatFloat(o.Imaginary, 'g', -1, 64), nil
	case FieldLightness:
		return strconv.FormatFloat(o.Lightness, 'g', -1, 64), nil
	case FieldColorization:
		return o.Colorization.String(), nil
	}
	return "", paramErr(name, "", ErrUnknownField)
}

func (o Options) String() string {
	var sb strings.Builder
	for i, name := range OptionFields {
		if i > 0 {
			sb.WriteByte(' ')
		}
		v, _ := o.Get(name)
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(v)
	}
	return sb.String()
}
