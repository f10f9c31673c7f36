package frustal

import (
	"math"
)

// channel tags which Newton root an orbit converged to. Escape-time
// variants always report channelAll.
type channel int

const (
	channelAll channel = iota
	channelRed
	channelYellow
	channelGreen
	channelCyan
	channelBlue
	channelMagenta
)

// iterations is the (possibly smoothed) iteration count at which an orbit
// escaped or converged.
type iterations struct {
	n  float64
	ch channel
}

// escapeFunc returns false when the orbit neither escaped nor converged
// within the precision budget.
type escapeFunc func(c complex128, o *Options) (iterations, bool)

func powi(z complex128, n int) complex128 {
	result := complex(1, 0)
	for n > 0 {
		if n&1 == 1 {
			result *= z
		}
		z *= z
		n >>= 1
	}
	return result
}

func normSqr(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}

func norm(z complex128) float64 {
	return math.Sqrt(normSqr(z))
}

// escapeSmoothing returns ln(ln|z| / B) / ln d with B = max(|c|, 2^(1/(d-1))).
func escapeSmoothing(mod2 float64, c complex128, order int) float64 {
	d := float64(order)
	bound := math.Max(norm(c), math.Pow(2, 1/(d-1)))
	return math.Log((math.Log(mod2)/2)/bound) / math.Log(d)
}

func inMainCardioid(x, y float64) bool {
	p := math.Sqrt((x-0.25)*(x-0.25) + y*y)
	if x < p-2*p*p+0.25 {
		return true
	}
	return (x+1)*(x+1)+y*y < 1.0/16
}

// escapeTime iterates z -> step(z)^d + c from z0 until |z| > 2.
func escapeTime(z, c complex128, o *Options, step func(complex128) complex128) (iterations, bool) {
	for i := 0; i < o.Precision; i++ {
		z = step(z) + c
		mod2 := normSqr(z)
		if mod2 > 4 {
			n := float64(i)
			if o.Smooth {
				n -= escapeSmoothing(mod2, c, o.Order)
			}
			return iterations{n: n}, true
		}
	}
	return iterations{}, false
}

func mandelbrot(c complex128, o *Options) (iterations, bool) {
	if o.Order == 2 {
		if inMainCardioid(real(c), imag(c)) {
			return iterations{}, false
		}
		return escapeTime(0, c, o, func(z complex128) complex128 { return z * z })
	}
	return escapeTime(0, c, o, func(z complex128) complex128 { return powi(z, o.Order) })
}

func mandelbar(c complex128, o *Options) (iterations, bool) {
	return escapeTime(0, c, o, func(z complex128) complex128 {
		return powi(complex(real(z), -imag(z)), o.Order)
	})
}

func burningShip(c complex128, o *Options) (iterations, bool) {
	// |Im| keeps the ship upright in a y-up plane
	return escapeTime(0, c, o, func(z complex128) complex128 {
		return powi(complex(math.Abs(real(z)), math.Abs(imag(z))), o.Order)
	})
}

func julia(z complex128, o *Options) (iterations, bool) {
	c := complex(o.Real, o.Imaginary)
	for i := 0; i < o.Precision; i++ {
		z = powi(z, o.Order) + c
		mod2 := normSqr(z)
		if mod2 > 4 {
			n := float64(i)
			if o.Smooth {
				n -= math.Log(math.Log(mod2)) * 1.25
			}
			return iterations{n: n}, true
		}
	}
	return iterations{}, false
}

type root struct {
	z  complex128
	ch channel
}

type polynomial struct {
	p     func(complex128) complex128
	dp    func(complex128) complex128
	roots []root
}

const newtonEpsilon = 0.00001

var newtonPolynomials = map[Variant]polynomial{
	// z³ - 1
	Newton: {
		p:  func(z complex128) complex128 { return z*z*z - 1 },
		dp: func(z complex128) complex128 { return 3 * z * z },
		roots: []root{
			{complex(1, 0), channelRed},
			{complex(-0.5, math.Sqrt(3)/2), channelGreen},
			{complex(-0.5, -math.Sqrt(3)/2), channelBlue},
		},
	},
	// z³ - 2z + 2
	Newton2: {
		p:  func(z complex128) complex128 { return z*z*z - 2*z + 2 },
		dp: func(z complex128) complex128 { return 3*z*z - 4 },
		roots: []root{
			{complex(-1.7693, 0), channelCyan},
			{complex(0.88465, -0.58974), channelYellow},
			{complex(0.88465, 0.58974), channelMagenta},
		},
	},
	// z⁶ + z³ - 1
	Newton3: {
		p:  func(z complex128) complex128 { return powi(z, 6) + z*z*z - 1 },
		dp: func(z complex128) complex128 { return 6*powi(z, 5) + 3*z*z },
		roots: []root{
			{complex(0.58699, 1.01670), channelRed},
			{complex(0.85180, 0), channelYellow},
			{complex(0.58699, -1.01670), channelGreen},
			{complex(-0.42590, -0.73768), channelCyan},
			{complex(-1.1740, 0), channelBlue},
			{complex(-0.42590, 0.73768), channelMagenta},
		},
	},
	// z⁵ - 2
	Newton4: {
		p:  func(z complex128) complex128 { return powi(z, 5) - 2 },
		dp: func(z complex128) complex128 { return 5 * powi(z, 4) },
		roots: []root{
			{complex(-0.929316, -0.675188), channelRed},
			{complex(-0.929316, 0.675188), channelGreen},
			{complex(0.354967, -1.09248), channelCyan},
			{complex(0.354967, 1.09248), channelBlue},
			{complex(1.1487, 0), channelMagenta},
		},
	},
	// z³ - 1 + 1/z
	Newton5: {
		p:  func(z complex128) complex128 { return z*z*z - 1 + 1/z },
		dp: func(z complex128) complex128 { return (3*powi(z, 4) - 1) / (z * z) },
		roots: []root{
			{complex(-0.72714, -0.93410), channelRed},
			{complex(-0.72714, 0.93410), channelCyan},
			{complex(0.72714, -0.43001), channelMagenta},
			{complex(0.72714, 0.43001), channelBlue},
		},
	},
}

func newton(poly polynomial) escapeFunc {
	return func(z complex128, o *Options) (iterations, bool) {
		relax := complex(o.Real, o.Imaginary)
		for i := 0; i < o.Precision; i++ {
			last := z
			z -= relax * poly.p(z) / poly.dp(z)
			for _, r := range poly.roots {
				conv := normSqr(z - r.z)
				if conv < newtonEpsilon {
					n := float64(i)
					if o.Smooth {
						prev := math.Log(normSqr(last - r.z))
						n += (math.Log(newtonEpsilon) - prev) / (math.Log(conv) - prev)
					}
					return iterations{n: n, ch: r.ch}, true
				}
			}
		}
		return iterations{}, false
	}
}

func escapeFor(v Variant) escapeFunc {
	switch v {
	case Julia:
		return julia
	case Mandelbar:
		return mandelbar
	case BurningShip:
		return burningShip
	case Newton, Newton2, Newton3, Newton4, Newton5:
		return newton(newtonPolynomials[v])
	default:
		return mandelbrot
	}
}
