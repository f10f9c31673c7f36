package frustal

import (
	"image/color"
	"math"
)

var opaqueBlack = color.RGBA{A: 255}

func clampByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

func rgbF(r, g, b float64) color.RGBA {
	return color.RGBA{R: clampByte(r), G: clampByte(g), B: clampByte(b), A: 255}
}

// hsl converts hue in degrees, saturation and lightness in [0, 1].
func hsl(h, s, l float64) color.RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch int(h / 60) {
	case 0:
		r, g, b = c, x, 0
	case 1:
		r, g, b = x, c, 0
	case 2:
		r, g, b = 0, c, x
	case 3:
		r, g, b = 0, x, c
	case 4:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return rgbF((r+m)*255, (g+m)*255, (b+m)*255)
}

var channelHue = map[channel]float64{
	channelAll:     0,
	channelRed:     0,
	channelYellow:  60,
	channelGreen:   120,
	channelCyan:    180,
	channelBlue:    240,
	channelMagenta: 300,
}

// channelStep orders the Newton root channels for black and white shading.
var channelStep = map[channel]float64{
	channelAll:     0,
	channelRed:     0,
	channelYellow:  1,
	channelGreen:   2,
	channelCyan:    3,
	channelBlue:    4,
	channelMagenta: 5,
}

// colorize maps an iteration result to a pixel. Orbits that never escape
// are black.
func colorize(it iterations, ok bool, o *Options) color.RGBA {
	if !ok {
		return opaqueBlack
	}
	n := it.n
	if math.IsNaN(n) || math.IsInf(n, 0) {
		n = 0
	}
	precision := float64(o.Precision)

	switch o.Colorization {
	case RelativeBnW:
		inc := 255.0 / 6
		var sn float64
		if it.ch == channelAll {
			sn = 255 * n / precision * o.Lightness
		} else {
			sn = inc * (1 - n/precision) * o.Lightness
		}
		v := sn + inc*channelStep[it.ch]
		return rgbF(v, v, v)

	case AbsoluteHSL, AbsoluteLogHSL:
		hue := channelHue[it.ch]
		threshold := o.Lightness * 10
		if n <= threshold {
			return hsl(hue, 1, 0.5*n/threshold)
		}
		if o.Colorization == AbsoluteHSL {
			return hsl(hue+(n-threshold), 1, 0.5)
		}
		return hsl(hue+math.Log(1+n-threshold)*10, 1, 0.5)

	default:
		var sn float64
		if it.ch == channelAll {
			sn = 3 * 255 * n / precision * o.Lightness
		} else {
			sn = 255 * (1 - n/precision) * o.Lightness
		}
		switch it.ch {
		case channelRed:
			return rgbF(sn, 0, 0)
		case channelYellow:
			return rgbF(sn, sn, 0)
		case channelGreen:
			return rgbF(0, sn, 0)
		case channelCyan:
			return rgbF(0, sn, sn)
		case channelBlue:
			return rgbF(0, 0, sn)
		case channelMagenta:
			return rgbF(sn, 0, sn)
		}
		return rgbF(sn, sn-255, sn-2*255)
	}
}
