package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

// Logo cache shared across renderers, so preview and export in one process
// decode each file once.
var (
	logoMu    sync.RWMutex
	logoCache = make(map[string]image.Image)
)

// logoDisc loads a logo, scales it to the orb diameter, and clips it to a
// circle.
func logoDisc(path string, diameter int) (image.Image, error) {
	key := fmt.Sprintf("%s@%d", path, diameter)
	logoMu.RLock()
	if img, ok := logoCache[key]; ok {
		logoMu.RUnlock()
		return img, nil
	}
	logoMu.RUnlock()

	src, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	src = imaging.Fill(src, diameter, diameter, imaging.Center, imaging.Lanczos)

	dc := gg.NewContext(diameter, diameter)
	half := float64(diameter) / 2
	dc.DrawCircle(half, half, half)
	dc.Clip()
	dc.DrawImage(src, 0, 0)
	disc := dc.Image()

	logoMu.Lock()
	logoCache[key] = disc
	logoMu.Unlock()
	return disc, nil
}

// letterDisc renders a fallback disc with the orb's initial when no logo is
// available.
func letterDisc(initial string, diameter int, fill color.RGBA, face font.Face) image.Image {
	dc := gg.NewContext(diameter, diameter)
	half := float64(diameter) / 2
	dc.SetColor(fill)
	dc.DrawCircle(half, half, half)
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	dc.SetFontFace(face)
	dc.DrawStringAnchored(initial, half, half, 0.5, 0.5)
	return dc.Image()
}

// hueColor converts a hue in degrees to the vivid tone used for rings,
// particles, and banners.
func hueColor(hue float64) color.RGBA {
	return hslColor(hue, 0.75, 0.55)
}

func hslColor(h, s, l float64) color.RGBA {
	h = math.Mod(math.Mod(h, 360)+360, 360) / 360
	var r, g, b float64
	if s == 0 {
		r, g, b = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		r = hueChannel(p, q, h+1.0/3)
		g = hueChannel(p, q, h)
		b = hueChannel(p, q, h-1.0/3)
	}
	return color.RGBA{
		R: uint8(r*255 + 0.5),
		G: uint8(g*255 + 0.5),
		B: uint8(b*255 + 0.5),
		A: 255,
	}
}

func hueChannel(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}
