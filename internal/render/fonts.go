package render

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// faceSet holds the faces the renderer draws with, sized for the arena.
type faceSet struct {
	label   font.Face // orb names, HUD tags
	glyph   font.Face // fallback logo initials
	overlay font.Face // scripted text overlays
	banner  font.Face // match result
}

// newFaceSet builds faces from the embedded Go fonts, scaled so text keeps
// its proportion on arenas narrower or wider than 1080.
func newFaceSet(scale float64) (*faceSet, error) {
	if scale <= 0 {
		scale = 1
	}
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}

	mk := func(ft *opentype.Font, size float64) (font.Face, error) {
		return opentype.NewFace(ft, &opentype.FaceOptions{
			Size:    size * scale,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	}

	fs := &faceSet{}
	if fs.label, err = mk(regular, 34); err != nil {
		return nil, err
	}
	if fs.glyph, err = mk(bold, 64); err != nil {
		return nil, err
	}
	if fs.overlay, err = mk(bold, 110); err != nil {
		return nil, err
	}
	if fs.banner, err = mk(bold, 92); err != nil {
		return nil, err
	}
	return fs, nil
}
