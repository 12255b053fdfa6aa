package imagepkg

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	LabelWidth    = 500
	LabelHeight   = 100
	LabelFontSize = 40
)

// renderLabel draws text in black onto a transparent LabelWidth x LabelHeight
// layer, vertically centred. Text wider than the layer is clipped.
func renderLabel(f *opentype.Font, text string) (*image.NRGBA, error) {
	// faces keep glyph buffers, so one is built per call
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    LabelFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	defer face.Close()

	layer := image.NewNRGBA(image.Rect(0, 0, LabelWidth, LabelHeight))
	m := face.Metrics()
	baseline := (LabelHeight + m.Ascent.Ceil() - m.Descent.Ceil()) / 2

	d := font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(0, baseline),
	}
	d.DrawString(text)
	return layer, nil
}
