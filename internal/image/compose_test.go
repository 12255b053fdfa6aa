package imagepkg

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	templateW = 1000
	templateH = 1200
)

var (
	white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	red   = color.NRGBA{R: 0xff, A: 0xff}
	blue  = color.NRGBA{B: 0xff, A: 0xff}
)

func writeTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "poster_template.png")
	require.NoError(t, imaging.Save(imaging.New(templateW, templateH, white), path))
	return path
}

func solidJPEG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, imaging.Encode(buf, imaging.New(w, h, c), imaging.JPEG))
	return buf.Bytes()
}

func newCompositor(t *testing.T, mode LabelMode) *Compositor {
	t.Helper()
	c, err := NewCompositor(Options{
		TemplatePath: writeTemplate(t),
		Mode:         mode,
		Placeholder:  "Your Name",
	})
	require.NoError(t, err)
	return c
}

func decode(t *testing.T, b []byte) image.Image {
	t.Helper()
	_, format, err := image.DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)

	img, err := imaging.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	return img
}

func rgb(img image.Image, x, y int) (r, g, b uint8) {
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return c.R, c.G, c.B
}

// darkPixels counts near-black pixels inside rect.
func darkPixels(img image.Image, rect image.Rectangle) int {
	n := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r, g, b := rgb(img, x, y)
			if int(r)+int(g)+int(b) < 300 {
				n++
			}
		}
	}
	return n
}

func photoProbes() []image.Point {
	// keep probes inside 16px JPEG blocks that are fully covered
	const m = 12
	return []image.Point{
		{PhotoLeft + m, PhotoTop + m},
		{PhotoLeft + PhotoSize - m, PhotoTop + m},
		{PhotoLeft + m, PhotoTop + PhotoSize - m},
		{PhotoLeft + PhotoSize - m, PhotoTop + PhotoSize - m},
		{PhotoLeft + PhotoSize/2, PhotoTop + PhotoSize/2},
	}
}

func TestComposeKeepsTemplateDimensions(t *testing.T) {
	c := newCompositor(t, LabelOff)

	out, err := c.Compose(solidJPEG(t, 100, 100, red), "")
	require.NoError(t, err)

	img := decode(t, out)
	assert.Equal(t, templateW, img.Bounds().Dx())
	assert.Equal(t, templateH, img.Bounds().Dy())
}

func TestComposePlacesPhotoInFixedBox(t *testing.T) {
	c := newCompositor(t, LabelOff)

	out, err := c.Compose(solidJPEG(t, 100, 100, red), "")
	require.NoError(t, err)
	img := decode(t, out)

	for _, p := range photoProbes() {
		r, g, b := rgb(img, p.X, p.Y)
		assert.Greater(t, r, uint8(200), "red at %v", p)
		assert.Less(t, g, uint8(60), "green at %v", p)
		assert.Less(t, b, uint8(60), "blue at %v", p)
	}

	outside := []image.Point{
		{PhotoLeft - 10, PhotoTop - 10},
		{PhotoLeft + PhotoSize + 20, PhotoTop + PhotoSize/2},
		{PhotoLeft + PhotoSize/2, PhotoTop + PhotoSize + 20},
	}
	for _, p := range outside {
		r, g, b := rgb(img, p.X, p.Y)
		assert.Greater(t, r, uint8(230), "template at %v", p)
		assert.Greater(t, g, uint8(230), "template at %v", p)
		assert.Greater(t, b, uint8(230), "template at %v", p)
	}
}

func TestComposeIgnoresAspectRatio(t *testing.T) {
	c := newCompositor(t, LabelOff)

	for _, size := range [][2]int{{400, 100}, {60, 900}, {2000, 1500}} {
		out, err := c.Compose(solidJPEG(t, size[0], size[1], blue), "")
		require.NoError(t, err)
		img := decode(t, out)

		for _, p := range photoProbes() {
			r, _, b := rgb(img, p.X, p.Y)
			assert.Greater(t, b, uint8(200), "%v blue at %v", size, p)
			assert.Less(t, r, uint8(60), "%v red at %v", size, p)
		}
	}
}

func TestComposeLabelModes(t *testing.T) {
	labelRect := image.Rect(LabelLeft, LabelTop, LabelLeft+LabelWidth, LabelTop+LabelHeight)
	photo := solidJPEG(t, 100, 100, red)

	cases := []struct {
		mode LabelMode
		name string
		want bool
	}{
		{LabelOff, "Ada", false},
		{LabelOptional, "Ada", true},
		{LabelOptional, "   ", false},
		{LabelAlways, "Ada", true},
		{LabelAlways, "", true},
	}
	for _, tc := range cases {
		t.Run(string(tc.mode)+"/"+tc.name, func(t *testing.T) {
			c := newCompositor(t, tc.mode)

			out, err := c.Compose(photo, tc.name)
			require.NoError(t, err)

			dark := darkPixels(decode(t, out), labelRect)
			if tc.want {
				assert.Greater(t, dark, 100)
			} else {
				assert.Zero(t, dark)
			}
		})
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	c := newCompositor(t, LabelOptional)
	photo := solidJPEG(t, 100, 100, red)

	a, err := c.Compose(photo, "Ada")
	require.NoError(t, err)
	b, err := c.Compose(photo, "Ada")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestComposeRejectsUndecodablePhoto(t *testing.T) {
	c := newCompositor(t, LabelOff)

	_, err := c.Compose([]byte("definitely not an image"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrImageProcessing))
}

func TestComposeFailsWithoutTemplate(t *testing.T) {
	c, err := NewCompositor(Options{TemplatePath: filepath.Join(t.TempDir(), "missing.png")})
	require.NoError(t, err)

	_, err = c.Compose(solidJPEG(t, 10, 10, red), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImageProcessing)
}

func TestNewCompositorRejectsBadFont(t *testing.T) {
	_, err := NewCompositor(Options{FontPath: filepath.Join(t.TempDir(), "nope.ttf")})
	assert.Error(t, err)
}

func TestRenderLabelStaysTransparentOutsideGlyphs(t *testing.T) {
	c := newCompositor(t, LabelAlways)

	layer, err := renderLabel(c.font, "Ada")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, LabelWidth, LabelHeight), layer.Bounds())
	assert.Zero(t, layer.NRGBAAt(LabelWidth-1, LabelHeight-1).A)

	opaque := 0
	for i := 3; i < len(layer.Pix); i += 4 {
		if layer.Pix[i] > 0 {
			opaque++
		}
	}
	assert.Greater(t, opaque, 100)
}
