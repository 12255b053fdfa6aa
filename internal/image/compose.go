package imagepkg

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Poster geometry. The photo box is fixed; aspect ratio is not preserved.
const (
	PhotoSize = 335
	PhotoLeft = 70
	PhotoTop  = 165

	LabelLeft = 450
	LabelTop  = 300
)

// LabelMode selects when a name label is drawn onto the poster.
type LabelMode string

const (
	LabelOff      LabelMode = "off"
	LabelOptional LabelMode = "optional"
	LabelAlways   LabelMode = "always"
)

type Options struct {
	TemplatePath string
	// FontPath is a TTF/OTF file; empty uses Go Regular.
	FontPath string
	Mode     LabelMode
	// Placeholder is drawn instead of a blank name in LabelAlways mode.
	Placeholder string
}

// Compositor renders posters from an uploaded photo and the template asset.
// It holds no per-request state and is safe for concurrent use.
type Compositor struct {
	templatePath string
	mode         LabelMode
	placeholder  string
	font         *opentype.Font
}

func NewCompositor(opts Options) (*Compositor, error) {
	ttf := goregular.TTF
	if opts.FontPath != "" {
		b, err := os.ReadFile(opts.FontPath)
		if err != nil {
			return nil, fmt.Errorf("read font %s: %w", opts.FontPath, err)
		}
		ttf = b
	}
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	mode := opts.Mode
	if mode == "" {
		mode = LabelOptional
	}
	return &Compositor{
		templatePath: opts.TemplatePath,
		mode:         mode,
		placeholder:  opts.Placeholder,
		font:         f,
	}, nil
}

// Mode reports which label variant this compositor renders.
func (c *Compositor) Mode() LabelMode {
	return c.mode
}

// Compose resizes photo to the fixed box, pastes it onto the template and
// optionally draws the name label. The result is JPEG encoded.
func (c *Compositor) Compose(photo []byte, name string) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(photo), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode photo: %v", ErrImageProcessing, err)
	}
	overlay := imaging.Resize(src, PhotoSize, PhotoSize, imaging.Lanczos)

	tmpl, err := imaging.Open(c.templatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open template: %v", ErrImageProcessing, err)
	}

	canvas := imaging.Paste(tmpl, overlay, image.Pt(PhotoLeft, PhotoTop))

	if text, ok := c.labelText(name); ok {
		label, err := renderLabel(c.font, text)
		if err != nil {
			return nil, fmt.Errorf("%w: render label: %v", ErrImageProcessing, err)
		}
		canvas = imaging.Overlay(canvas, label, image.Pt(LabelLeft, LabelTop), 1.0)
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, canvas, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("%w: encode jpeg: %v", ErrImageProcessing, err)
	}
	return buf.Bytes(), nil
}

func (c *Compositor) labelText(name string) (string, bool) {
	name = strings.TrimSpace(name)
	switch c.mode {
	case LabelAlways:
		if name == "" {
			return c.placeholder, c.placeholder != ""
		}
		return name, true
	case LabelOptional:
		return name, name != ""
	default:
		return "", false
	}
}
