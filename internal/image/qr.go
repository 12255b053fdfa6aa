package imagepkg

import (
	"bytes"
	"errors"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	MinQRSize     = 64
	MaxQRSize     = 1024
	DefaultQRSize = 256
)

// GenerateQRPNG returns PNG bytes of a QR code for the given text, typically
// a published poster URL. size is clamped to [MinQRSize, MaxQRSize].
func GenerateQRPNG(text string, size int) ([]byte, error) {
	if text == "" {
		return nil, errors.New("qr text is empty")
	}
	size = min(max(size, MinQRSize), MaxQRSize)

	pngBytes, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, err
	}
	// validate png decode
	if _, err := png.Decode(bytes.NewReader(pngBytes)); err != nil {
		return nil, err
	}
	return pngBytes, nil
}
