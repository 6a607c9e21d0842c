package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered QR image edge length in pixels
const DefaultSize = 256

// DataURI renders text as a QR code PNG and returns it as a base64
// data URI suitable for direct embedding or storage on the link row.
func DataURI(text string, size int) (string, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
