package artifacts

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSizePx = 256

// QRPNG encodes text as a QR PNG in memory, for serving over HTTP.
func QRPNG(text string, size int) ([]byte, error) {
	png, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// writeQR encodes text into a QR PNG at path. The payload is encoded as
// given; callers normalize URLs first.
func writeQR(text, path string) error {
	if err := qrcode.WriteFile(text, qrcode.Medium, qrSizePx, path); err != nil {
		return fmt.Errorf("write qr %s: %w", path, err)
	}
	return nil
}
