package calendar

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// QRSize is the edge length of generated QR codes, in pixels.
const QRSize = 256

// QRCode encodes link as a PNG QR code.
func QRCode(link string) ([]byte, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, QRSize)
	if err != nil {
		return nil, fmt.Errorf("encoding qr code: %w", err)
	}
	return png, nil
}
