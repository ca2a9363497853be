package png

import (
	"os"

	"github.com/go-faster/errors"
	"github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length in pixels of generated QR images.
const DefaultSize = 300

func Qr(content string) ([]byte, error) {
	return QrSize(content, DefaultSize)
}

func QrSize(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, errors.New("qr content is empty")
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}

// WriteQr saves the QR image of content to path.
func WriteQr(path, content string) error {
	data, err := Qr(content)
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write qr image")
}
