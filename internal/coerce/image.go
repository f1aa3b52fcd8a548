package coerce

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
)

// decodeImage accepts a std-base64 payload, optionally carrying a data URI
// prefix (data:image/png;base64,...), and fits the result to the declared
// bounds when the field constrains them.
func decodeImage(name string, field Field, wire string) (image.Image, error) {
	payload := wire
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, ErrInvalidInput(name, "malformed data URI")
		}
		payload = payload[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidInput(name, "not valid base64")
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, ErrInvalidInput(name, "not a decodable image")
	}
	if field.Width > 0 && field.Height > 0 {
		img = imaging.Fit(img, field.Width, field.Height, imaging.Lanczos)
	}
	return img, nil
}

// encodeImage emits std-base64 PNG regardless of the source format, so the
// wire encoding stays deterministic.
func encodeImage(name string, domain any) (string, error) {
	img, ok := domain.(image.Image)
	if !ok {
		return "", ErrSerialization(name, "expected image.Image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", ErrSerialization(name, "png encode: "+err.Error())
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
