// Package capture turns raw viewport screenshots into stored area images.
// Agents ship the full visible viewport; the hub clips it to the committed
// selection before persisting.
package capture

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"

	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

const pngPrefix = "data:image/png;base64,"

// EncodeDataURL wraps an encoded PNG in a data URL.
func EncodeDataURL(pngData []byte) string {
	return pngPrefix + base64.StdEncoding.EncodeToString(pngData)
}

// DecodeDataURL extracts the PNG bytes from a data URL.
func DecodeDataURL(dataURL string) ([]byte, error) {
	rest, ok := strings.CutPrefix(dataURL, pngPrefix)
	if !ok {
		return nil, errors.New("not a png data url")
	}
	raw, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return raw, nil
}

// Crop clips a viewport screenshot to the selected region. rect is in CSS
// pixels; dpr converts it into screenshot pixels. The region is clamped to
// the image bounds, and a region entirely outside them is an error.
func Crop(pngData []byte, rect wire.Rect, dpr float64) ([]byte, error) {
	if rect.Empty() {
		return nil, errors.New("empty selection")
	}

	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}

	scaled := rect.Scale(dpr)
	region := image.Rect(scaled.X, scaled.Y, scaled.X+scaled.Width, scaled.Y+scaled.Height)
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return nil, errors.New("selection outside the screenshot")
	}

	out := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(out, out.Bounds(), img, region.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode crop: %w", err)
	}
	return buf.Bytes(), nil
}

// CropDataURL is Crop for data-URL screenshots, returning a data URL.
func CropDataURL(dataURL string, rect wire.Rect, dpr float64) (string, error) {
	raw, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	cropped, err := Crop(raw, rect, dpr)
	if err != nil {
		return "", err
	}
	return EncodeDataURL(cropped), nil
}
