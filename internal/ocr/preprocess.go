package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"
)

// adjustImage applies contrast and brightness adjustments and re-encodes
// the result as PNG. Both values are clamped to [-100, 100].
func adjustImage(data []byte, pre *Preprocessing) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var contrast, brightness float64
	if pre.Contrast != nil {
		contrast = clamp(*pre.Contrast, -100, 100)
	}
	if pre.Brightness != nil {
		brightness = clamp(*pre.Brightness, -100, 100)
	}

	// Standard contrast correction factor over the 0-255 range; the
	// [-100,100] knob is scaled to the [-255,255] domain it expects.
	c := contrast * 2.55
	factor := (259 * (c + 255)) / (255 * (259 - c))
	offset := brightness * 255 / 100

	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := src.At(x, y).RGBA()
			dst.SetRGBA(x, y, color.RGBA{
				R: adjustChannel(r, factor, offset),
				G: adjustChannel(g, factor, offset),
				B: adjustChannel(b, factor, offset),
				A: uint8(a >> 8),
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func adjustChannel(v uint32, factor, offset float64) uint8 {
	in := float64(v >> 8)
	out := factor*(in-128) + 128 + offset
	return uint8(clamp(out, 0, 255))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
