package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math/rand"
)

func fill(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rnd := rand.New(rand.NewSource(int64(w*h + 1)))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(rnd.Intn(256)), G: uint8(rnd.Intn(256)), B: uint8(rnd.Intn(256)), A: 255})
		}
	}
	return img
}

// MakeJPEG encodes a noisy w x h JPEG.
func MakeJPEG(w, h int) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fill(w, h), &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// MakePNG encodes a noisy w x h PNG.
func MakePNG(w, h int) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, fill(w, h)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// MakeGIF encodes a w x h GIF.
func MakeGIF(w, h int) []byte {
	var buf bytes.Buffer
	if err := gif.Encode(&buf, fill(w, h), nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
