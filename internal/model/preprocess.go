package model

import (
	"image"
	"image/draw"

	"github.com/nfnt/resize"
)

// Preprocess converts an image to the CHW float32 tensor the model expects.
// With ResizeShortestEdge set the image keeps its aspect ratio and is centre
// cropped to ImageSize, otherwise it is squashed straight to ImageSize.
// The shortest-edge path crops the central square before resizing, so the
// intermediate image is never larger than ResizeShortestEdge squared.
func Preprocess(img image.Image, meta Metadata) []float32 {
	size := meta.ImageSize

	var resized image.Image
	if edge := uint(meta.ResizeShortestEdge); edge > 0 {
		resized = resize.Resize(edge, edge, centreSquare(img), resize.Lanczos3)
	} else {
		resized = resize.Resize(uint(size), uint(size), img, resize.Lanczos3)
	}

	bounds := resized.Bounds()
	offX := bounds.Min.X + (bounds.Dx()-size)/2
	offY := bounds.Min.Y + (bounds.Dy()-size)/2

	plane := size * size
	inputData := make([]float32, 3*plane)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := resized.At(offX+x, offY+y).RGBA()

			pixelIndex := y*size + x
			inputData[pixelIndex] = normalise(r, meta.Mean[0], meta.Std[0])
			inputData[plane+pixelIndex] = normalise(g, meta.Mean[1], meta.Std[1])
			inputData[2*plane+pixelIndex] = normalise(b, meta.Mean[2], meta.Std[2])
		}
	}

	return inputData
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func centreSquare(img image.Image) image.Image {
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	if b.Dx() == b.Dy() {
		return img
	}

	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	r := image.Rect(x0, y0, x0+side, y0+side)
	if s, ok := img.(subImager); ok {
		return s.SubImage(r)
	}

	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}

func normalise(v uint32, mean, std float32) float32 {
	return (float32(v)/65535.0 - mean) / std
}
