package storage

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
)

// ImageProcessor produces bounded JPEG thumbnails.
type ImageProcessor struct {
	maxWidth  int
	maxHeight int
	quality   int
}

func NewImageProcessor(maxWidth, maxHeight int) *ImageProcessor {
	return &ImageProcessor{
		maxWidth:  maxWidth,
		maxHeight: maxHeight,
		quality:   80,
	}
}

// Thumbnail decodes content and returns it scaled to fit the processor's bounding box, as JPEG.
func (p *ImageProcessor) Thumbnail(content io.Reader) (io.Reader, error) {
	img, _, err := image.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	thumbnail := imaging.Fit(img, p.maxWidth, p.maxHeight, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, thumbnail, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf, nil
}
