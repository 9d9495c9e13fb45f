package service

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"
)

const (
	maxImageDimension = 1920
	jpegQuality       = 85
)

// NormalizedImage is the result of re-encoding an upload for storage.
type NormalizedImage struct {
	Data           []byte
	Width          int
	Height         int
	OriginalSize   int
	CompressedSize int
}

type ImageService interface {
	Normalize(data []byte) (*NormalizedImage, error)
}

type imageService struct{}

func NewImageService() ImageService {
	return &imageService{}
}

// Normalize decodes the uploaded bytes, scales the longer side down to
// 1920px when needed and re-encodes as JPEG at quality 85. EXIF rotation is
// applied during decode so the stored pixels carry the final orientation.
func (s *imageService) Normalize(data []byte) (*NormalizedImage, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxImageDimension || bounds.Dy() > maxImageDimension {
		img = imaging.Fit(img, maxImageDimension, maxImageDimension, imaging.Lanczos)
		bounds = img.Bounds()
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &NormalizedImage{
		Data:           buf.Bytes(),
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
		OriginalSize:   len(data),
		CompressedSize: buf.Len(),
	}, nil
}
