package imagecache

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ErrNotImage is returned when a payload cannot be decoded as a supported image.
var ErrNotImage = errors.New("payload is not a supported image")

// Image is a validated logo payload.
type Image struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// Size is the cost of the image in the byte-budgeted store.
func (i Image) Size() int64 { return int64(len(i.Data)) }

// ContentType maps Format to a MIME type.
func (i Image) ContentType() string {
	switch i.Format {
	case "png":
		return "image/png"
	case "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

// Decode validates data by reading its image header.
func Decode(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty payload", ErrNotImage)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return Image{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
