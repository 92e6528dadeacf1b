package audit

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxImageBytes bounds a single audit upload.
const MaxImageBytes = 10 << 20

// Image is the one visual payload an audit call carries.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Present reports whether an image has actually been chosen.
func (img *Image) Present() bool {
	return img != nil && len(img.Data) > 0
}

// NewImage builds an Image from bytes, sniffing the content type when it is
// not given.
func NewImage(filename, contentType string, data []byte) Image {
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data)
	}
	return Image{Filename: filepath.Base(filename), ContentType: contentType, Data: data}
}

// LoadImage reads an image file from disk.
func LoadImage(path string) (Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Image{}, fmt.Errorf("load image: %w", err)
	}
	if info.IsDir() {
		return Image{}, fmt.Errorf("load image: %s is a directory", path)
	}
	if info.Size() > MaxImageBytes {
		return Image{}, fmt.Errorf("load image: %s is %d bytes, limit is %d", path, info.Size(), MaxImageBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("load image: %w", err)
	}
	img := NewImage(path, "", data)
	if err := img.validate(); err != nil {
		return Image{}, fmt.Errorf("load image: %w", err)
	}
	return img, nil
}

func (img Image) validate() error {
	if len(img.Data) == 0 {
		return fmt.Errorf("image is empty")
	}
	if len(img.Data) > MaxImageBytes {
		return fmt.Errorf("image is %d bytes, limit is %d", len(img.Data), MaxImageBytes)
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return fmt.Errorf("%s is %s, not an image", img.Filename, img.ContentType)
	}
	return nil
}
