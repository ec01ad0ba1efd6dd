package service

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageUpload is an image handed over by the delivery layer. It satisfies
// validation.File.
type ImageUpload struct {
	Filename    string
	Length      int64
	ContentType string
	Body        io.Reader
}

func (u *ImageUpload) Name() string { return u.Filename }
func (u *ImageUpload) Size() int64  { return u.Length }

const (
	requestImagePrefix = "request_images"
	designImagePrefix  = "design_images"
)

// newBlobKey returns a collision-free key under prefix that keeps the
// upload's extension.
func newBlobKey(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), ext)
}
