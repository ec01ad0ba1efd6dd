// Package validation provides input validation utilities
package validation

import (
	"errors"
	"path/filepath"
	"strings"
)

// MaxImageBytes is the largest accepted image upload (2 MiB).
const MaxImageBytes int64 = 2 * 1024 * 1024

// AllowedImageExtensions lists accepted image file extensions, lower-cased.
var AllowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

var (
	// ErrImageTooLarge is reported when an upload exceeds MaxImageBytes.
	ErrImageTooLarge = errors.New("image exceeds 2 MiB")
	// ErrUnsupportedImageFormat is reported for extensions outside AllowedImageExtensions.
	ErrUnsupportedImageFormat = errors.New("image format must be jpg, jpeg, png or bmp")
)

// File is the view of an upload the validator needs.
type File interface {
	Name() string
	Size() int64
}

// ValidateImage checks size and extension independently and returns every
// failure joined, or nil. Use errors.Is to inspect the result.
func ValidateImage(f File) error {
	var errs []error
	if f.Size() > MaxImageBytes {
		errs = append(errs, ErrImageTooLarge)
	}
	if !IsAllowedImageExtension(f.Name()) {
		errs = append(errs, ErrUnsupportedImageFormat)
	}
	return errors.Join(errs...)
}

// IsAllowedImageExtension reports whether filename carries an accepted extension.
func IsAllowedImageExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedImageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
