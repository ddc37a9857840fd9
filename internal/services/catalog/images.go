package catalog

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"

	"github.com/1020robert/delph-merch/internal/apperr"
)

// acceptedFormats maps decodable image formats to the extension uploads are
// stored under.
var acceptedFormats = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
}

// saveImage validates an uploaded image and writes it under a generated
// name, returning the path it will be served from. The original filename
// only ever influences logging; the stored name comes from us.
func (s *Service) saveImage(filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.Validation("an item image is required")
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(data)) > s.cfg.MaxUploadBytes {
		return "", apperr.Validation("image exceeds the %dMB upload limit", s.cfg.MaxUploadBytes>>20)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", apperr.Validation("image must be a valid PNG, JPEG, or GIF")
	}
	ext, ok := acceptedFormats[format]
	if !ok {
		return "", apperr.Validation("image format %s is not supported", format)
	}

	name := uuid.New().String() + ext
	path, err := s.store.SaveUpload(name, data)
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	s.log.Debug().Str("upload", filename).Str("stored", path).Msg("image stored")
	return path, nil
}
