// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

// Package media stores uploaded images on local disk.
//
// Clients send images inline as base64 data URIs. Store decodes them, checks
// that the bytes really are an image of a supported format whose header
// stays under the pixel limit, downscales images
// whose longest side exceeds the configured limit, and writes the result to
//
//	<root>/<kind>/<uuid>.<ext>
//
// The returned URL is <url_prefix>/<kind>/<uuid>.<ext>, which the HTTP router
// serves from the same directory.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/tomtom215/larder/internal/config"
	"github.com/tomtom215/larder/internal/logging"
	"github.com/tomtom215/larder/internal/metrics"
)

// Upload kinds. Each maps to a subdirectory of the media root.
const (
	KindRecipes = "recipes"
	KindAvatars = "avatars"
)

var (
	// ErrInvalidImage means the data URI is malformed or its payload does
	// not decode as an image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrUnsupportedFormat means the image decoded but is not png, jpeg or gif.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrTooLarge means the decoded payload exceeds max_upload_bytes, or the
	// header claims more than max_pixels pixels.
	ErrTooLarge = errors.New("image too large")
)

var dataURIPattern = regexp.MustCompile(`^data:image/([a-zA-Z]+);base64,(.+)$`)

// formats maps the name reported by image.DecodeConfig to the encoder and
// file extension used on disk.
var formats = map[string]struct {
	format imaging.Format
	ext    string
}{
	"png":  {imaging.PNG, "png"},
	"jpeg": {imaging.JPEG, "jpg"},
	"gif":  {imaging.GIF, "gif"},
}

// Store writes images below a root directory.
type Store struct {
	root         string
	urlPrefix    string
	maxDimension int
	maxBytes     int64
	maxPixels    int64
}

// NewStore creates the root directory if needed.
func NewStore(cfg *config.MediaConfig) (*Store, error) {
	if cfg.Root == "" {
		return nil, errors.New("media root is required")
	}
	if err := os.MkdirAll(cfg.Root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	prefix := "/" + strings.Trim(cfg.URLPrefix, "/")
	if prefix == "/" {
		prefix = "/media"
	}
	return &Store{
		root:         cfg.Root,
		urlPrefix:    prefix,
		maxDimension: cfg.MaxDimension,
		maxBytes:     cfg.MaxUploadBytes,
		maxPixels:    cfg.MaxPixels,
	}, nil
}

// Root returns the directory served under URLPrefix.
func (s *Store) Root() string { return s.root }

// URLPrefix returns the URL path images are served from, without a
// trailing slash.
func (s *Store) URLPrefix() string { return s.urlPrefix }

// SaveDataURI decodes dataURI and stores it under kind. It returns the public
// URL of the stored file.
func (s *Store) SaveDataURI(kind, dataURI string) (url string, err error) {
	defer func() { metrics.RecordMediaUpload(kind, err) }()

	raw, err := s.decodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	cfg, formatName, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	out, ok := formats[formatName]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, formatName)
	}
	// Decoding allocates the full bitmap, so the header is checked first.
	if s.tooManyPixels(cfg.Width, cfg.Height) {
		return "", fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, cfg.Width, cfg.Height)
	}

	name := uuid.New().String() + "." + out.ext
	dir := filepath.Join(s.root, kind)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	dest := filepath.Join(dir, name)

	if s.needsResize(cfg.Width, cfg.Height) {
		err = s.writeResized(dest, raw, out.format)
	} else {
		err = os.WriteFile(dest, raw, 0o640)
	}
	if err != nil {
		_ = os.Remove(dest)
		return "", err
	}

	url = path.Join(s.urlPrefix, kind, name)
	logging.Debug().Str("kind", kind).Str("url", url).Msg("Stored image")
	return url, nil
}

func (s *Store) decodeDataURI(dataURI string) ([]byte, error) {
	m := dataURIPattern.FindStringSubmatch(dataURI)
	if m == nil {
		return nil, fmt.Errorf("%w: not a base64 image data URI", ErrInvalidImage)
	}
	switch strings.ToLower(m[1]) {
	case "png", "jpeg", "jpg", "gif":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, m[1])
	}
	if s.maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(m[2]))) > s.maxBytes+2 {
		return nil, ErrTooLarge
	}
	raw, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if s.maxBytes > 0 && int64(len(raw)) > s.maxBytes {
		return nil, ErrTooLarge
	}
	return raw, nil
}

func (s *Store) tooManyPixels(width, height int) bool {
	return s.maxPixels > 0 && int64(width)*int64(height) > s.maxPixels
}

func (s *Store) needsResize(width, height int) bool {
	return s.maxDimension > 0 && (width > s.maxDimension || height > s.maxDimension)
}

func (s *Store) writeResized(dest string, raw []byte, format imaging.Format) error {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	fitted := imaging.Fit(img, s.maxDimension, s.maxDimension, imaging.Lanczos)

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	if err := imaging.Encode(f, fitted, format); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return nil
}

// Delete removes the file behind a URL returned by SaveDataURI. It is best
// effort: unknown URLs and missing files are ignored and failures are logged.
func (s *Store) Delete(url string) {
	p, ok := s.pathFor(url)
	if !ok {
		return
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Str("url", url).Msg("Failed to delete media file")
	}
}

// pathFor maps a media URL back to a file under root. URLs outside the
// prefix or escaping the root are rejected.
func (s *Store) pathFor(url string) (string, bool) {
	rel, ok := strings.CutPrefix(url, s.urlPrefix+"/")
	if !ok || rel == "" || strings.Contains(rel, "..") {
		return "", false
	}
	clean := path.Clean("/" + rel)
	if clean == "/" {
		return "", false
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), true
}
