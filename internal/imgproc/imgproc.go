// Package imgproc handles the image legwork around the pipeline: decoding
// data URLs, best-effort recompression before upload, and thumbnail
// generation for the session store.
package imgproc

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"github.com/speedwarnsf/ZenSpace-sub000/internal/validate"
)

// Compression defaults.
const (
	// DefaultMaxEdge is the longest edge kept when recompressing uploads.
	DefaultMaxEdge = 1568
	// DefaultQuality is the JPEG quality for recompressed uploads.
	DefaultQuality = 80
	// ThumbnailBox is the bounding box thumbnails are scaled into.
	ThumbnailBox = 150
	// ThumbnailQuality is the JPEG quality for thumbnails.
	ThumbnailQuality = 70
)

// DecodeDataURL parses and decodes a base64 image data URL.
func DecodeDataURL(dataURL string) (image.Image, string, error) {
	parsed, res := validate.ParseDataURL(dataURL)
	if !res.Valid {
		return nil, "", fmt.Errorf("parse data url: %s", res.Error)
	}

	raw, err := base64.StdEncoding.DecodeString(parsed.Base64)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}

	img, err := decodeImage(raw, parsed.MimeType)
	if err != nil {
		return nil, "", err
	}
	return img, parsed.MimeType, nil
}

func decodeImage(raw []byte, mimeType string) (image.Image, error) {
	r := bytes.NewReader(raw)
	switch mimeType {
	case "image/jpeg":
		return jpeg.Decode(r)
	case "image/png":
		return png.Decode(r)
	case "image/gif":
		return gif.Decode(r)
	case "image/webp":
		return webp.Decode(r)
	}
	img, _, err := image.Decode(r)
	return img, err
}

// Dimensions reports the pixel size of an encoded data URL without
// keeping the decoded image around.
func Dimensions(dataURL string) (width, height int, err error) {
	img, _, err := DecodeDataURL(dataURL)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// EncodeJPEGDataURL re-encodes an image as a JPEG data URL.
func EncodeJPEGDataURL(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// scaleToFit returns img scaled so both edges fit within maxW x maxH,
// preserving aspect ratio. Images already inside the box pass through.
func scaleToFit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return img
	}

	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// CompressOptions tunes Compress. Zero values take the defaults.
type CompressOptions struct {
	MaxEdge int
	Quality int
}

// Compress downscales and recompresses an image data URL, best-effort:
// any failure, or a result no smaller than the input, returns the input
// unchanged with ok=false. It never errors — compression is an
// optimization, not a gate.
func Compress(dataURL string, opts CompressOptions) (out string, ok bool) {
	if opts.MaxEdge <= 0 {
		opts.MaxEdge = DefaultMaxEdge
	}
	if opts.Quality <= 0 {
		opts.Quality = DefaultQuality
	}

	img, _, err := DecodeDataURL(dataURL)
	if err != nil {
		return dataURL, false
	}

	scaled := scaleToFit(img, opts.MaxEdge, opts.MaxEdge)
	encoded, err := EncodeJPEGDataURL(scaled, opts.Quality)
	if err != nil || len(encoded) >= len(dataURL) {
		return dataURL, false
	}
	return encoded, true
}

// Thumbnail scales an image data URL into a box x box bound and
// re-encodes it at reduced quality for cheap listing display.
func Thumbnail(dataURL string, box, quality int) (string, error) {
	if box <= 0 {
		box = ThumbnailBox
	}
	if quality <= 0 {
		quality = ThumbnailQuality
	}

	img, _, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", fmt.Errorf("thumbnail: %w", err)
	}

	scaled := scaleToFit(img, box, box)
	return EncodeJPEGDataURL(scaled, quality)
}
