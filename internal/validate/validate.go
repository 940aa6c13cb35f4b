// Package validate provides pure input checks for everything entering the
// pipeline: uploaded files, base64 payloads, data URLs, and chat text.
// Nothing here has side effects and nothing here panics; every failure is
// reported through the Result value and callers decide whether to block.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// File constraints.
const (
	// MinFileBytes rejects files too small to be a real photo.
	MinFileBytes = 1024
	// MaxFileBytes is the hard upload ceiling.
	MaxFileBytes = 10 << 20
	// RecommendedMaxBytes triggers a warning, not a failure.
	RecommendedMaxBytes = 5 << 20
)

// Dimension constraints.
const (
	MinDimension         = 100
	MaxDimension         = 8192
	RecommendedMinWidth  = 640
	RecommendedMinHeight = 480
	MinAspectRatio       = 0.1
	MaxAspectRatio       = 10.0
)

// Text constraints.
const (
	MaxChatMessageLen = 2000
	MaxFilenameLen    = 100
	// MinBase64Len is the smallest plausible base64 image payload.
	MinBase64Len = 100
)

// allowedTypes is the fixed upload allow-list.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// AllowedTypes returns the accepted MIME types, for display.
func AllowedTypes() []string {
	return []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
}

// Result reports one validation outcome. Valid with a non-empty Warning
// means "accepted, but tell the user".
type Result struct {
	Valid   bool
	Error   string
	Warning string
	Details map[string]string
}

func fail(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

func ok() Result {
	return Result{Valid: true}
}

func warn(format string, args ...any) Result {
	return Result{Valid: true, Warning: fmt.Sprintf(format, args...)}
}

// FileType checks the declared MIME type against the allow-list.
// A missing type fails: we never guess.
func FileType(mimeType string) Result {
	if mimeType == "" {
		return fail("file has no declared type")
	}
	if !allowedTypes[strings.ToLower(mimeType)] {
		return fail("unsupported file type %q: use JPEG, PNG, WebP, or GIF", mimeType)
	}
	return ok()
}

// FileSize checks the byte length against the hard and recommended bounds.
func FileSize(bytes int64) Result {
	switch {
	case bytes < MinFileBytes:
		return fail("file is too small (%d bytes): not a usable photo", bytes)
	case bytes > MaxFileBytes:
		return fail("file is too large (%.1f MB): maximum is %d MB", float64(bytes)/(1<<20), MaxFileBytes>>20)
	case bytes > RecommendedMaxBytes:
		return warn("large file (%.1f MB): analysis may be slow", float64(bytes)/(1<<20))
	}
	return ok()
}

// Dimensions checks pixel dimensions and aspect ratio.
func Dimensions(width, height int) Result {
	if width <= 0 || height <= 0 {
		return fail("invalid dimensions %dx%d", width, height)
	}
	if width < MinDimension || height < MinDimension {
		return fail("image is too small (%dx%d): minimum is %dx%d", width, height, MinDimension, MinDimension)
	}
	ratio := float64(width) / float64(height)
	if ratio < MinAspectRatio || ratio > MaxAspectRatio {
		return fail("extreme aspect ratio (%.2f): the image does not look like a room photo", ratio)
	}
	res := ok()
	switch {
	case width > MaxDimension || height > MaxDimension:
		res = warn("very large image (%dx%d): it will be downscaled", width, height)
	case width < RecommendedMinWidth || height < RecommendedMinHeight:
		res = warn("low resolution (%dx%d): results may be less accurate", width, height)
	}
	res.Details = map[string]string{
		"width":  strconv.Itoa(width),
		"height": strconv.Itoa(height),
		"ratio":  strconv.FormatFloat(math.Round(ratio*100)/100, 'f', -1, 64),
	}
	return res
}

var base64Re = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)

// Base64Data checks that a string is plausible base64 image data.
func Base64Data(s string) Result {
	if strings.TrimSpace(s) == "" {
		return fail("empty base64 data")
	}
	if len(s)%4 != 0 {
		return fail("malformed base64 data: length %d is not a multiple of 4", len(s))
	}
	if !base64Re.MatchString(s) {
		return fail("malformed base64 data: contains invalid characters")
	}
	if len(s) < MinBase64Len {
		return fail("base64 data is too short (%d chars) to be an image", len(s))
	}
	return ok()
}

// DataURL is the parsed form of a data:<mime>;base64,<payload> URL.
type DataURL struct {
	MimeType string
	Base64   string
}

// ParseDataURL structurally parses a data URL and validates both halves.
// MimeType and Base64 are only populated on full success.
func ParseDataURL(url string) (DataURL, Result) {
	const prefix = "data:"
	if !strings.HasPrefix(url, prefix) {
		return DataURL{}, fail("not a data URL")
	}
	rest := url[len(prefix):]
	sep := strings.Index(rest, ";base64,")
	if sep < 0 {
		return DataURL{}, fail("data URL is not base64-encoded")
	}
	mimeType := rest[:sep]
	payload := rest[sep+len(";base64,"):]

	if res := FileType(mimeType); !res.Valid {
		return DataURL{}, res
	}
	if res := Base64Data(payload); !res.Valid {
		return DataURL{}, res
	}
	return DataURL{MimeType: strings.ToLower(mimeType), Base64: payload}, ok()
}

// ChatMessage checks free-text chat input.
func ChatMessage(text string) Result {
	if strings.TrimSpace(text) == "" {
		return fail("message is empty")
	}
	if n := len([]rune(text)); n > MaxChatMessageLen {
		return fail("message is too long (%d chars): maximum is %d", n, MaxChatMessageLen)
	}
	for _, r := range text {
		if isDisallowedControl(r) {
			return fail("message contains control characters")
		}
	}
	return ok()
}

// isDisallowedControl reports C0 control characters other than newline/tab.
func isDisallowedControl(r rune) bool {
	return r < 0x20 && r != '\n' && r != '\t'
}
