package validate

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[<>:"|?*/\\]`)
	horizontalRuns      = regexp.MustCompile(`[ \t]+`)
)

// SanitizeFilename strips path separators and shell-unsafe characters,
// truncates to MaxFilenameLen while preserving the extension, and falls
// back to "image" when nothing survives.
func SanitizeFilename(name string) string {
	cleaned := unsafeFilenameChars.ReplaceAllString(name, "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "image"
	}
	if len(cleaned) <= MaxFilenameLen {
		return cleaned
	}
	ext := filepath.Ext(cleaned)
	if len(ext) >= MaxFilenameLen {
		return cleaned[:MaxFilenameLen]
	}
	base := cleaned[:MaxFilenameLen-len(ext)]
	return base + ext
}

// SanitizeForDisplay strips C0 control characters (keeping newline/tab),
// collapses runs of spaces and tabs, and trims the result.
func SanitizeForDisplay(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isDisallowedControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	collapsed := horizontalRuns.ReplaceAllString(b.String(), " ")
	return strings.TrimSpace(collapsed)
}

// IsSafeForDisplay reports whether text contains no control characters
// that SanitizeForDisplay would strip.
func IsSafeForDisplay(text string) bool {
	for _, r := range text {
		if isDisallowedControl(r) {
			return false
		}
	}
	return true
}
