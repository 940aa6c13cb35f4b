package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/speedwarnsf/ZenSpace-sub000/internal/config"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/domain"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/render"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/usererr"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/validate"
)

var extMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// readImageFile loads a photo from disk into the upload shape.
func readImageFile(path string) (domain.ImageData, error) {
	mime, ok := extMimeTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return domain.ImageData{}, fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.ImageData{}, fmt.Errorf("read image: %w", err)
	}

	return domain.ImageData{
		DataURL:  "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw),
		MimeType: mime,
		FileName: filepath.Base(path),
	}, nil
}

// writeDataURL decodes a base64 data URL and writes the bytes to path.
func writeDataURL(path, dataURL string) error {
	parsed, res := validate.ParseDataURL(dataURL)
	if !res.Valid {
		return fmt.Errorf("decode image: %s", res.Error)
	}
	raw, err := base64.StdEncoding.DecodeString(parsed.Base64)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}

// exitWithMessage renders a user-facing failure and exits non-zero.
func exitWithMessage(msg *usererr.Message) {
	render.Stderr().Print("%s", renderer.ErrorBox(*msg))
	os.Exit(1)
}

// requireAPIKey fails fast before burning a rate-limit token on a request
// that cannot be authenticated.
func requireAPIKey() {
	if !config.Env().HasAPIKey() {
		msg := usererr.Get(usererr.APIKeyMissing)
		exitWithMessage(&msg)
	}
}
