package validate

import (
	"strings"
	"testing"
)

func TestFileType(t *testing.T) {
	tests := []struct {
		name  string
		mime  string
		valid bool
	}{
		{"jpeg", "image/jpeg", true},
		{"png", "image/png", true},
		{"webp", "image/webp", true},
		{"gif", "image/gif", true},
		{"uppercase", "IMAGE/PNG", true},
		{"missing", "", false},
		{"bmp", "image/bmp", false},
		{"pdf", "application/pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := FileType(tt.mime)
			if res.Valid != tt.valid {
				t.Errorf("FileType(%q).Valid = %v, want %v (%s)", tt.mime, res.Valid, tt.valid, res.Error)
			}
		})
	}
}

func TestFileSizeBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		bytes   int64
		valid   bool
		warning bool
	}{
		{"below minimum", MinFileBytes - 1, false, false},
		{"exact minimum", MinFileBytes, true, false},
		{"normal", 2 << 20, true, false},
		{"above recommended", RecommendedMaxBytes + 1, true, true},
		{"exact maximum", MaxFileBytes, true, true},
		{"above maximum", MaxFileBytes + 1, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := FileSize(tt.bytes)
			if res.Valid != tt.valid {
				t.Errorf("FileSize(%d).Valid = %v, want %v", tt.bytes, res.Valid, tt.valid)
			}
			if (res.Warning != "") != tt.warning {
				t.Errorf("FileSize(%d).Warning = %q, want warning=%v", tt.bytes, res.Warning, tt.warning)
			}
		})
	}
}

func TestDimensions(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		valid   bool
		warning bool
	}{
		{"zero width", 0, 500, false, false},
		{"negative height", 800, -1, false, false},
		{"below minimum", 99, 500, false, false},
		{"too wide", 4000, 200, false, false}, // ratio 20
		{"too tall", 200, 4000, false, false},
		{"good", 1920, 1080, true, false},
		{"low resolution", 320, 240, true, true},
		{"huge", 9000, 6000, true, true},
		{"exact min", 100, 100, true, true}, // valid but below recommended floor
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Dimensions(tt.w, tt.h)
			if res.Valid != tt.valid {
				t.Errorf("Dimensions(%d, %d).Valid = %v, want %v (%s)", tt.w, tt.h, res.Valid, tt.valid, res.Error)
			}
			if (res.Warning != "") != tt.warning {
				t.Errorf("Dimensions(%d, %d).Warning = %q, want warning=%v", tt.w, tt.h, res.Warning, tt.warning)
			}
			if res.Valid && res.Details["width"] == "" {
				t.Error("expected width detail on valid result")
			}
		})
	}
}

func TestBase64Data(t *testing.T) {
	long := strings.Repeat("QUJD", 30) // 120 chars, valid alphabet, %4 == 0

	tests := []struct {
		name  string
		data  string
		valid bool
	}{
		{"empty", "", false},
		{"whitespace", "   \t", false},
		{"bad length", long + "Q", false},
		{"bad characters", strings.Repeat("Q!JD", 30), false},
		{"too short", "QUJDQUJD", false},
		{"good", long, true},
		{"good with padding", long[:116] + "QQ==", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Base64Data(tt.data)
			if res.Valid != tt.valid {
				t.Errorf("Base64Data(%q...).Valid = %v, want %v (%s)", tt.data[:min(8, len(tt.data))], res.Valid, tt.valid, res.Error)
			}
		})
	}
}

func TestParseDataURL(t *testing.T) {
	payload := strings.Repeat("QUJD", 30)

	parsed, res := ParseDataURL("data:image/png;base64," + payload)
	if !res.Valid {
		t.Fatalf("expected valid parse: %s", res.Error)
	}
	if parsed.MimeType != "image/png" || parsed.Base64 != payload {
		t.Errorf("unexpected parse result: %+v", parsed)
	}

	bad := []string{
		"http://example.com/a.png",
		"data:image/png," + payload,           // not base64
		"data:image/tiff;base64," + payload,   // disallowed mime
		"data:image/png;base64," + payload[:89], // bad payload length
		"",
	}
	for _, u := range bad {
		if _, res := ParseDataURL(u); res.Valid {
			t.Errorf("ParseDataURL(%q) unexpectedly valid", u)
		}
	}
}

func TestChatMessage(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		valid bool
	}{
		{"normal", "What should I do with the bookshelf?", true},
		{"with newline and tab", "line one\n\tline two", true},
		{"empty", "", false},
		{"whitespace only", "  \n\t ", false},
		{"too long", strings.Repeat("a", MaxChatMessageLen+1), false},
		{"exactly max", strings.Repeat("a", MaxChatMessageLen), true},
		{"control char", "hello\x00world", false},
		{"escape char", "hello\x1bworld", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ChatMessage(tt.text)
			if res.Valid != tt.valid {
				t.Errorf("ChatMessage(...).Valid = %v, want %v (%s)", res.Valid, tt.valid, res.Error)
			}
		})
	}
}
