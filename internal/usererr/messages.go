// Package usererr maps every failure in the system to a structured,
// renderable user-facing message. Raw errors stop here: presentation code
// only ever sees a Message.
package usererr

// Code identifies a known failure.
type Code string

const (
	NetworkError      Code = "NETWORK_ERROR"
	Timeout           Code = "TIMEOUT"
	APIKeyMissing     Code = "API_KEY_MISSING"
	APIKeyInvalid     Code = "API_KEY_INVALID"
	RateLimit         Code = "RATE_LIMIT"
	QuotaExceeded     Code = "QUOTA_EXCEEDED"
	ServerError       Code = "SERVER_ERROR"
	CircuitOpen       Code = "CIRCUIT_OPEN"
	EmptyResponse     Code = "EMPTY_RESPONSE"
	BlockedResponse   Code = "BLOCKED_RESPONSE"
	FileTooLarge      Code = "FILE_TOO_LARGE"
	FileTooSmall      Code = "FILE_TOO_SMALL"
	UnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	InvalidImage      Code = "INVALID_IMAGE"
	InvalidInput      Code = "INVALID_INPUT"
	StorageFull       Code = "STORAGE_FULL"
	Unknown           Code = "UNKNOWN"
)

// Severity grades a message for presentation.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Category groups failures by origin.
type Category string

const (
	CategoryNetwork    Category = "network"
	CategoryAPI        Category = "api"
	CategoryFile       Category = "file"
	CategoryQuota      Category = "quota"
	CategoryValidation Category = "validation"
	CategoryUnknown    Category = "unknown"
)

// Message is the one shape every failure renders as: title, description,
// actionable suggestion, and the flags the UI needs for retry affordances.
type Message struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Suggestion        string   `json:"suggestion"`
	Severity          Severity `json:"severity"`
	Category          Category `json:"category"`
	Retryable         bool     `json:"isRetryable"`
	RetryAfterSeconds int      `json:"retryAfterSeconds,omitempty"`
	Icon              string   `json:"icon"`
}

// messages is the static lookup table. Entries are immutable; Get returns
// copies by value.
var messages = map[Code]Message{
	NetworkError: {
		Title:       "Connection problem",
		Description: "We couldn't reach the analysis service.",
		Suggestion:  "Check your internet connection and try again.",
		Severity:    SeverityError,
		Category:    CategoryNetwork,
		Retryable:   true,
		Icon:        "📡",
	},
	Timeout: {
		Title:       "Request timed out",
		Description: "The analysis service took too long to respond.",
		Suggestion:  "Try again in a moment.",
		Severity:    SeverityError,
		Category:    CategoryNetwork,
		Retryable:   true,
		Icon:        "⏱️",
	},
	APIKeyMissing: {
		Title:       "Service not configured",
		Description: "No API key is configured for the analysis service.",
		Suggestion:  "Set ZENSPACE_API_KEY and restart.",
		Severity:    SeverityCritical,
		Category:    CategoryAPI,
		Retryable:   false,
		Icon:        "🔑",
	},
	APIKeyInvalid: {
		Title:       "Service rejected the API key",
		Description: "The analysis service did not accept the configured credentials.",
		Suggestion:  "Verify the API key is current and has access to the model.",
		Severity:    SeverityCritical,
		Category:    CategoryAPI,
		Retryable:   false,
		Icon:        "🔑",
	},
	RateLimit: {
		Title:             "Slow down a little",
		Description:       "You've hit the analysis rate limit.",
		Suggestion:        "Wait for the countdown to finish, then retry.",
		Severity:          SeverityWarning,
		Category:          CategoryQuota,
		Retryable:         true,
		RetryAfterSeconds: 60,
		Icon:              "🐢",
	},
	QuotaExceeded: {
		Title:       "Daily quota reached",
		Description: "The analysis service's usage quota is exhausted for now.",
		Suggestion:  "Try again tomorrow or upgrade your plan.",
		Severity:    SeverityError,
		Category:    CategoryQuota,
		Retryable:   false,
		Icon:        "🚫",
	},
	ServerError: {
		Title:       "Service hiccup",
		Description: "The analysis service had an internal problem.",
		Suggestion:  "This is usually temporary. Try again shortly.",
		Severity:    SeverityError,
		Category:    CategoryAPI,
		Retryable:   true,
		Icon:        "🛠️",
	},
	CircuitOpen: {
		Title:             "Taking a short break",
		Description:       "Several requests in a row failed, so we've paused calls to the service.",
		Suggestion:        "Wait half a minute and try again.",
		Severity:          SeverityWarning,
		Category:          CategoryAPI,
		Retryable:         true,
		RetryAfterSeconds: 30,
		Icon:              "⏸️",
	},
	EmptyResponse: {
		Title:       "No response generated",
		Description: "The service replied but produced no usable content.",
		Suggestion:  "Retry, or try a clearer photo of the room.",
		Severity:    SeverityError,
		Category:    CategoryAPI,
		Retryable:   true,
		Icon:        "📭",
	},
	BlockedResponse: {
		Title:       "Response blocked",
		Description: "The service declined to analyze this image.",
		Suggestion:  "Use a photo that clearly shows a room interior.",
		Severity:    SeverityError,
		Category:    CategoryAPI,
		Retryable:   false,
		Icon:        "🛡️",
	},
	FileTooLarge: {
		Title:       "Photo too large",
		Description: "The photo exceeds the 10 MB upload limit.",
		Suggestion:  "Resize or recompress the photo, then upload again.",
		Severity:    SeverityError,
		Category:    CategoryFile,
		Retryable:   false,
		Icon:        "📦",
	},
	FileTooSmall: {
		Title:       "Photo too small",
		Description: "The file is too small to be a usable room photo.",
		Suggestion:  "Upload the original photo rather than a preview.",
		Severity:    SeverityError,
		Category:    CategoryFile,
		Retryable:   false,
		Icon:        "🔍",
	},
	UnsupportedFormat: {
		Title:       "Unsupported format",
		Description: "Only JPEG, PNG, WebP, and GIF photos are supported.",
		Suggestion:  "Convert the photo to one of the supported formats.",
		Severity:    SeverityError,
		Category:    CategoryFile,
		Retryable:   false,
		Icon:        "🖼️",
	},
	InvalidImage: {
		Title:       "Couldn't read that photo",
		Description: "The image data is damaged or not a real photo.",
		Suggestion:  "Re-export the photo and try again.",
		Severity:    SeverityError,
		Category:    CategoryValidation,
		Retryable:   false,
		Icon:        "🖼️",
	},
	InvalidInput: {
		Title:       "Can't send that message",
		Description: "The message is empty, too long, or contains unsupported characters.",
		Suggestion:  "Edit the message and send it again.",
		Severity:    SeverityWarning,
		Category:    CategoryValidation,
		Retryable:   false,
		Icon:        "✏️",
	},
	StorageFull: {
		Title:       "Local storage is full",
		Description: "There isn't enough space to save this session.",
		Suggestion:  "Delete old sessions, then save again.",
		Severity:    SeverityError,
		Category:    CategoryQuota,
		Retryable:   false,
		Icon:        "💾",
	},
	Unknown: {
		Title:       "Something went wrong",
		Description: "An unexpected error occurred.",
		Suggestion:  "Try again. If it keeps happening, restart the app.",
		Severity:    SeverityError,
		Category:    CategoryUnknown,
		Retryable:   true,
		Icon:        "❓",
	},
}

// Get returns the message for a code, falling back to Unknown.
// It always returns something renderable.
func Get(code Code) Message {
	if m, ok := messages[code]; ok {
		return m
	}
	return messages[Unknown]
}

// Option tweaks a one-off message built by New.
type Option func(*Message)

// WithSeverity overrides the severity.
func WithSeverity(s Severity) Option {
	return func(m *Message) { m.Severity = s }
}

// WithCategory overrides the category.
func WithCategory(c Category) Option {
	return func(m *Message) { m.Category = c }
}

// WithRetryable overrides the retry flag.
func WithRetryable(r bool) Option {
	return func(m *Message) { m.Retryable = r }
}

// WithRetryAfter sets the countdown seconds.
func WithRetryAfter(seconds int) Option {
	return func(m *Message) { m.RetryAfterSeconds = seconds }
}

// WithSuggestion overrides the suggestion line.
func WithSuggestion(s string) Option {
	return func(m *Message) { m.Suggestion = s }
}

// WithIcon overrides the icon.
func WithIcon(icon string) Option {
	return func(m *Message) { m.Icon = icon }
}

// New builds a one-off message for situations outside the static table,
// applying the same defaults: severity error, category unknown, retryable.
func New(title, description string, opts ...Option) Message {
	m := Message{
		Title:       title,
		Description: description,
		Suggestion:  "Try again.",
		Severity:    SeverityError,
		Category:    CategoryUnknown,
		Retryable:   true,
		Icon:        "⚠️",
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// ShouldShowCountdown reports whether the UI should render a retry
// countdown: only for retryable messages with a positive delay.
func ShouldShowCountdown(m Message) bool {
	return m.Retryable && m.RetryAfterSeconds > 0
}
