// Package domain defines the core data model shared across the ZenSpace
// client core: saved sessions, chat messages, and analysis results.
package domain

import "time"

// Session is a saved snapshot of one analyzed room: the uploaded image, the
// generated declutter plan, and any follow-up chat. The session store owns
// these; everyone else works on copies.
type Session struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
	Thumbnail          string        `json:"thumbnail"`
	Image              ImageData     `json:"image"`
	Analysis           Analysis      `json:"analysis"`
	Messages           []ChatMessage `json:"messages"`
	VisualizationImage string        `json:"visualizationImage,omitempty"`
	Tags               []string      `json:"tags,omitempty"`
}

// SessionMetadata is the cheap listing projection of Session: full image,
// analysis, and message bodies are dropped in favor of a count.
type SessionMetadata struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Thumbnail    string    `json:"thumbnail"`
	MessageCount int       `json:"messageCount"`
	Tags         []string  `json:"tags,omitempty"`
}

// Metadata returns the listing projection of a session.
func (s *Session) Metadata() SessionMetadata {
	return SessionMetadata{
		ID:           s.ID,
		Name:         s.Name,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		Thumbnail:    s.Thumbnail,
		MessageCount: len(s.Messages),
		Tags:         s.Tags,
	}
}

// ImageData carries one uploaded image plus its encoding metadata.
type ImageData struct {
	DataURL  string `json:"dataUrl"`
	MimeType string `json:"mimeType"`
	FileName string `json:"fileName,omitempty"`
}
