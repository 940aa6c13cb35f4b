// Package gemini talks to the Gemini generateContent API for room
// analysis, follow-up chat, and before/after visualization.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/speedwarnsf/ZenSpace-sub000/internal/domain"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/validate"
)

const apiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Client is the upstream surface the pipeline depends on. One method per
// operation so tests can fake exactly what they need.
type Client interface {
	AnalyzeRoom(ctx context.Context, img domain.ImageData) (domain.Analysis, error)
	Chat(ctx context.Context, img domain.ImageData, history []domain.ChatMessage, text string) (string, error)
	Visualize(ctx context.Context, img domain.ImageData, prompt string) (string, error)
}

// Google calls the Gemini REST API.
type Google struct {
	apiKey string
	model  string
	client HTTPClient
}

var _ Client = (*Google)(nil)

// NewGoogle creates a client with the default HTTP transport.
func NewGoogle(apiKey, model string) *Google {
	return NewGoogleWithClient(apiKey, model, &http.Client{})
}

// NewGoogleWithClient creates a client with an injected transport.
func NewGoogleWithClient(apiKey, model string, client HTTPClient) *Google {
	return &Google{apiKey: apiKey, model: model, client: client}
}

// APIError is a non-2xx response from the API. It exposes the HTTP status
// so the retry and error-message layers can classify it.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API error %d: %s", e.Status, e.Body)
}

// StatusCode reports the HTTP status of the failed call.
func (e *APIError) StatusCode() int { return e.Status }

type generateRequest struct {
	Contents          []content  `json:"contents"`
	SystemInstruction *content   `json:"systemInstruction,omitempty"`
	GenerationConfig  *genConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type genConfig struct {
	MaxOutputTokens    int      `json:"maxOutputTokens,omitempty"`
	Temperature        float64  `json:"temperature,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

const analyzeSystemPrompt = `You are a professional home organizer. Study the room photo and produce a
practical declutter plan in markdown: what to remove, what to keep, and
where things should go. Be specific about visible items. End with a short
"Visualization" line describing the decluttered room for an image model.`

const chatSystemPrompt = `You are a professional home organizer continuing a conversation about the
room in the photo. Answer the user's follow-up questions concisely and
concretely, referring to visible items where helpful.`

// AnalyzeRoom sends the room photo and returns the declutter plan.
func (g *Google) AnalyzeRoom(ctx context.Context, img domain.ImageData) (domain.Analysis, error) {
	imagePart, err := imagePartOf(img)
	if err != nil {
		return domain.Analysis{}, err
	}

	req := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{imagePart, {Text: "Analyze this room and create a declutter plan."}},
		}},
		SystemInstruction: &content{Parts: []part{{Text: analyzeSystemPrompt}}},
		GenerationConfig:  &genConfig{MaxOutputTokens: 8192, Temperature: 0.7},
	}

	text, err := g.generateText(ctx, req)
	if err != nil {
		return domain.Analysis{}, err
	}
	return parseAnalysis(text), nil
}

// Chat sends the image plus conversation history and one new user turn.
func (g *Google) Chat(ctx context.Context, img domain.ImageData, history []domain.ChatMessage, text string) (string, error) {
	imagePart, err := imagePartOf(img)
	if err != nil {
		return "", err
	}

	contents := []content{{Role: "user", Parts: []part{imagePart}}}
	for _, m := range history {
		role := "user"
		if m.Role == domain.RoleAssistant {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: m.Text}}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: text}}})

	req := generateRequest{
		Contents:          contents,
		SystemInstruction: &content{Parts: []part{{Text: chatSystemPrompt}}},
		GenerationConfig:  &genConfig{MaxOutputTokens: 4096, Temperature: 0.7},
	}
	return g.generateText(ctx, req)
}

// Visualize asks an image-capable model for a decluttered rendering of the
// room and returns it as a data URL.
func (g *Google) Visualize(ctx context.Context, img domain.ImageData, prompt string) (string, error) {
	imagePart, err := imagePartOf(img)
	if err != nil {
		return "", err
	}

	req := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{imagePart, {Text: "Show this exact room decluttered and organized. " + prompt}},
		}},
		GenerationConfig: &genConfig{ResponseModalities: []string{"IMAGE", "TEXT"}},
	}

	resp, err := g.generate(ctx, req)
	if err != nil {
		return "", err
	}
	for _, c := range resp.Candidates {
		for _, p := range c.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				return "data:" + p.InlineData.MimeType + ";base64," + p.InlineData.Data, nil
			}
		}
	}
	return "", fmt.Errorf("empty response: no image returned")
}

func (g *Google) generateText(ctx context.Context, req generateRequest) (string, error) {
	resp, err := g.generate(ctx, req)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, c := range resp.Candidates {
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response: no candidates returned text")
	}
	return sb.String(), nil
}

func (g *Google) generate(ctx context.Context, req generateRequest) (*generateResponse, error) {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", apiBaseURL, g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: httpResp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("response blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response: no candidates")
	}
	return &resp, nil
}

// imagePartOf converts an uploaded image into an inline request part.
func imagePartOf(img domain.ImageData) (part, error) {
	parsed, res := validate.ParseDataURL(img.DataURL)
	if !res.Valid {
		return part{}, fmt.Errorf("invalid image data: %s", res.Error)
	}
	return part{InlineData: &inlineData{
		MimeType: parsed.MimeType,
		Data:     parsed.Base64,
	}}, nil
}

// parseAnalysis splits a trailing "Visualization:" line out of the plan
// text when the model supplied one.
func parseAnalysis(text string) domain.Analysis {
	analysis := domain.Analysis{Plan: text}

	lower := strings.ToLower(text)
	idx := strings.LastIndex(lower, "visualization")
	if idx < 0 {
		return analysis
	}
	rest := text[idx:]
	if colon := strings.Index(rest, ":"); colon >= 0 {
		prompt := strings.TrimSpace(rest[colon+1:])
		prompt = strings.Trim(prompt, "*_ \n")
		if prompt != "" {
			analysis.VisualizationPrompt = prompt
			analysis.Plan = strings.TrimSpace(text[:idx])
			analysis.Plan = strings.TrimRight(analysis.Plan, "#* \n")
		}
	}
	return analysis
}
