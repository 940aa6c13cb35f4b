// Package pipeline wires validation, rate limiting, circuit breaking,
// retries, and the session store around the upstream client. Commands call
// the pipeline; nothing above it sees a raw error.
package pipeline

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/speedwarnsf/ZenSpace-sub000/internal/domain"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/gemini"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/imgproc"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/logging"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/ratelimit"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/retry"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/session"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/usererr"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/validate"
)

// Pipeline owns the shared admission state (one limiter, one breaker) and
// runs every upstream call through the same gate sequence.
type Pipeline struct {
	client   gemini.Client
	limiter  *ratelimit.Limiter
	breaker  *retry.Breaker
	sessions *session.Store
	retryCfg retry.Config
	log      *logging.Logger
	now      func() time.Time
}

// Option tweaks a Pipeline.
type Option func(*Pipeline)

// WithRetryConfig overrides the retry policy (for tests).
func WithRetryConfig(cfg retry.Config) Option {
	return func(p *Pipeline) { p.retryCfg = cfg }
}

// WithClock overrides the clock (for tests).
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New assembles a pipeline around the given collaborators.
func New(client gemini.Client, limiter *ratelimit.Limiter, breaker *retry.Breaker, sessions *session.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		client:   client,
		limiter:  limiter,
		breaker:  breaker,
		sessions: sessions,
		retryCfg: retry.APIConfig(),
		log:      logging.New("pipeline"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AnalyzeInput is one analyze request.
type AnalyzeInput struct {
	Image domain.ImageData
	Name  string
	Tags  []string
	// Save persists the result as a session when true.
	Save bool
}

// AnalyzeResult is a successful analyze outcome.
type AnalyzeResult struct {
	Analysis domain.Analysis
	Session  *domain.Session
	Warnings []string
	Attempts int
}

// AnalyzeImage validates and compresses the upload, runs the admission
// gates, calls the model with retries, and optionally saves a session.
func (p *Pipeline) AnalyzeImage(ctx context.Context, in AnalyzeInput) (*AnalyzeResult, *usererr.Message) {
	warnings, userMsg := p.validateImage(&in.Image)
	if userMsg != nil {
		return nil, userMsg
	}

	if compressed, ok := imgproc.Compress(in.Image.DataURL, imgproc.CompressOptions{}); ok {
		p.log.Info("image_compressed", map[string]interface{}{
			"before": len(in.Image.DataURL),
			"after":  len(compressed),
		})
		in.Image.DataURL = compressed
		in.Image.MimeType = "image/jpeg"
	}

	if msg := p.admit(); msg != nil {
		return nil, msg
	}

	start := p.now()
	result := retry.Do(ctx, func() (domain.Analysis, error) {
		return p.client.AnalyzeRoom(ctx, in.Image)
	}, p.retryCfg)
	if !result.OK {
		p.breaker.RecordFailure()
		msg := usererr.FromError(result.Err)
		p.log.Error("analyze_failed", map[string]interface{}{
			"attempts": result.Attempts,
		}, result.Err)
		return nil, &msg
	}
	p.breaker.RecordSuccess()
	p.log.TimedEvent("analyze_ok", start, map[string]interface{}{
		"attempts": result.Attempts,
	})

	out := &AnalyzeResult{
		Analysis: result.Value,
		Warnings: warnings,
		Attempts: result.Attempts,
	}
	if in.Save {
		sess, err := p.sessions.Save(session.SaveInput{
			Image:    in.Image,
			Analysis: result.Value,
			Name:     in.Name,
			Tags:     in.Tags,
		})
		if err != nil {
			msg := usererr.FromError(err)
			return nil, &msg
		}
		out.Session = sess
	}
	return out, nil
}

// ChatResult is one successful chat exchange.
type ChatResult struct {
	Reply    domain.ChatMessage
	Attempts int
}

// SendChat validates one follow-up message, runs the gates, calls the
// model with the session's history, and appends both turns to the session.
func (p *Pipeline) SendChat(ctx context.Context, sessionID, text string) (*ChatResult, *usererr.Message) {
	if res := validate.ChatMessage(text); !res.Valid {
		msg := usererr.Get(usererr.InvalidInput)
		msg.Description = res.Error
		return nil, &msg
	}

	sess := p.sessions.Get(sessionID)
	if sess == nil {
		msg := usererr.New("Session not found",
			"No saved session matches that id.",
			usererr.WithCategory(usererr.CategoryValidation),
			usererr.WithRetryable(false),
			usererr.WithSuggestion("List sessions to find the right id."))
		return nil, &msg
	}

	if msg := p.admit(); msg != nil {
		return nil, msg
	}

	result := retry.Do(ctx, func() (string, error) {
		return p.client.Chat(ctx, sess.Image, sess.Messages, text)
	}, p.retryCfg)
	if !result.OK {
		p.breaker.RecordFailure()
		msg := usererr.FromError(result.Err)
		return nil, &msg
	}
	p.breaker.RecordSuccess()

	now := p.now()
	userTurn := domain.ChatMessage{
		ID: uuid.NewString(), Role: domain.RoleUser, Text: text, Timestamp: now,
	}
	reply := domain.ChatMessage{
		ID: uuid.NewString(), Role: domain.RoleAssistant, Text: result.Value, Timestamp: now,
	}
	p.sessions.AppendMessages(sessionID, userTurn, reply)

	return &ChatResult{Reply: reply, Attempts: result.Attempts}, nil
}

// Visualize renders the decluttered room for a saved session and attaches
// the image to it.
func (p *Pipeline) Visualize(ctx context.Context, sessionID string) (string, *usererr.Message) {
	sess := p.sessions.Get(sessionID)
	if sess == nil {
		msg := usererr.New("Session not found",
			"No saved session matches that id.",
			usererr.WithCategory(usererr.CategoryValidation),
			usererr.WithRetryable(false))
		return "", &msg
	}

	if msg := p.admit(); msg != nil {
		return "", msg
	}

	result := retry.Do(ctx, func() (string, error) {
		return p.client.Visualize(ctx, sess.Image, sess.Analysis.VisualizationPrompt)
	}, p.retryCfg)
	if !result.OK {
		p.breaker.RecordFailure()
		msg := usererr.FromError(result.Err)
		return "", &msg
	}
	p.breaker.RecordSuccess()

	p.sessions.SetVisualization(sessionID, result.Value)
	return result.Value, nil
}

// admit runs the local gates in order. A rate-limit denial never counts
// as a breaker failure; no request was sent.
func (p *Pipeline) admit() *usererr.Message {
	if !p.limiter.TryConsume() {
		msg := usererr.Get(usererr.RateLimit)
		msg.RetryAfterSeconds = int(math.Ceil(p.limiter.WaitTime().Seconds()))
		p.log.Warn("rate_limited", map[string]interface{}{
			"wait": p.limiter.FormatWaitTime(),
		}, nil)
		return &msg
	}
	if !p.breaker.CanAttempt() {
		msg := usererr.Get(usererr.CircuitOpen)
		p.log.Warn("circuit_open", nil, nil)
		return &msg
	}
	return nil
}

// validateImage runs the full check sequence against an upload, collecting
// warnings and translating the first failure into a user message.
func (p *Pipeline) validateImage(img *domain.ImageData) ([]string, *usererr.Message) {
	var warnings []string

	if res := validate.FileType(img.MimeType); !res.Valid {
		return nil, messageFor(usererr.UnsupportedFormat, res)
	}

	parsed, res := validate.ParseDataURL(img.DataURL)
	if !res.Valid {
		return nil, messageFor(usererr.InvalidImage, res)
	}

	// Estimated decoded size; base64 inflates by 4/3.
	size := int64(len(parsed.Base64)) * 3 / 4
	if res := validate.FileSize(size); !res.Valid {
		code := usererr.FileTooLarge
		if size < validate.MinFileBytes {
			code = usererr.FileTooSmall
		}
		return nil, messageFor(code, res)
	} else if res.Warning != "" {
		warnings = append(warnings, res.Warning)
	}

	if w, h, err := imgproc.Dimensions(img.DataURL); err == nil {
		if res := validate.Dimensions(w, h); !res.Valid {
			return nil, messageFor(usererr.InvalidImage, res)
		} else if res.Warning != "" {
			warnings = append(warnings, res.Warning)
		}
	}

	return warnings, nil
}

// messageFor looks up the table entry for code and carries the specific
// validation failure into its description.
func messageFor(code usererr.Code, res validate.Result) *usererr.Message {
	msg := usererr.Get(code)
	if res.Error != "" {
		msg.Description = res.Error
	}
	return &msg
}
