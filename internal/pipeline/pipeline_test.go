package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedwarnsf/ZenSpace-sub000/internal/domain"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/kv"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/logging"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/ratelimit"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/retry"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/session"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/usererr"
)

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	m.Run()
}

// fakeClient scripts upstream behavior: fail the first failures calls,
// then succeed.
type fakeClient struct {
	failures  int
	err       error
	calls     int
	chatCalls int
	plan      string
	reply     string
	visual    string
}

func (f *fakeClient) AnalyzeRoom(ctx context.Context, img domain.ImageData) (domain.Analysis, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return domain.Analysis{}, f.err
	}
	return domain.Analysis{Plan: f.plan}, nil
}

func (f *fakeClient) Chat(ctx context.Context, img domain.ImageData, history []domain.ChatMessage, text string) (string, error) {
	f.chatCalls++
	if f.failures > 0 {
		f.failures--
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeClient) Visualize(ctx context.Context, img domain.ImageData, prompt string) (string, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return "", f.err
	}
	return f.visual, nil
}

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 7), uint8(y * 5), 90, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func testImage(t *testing.T) domain.ImageData {
	t.Helper()
	return domain.ImageData{
		DataURL:  pngDataURL(t, 200, 150),
		MimeType: "image/png",
		FileName: "room.png",
	}
}

type fixture struct {
	pipe     *Pipeline
	client   *fakeClient
	limiter  *ratelimit.Limiter
	breaker  *retry.Breaker
	sessions *session.Store
}

func newFixture(t *testing.T, client *fakeClient) *fixture {
	t.Helper()
	mem := kv.NewMemory()
	limiter := ratelimit.New(mem, ratelimit.Options{MaxTokens: 5, RefillRate: 1})
	breaker := retry.NewBreaker(retry.DefaultFailureThreshold, time.Minute)
	sessions := session.NewStore(mem)

	cfg := retry.APIConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 2 * time.Millisecond
	cfg.Jitter = false

	return &fixture{
		pipe:     New(client, limiter, breaker, sessions, WithRetryConfig(cfg)),
		client:   client,
		limiter:  limiter,
		breaker:  breaker,
		sessions: sessions,
	}
}

func TestAnalyzeRetriesTransientFailureAndSaves(t *testing.T) {
	client := &fakeClient{
		failures: 1,
		err:      errors.New("connection reset by peer"),
		plan:     "Declutter the living room: clear the coffee table first.",
	}
	fx := newFixture(t, client)

	out, msg := fx.pipe.AnalyzeImage(context.Background(), AnalyzeInput{
		Image: testImage(t),
		Save:  true,
	})
	require.Nil(t, msg)
	assert.Equal(t, 2, out.Attempts)
	assert.Contains(t, out.Analysis.Plan, "coffee table")

	require.NotNil(t, out.Session)
	assert.Contains(t, out.Session.Name, "Living Room")
	assert.Len(t, fx.sessions.All(), 1)
	assert.Equal(t, retry.Closed, fx.breaker.State())
}

func TestAnalyzeNonRetryableFailsOnce(t *testing.T) {
	client := &fakeClient{
		failures: 10,
		err:      errors.New("API key not valid. unauthorized"),
	}
	fx := newFixture(t, client)

	_, msg := fx.pipe.AnalyzeImage(context.Background(), AnalyzeInput{Image: testImage(t)})
	require.NotNil(t, msg)
	assert.Equal(t, usererr.CategoryAPI, msg.Category)
	assert.False(t, msg.Retryable)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, 1, fx.breaker.Snapshot().Failures)
}

func TestAnalyzeRateLimited(t *testing.T) {
	client := &fakeClient{plan: "ok"}
	fx := newFixture(t, client)

	for fx.limiter.TryConsume() {
	}

	_, msg := fx.pipe.AnalyzeImage(context.Background(), AnalyzeInput{Image: testImage(t)})
	require.NotNil(t, msg)
	assert.Equal(t, "Slow down a little", msg.Title)
	assert.True(t, msg.Retryable)
	assert.Greater(t, msg.RetryAfterSeconds, 0)
	// No request went out, so the breaker saw nothing.
	assert.Equal(t, 0, client.calls)
	assert.Equal(t, 0, fx.breaker.Snapshot().Failures)
}

func TestAnalyzeCircuitOpen(t *testing.T) {
	client := &fakeClient{plan: "ok"}
	fx := newFixture(t, client)

	for i := 0; i < retry.DefaultFailureThreshold; i++ {
		fx.breaker.RecordFailure()
	}

	_, msg := fx.pipe.AnalyzeImage(context.Background(), AnalyzeInput{Image: testImage(t)})
	require.NotNil(t, msg)
	assert.Equal(t, usererr.CategoryAPI, msg.Category)
	assert.True(t, msg.RetryAfterSeconds > 0)
	assert.Equal(t, 0, client.calls)
}

func TestAnalyzeRejectsUnsupportedFormat(t *testing.T) {
	fx := newFixture(t, &fakeClient{plan: "ok"})

	before := fx.limiter.Tokens()
	_, msg := fx.pipe.AnalyzeImage(context.Background(), AnalyzeInput{
		Image: domain.ImageData{DataURL: "data:image/bmp;base64,AAAA", MimeType: "image/bmp"},
	})
	require.NotNil(t, msg)
	assert.Equal(t, usererr.CategoryFile, msg.Category)
	// Validation failures must not burn rate-limit tokens.
	assert.Equal(t, before, fx.limiter.Tokens())
}

func TestSendChatAppendsBothTurns(t *testing.T) {
	client := &fakeClient{plan: "bedroom plan", reply: "Start with the nightstand."}
	fx := newFixture(t, client)

	sess, err := fx.sessions.Save(session.SaveInput{
		Image:    testImage(t),
		Analysis: domain.Analysis{Plan: "bedroom plan"},
	})
	require.NoError(t, err)

	out, msg := fx.pipe.SendChat(context.Background(), sess.ID, "Where do I start?")
	require.Nil(t, msg)
	assert.Equal(t, "Start with the nightstand.", out.Reply.Text)
	assert.Equal(t, domain.RoleAssistant, out.Reply.Role)
	assert.NotEmpty(t, out.Reply.ID)

	stored := fx.sessions.Get(sess.ID)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, domain.RoleUser, stored.Messages[0].Role)
	assert.Equal(t, "Where do I start?", stored.Messages[0].Text)
}

func TestSendChatRejectsInvalidText(t *testing.T) {
	fx := newFixture(t, &fakeClient{})

	_, msg := fx.pipe.SendChat(context.Background(), "any", "")
	require.NotNil(t, msg)
	assert.Equal(t, usererr.CategoryValidation, msg.Category)
	assert.Equal(t, 0, fx.client.chatCalls)
}

func TestSendChatUnknownSession(t *testing.T) {
	fx := newFixture(t, &fakeClient{})

	_, msg := fx.pipe.SendChat(context.Background(), "no-such-id", "hello")
	require.NotNil(t, msg)
	assert.False(t, msg.Retryable)
	assert.Equal(t, 0, fx.client.chatCalls)
}

func TestVisualizeAttachesImage(t *testing.T) {
	client := &fakeClient{visual: "data:image/png;base64,aGk="}
	fx := newFixture(t, client)

	sess, err := fx.sessions.Save(session.SaveInput{
		Image:    testImage(t),
		Analysis: domain.Analysis{Plan: "office", VisualizationPrompt: "a tidy office"},
	})
	require.NoError(t, err)

	url, msg := fx.pipe.Visualize(context.Background(), sess.ID)
	require.Nil(t, msg)
	assert.Equal(t, client.visual, url)
	assert.Equal(t, client.visual, fx.sessions.Get(sess.ID).VisualizationImage)
}

func TestAnalyzeServerErrorExhaustsRetries(t *testing.T) {
	client := &fakeClient{
		failures: 10,
		err:      errors.New("503 service unavailable"),
	}
	fx := newFixture(t, client)

	_, msg := fx.pipe.AnalyzeImage(context.Background(), AnalyzeInput{Image: testImage(t)})
	require.NotNil(t, msg)
	assert.True(t, msg.Retryable)
	// maxRetries+1 attempts before giving up.
	assert.Equal(t, 4, client.calls)
}
