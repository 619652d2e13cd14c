package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/shouni/gemini-imagine/internal/presets"
	"github.com/shouni/gemini-imagine/pkg/domain"
	"github.com/shouni/gemini-imagine/pkg/generator"
	"github.com/shouni/gemini-imagine/pkg/history"
	"github.com/shouni/gemini-imagine/pkg/session"
)

// mockGateway は generator.ImageGateway のテスト用モックなのだ。
type mockGateway struct {
	mu           sync.Mutex
	generateFunc func(ctx context.Context, prompt string, ratio domain.AspectRatio) (*domain.ImagePayload, error)
	enhanceFunc  func(ctx context.Context, prompt string) generator.EnhanceResult

	generateCalls int
	enhanceCalls  int
	lastRatio     domain.AspectRatio
}

func (m *mockGateway) Generate(ctx context.Context, prompt string, ratio domain.AspectRatio) (*domain.ImagePayload, error) {
	m.mu.Lock()
	m.generateCalls++
	m.lastRatio = ratio
	fn := m.generateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, ratio)
	}
	return &domain.ImagePayload{Data: testPNG(), MimeType: "image/png"}, nil
}

func (m *mockGateway) Enhance(ctx context.Context, prompt string) generator.EnhanceResult {
	m.mu.Lock()
	m.enhanceCalls++
	fn := m.enhanceFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	return generator.EnhanceResult{Text: "enhanced " + prompt}
}

func (m *mockGateway) counts() (generate, enhance int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generateCalls, m.enhanceCalls
}

func testPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func newTestRouter(t *testing.T, gw generator.ImageGateway) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	p, err := presets.Default()
	require.NoError(t, err)
	reg := session.NewRegistry(gw, history.NewMemoryStorage(0), time.Hour, nil)
	return NewRouter(NewHandler(reg, p, nil), false, nil)
}

func doRequest(t *testing.T, r http.Handler, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// newSession は新しいセッション Cookie を払い出すのだ。
func newSession(t *testing.T, r http.Handler) *http.Cookie {
	t.Helper()
	rec := doRequest(t, r, http.MethodGet, "/health", nil, nil)
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie was not issued")
	return nil
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) sessionView {
	t.Helper()
	var v sessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}
