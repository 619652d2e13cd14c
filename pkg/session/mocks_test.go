package session

import (
	"context"
	"sync"

	"github.com/shouni/gemini-imagine/pkg/domain"
	"github.com/shouni/gemini-imagine/pkg/generator"
	"github.com/shouni/gemini-imagine/pkg/history"
)

// mockGateway は generator.ImageGateway のテスト用モックなのだ。
type mockGateway struct {
	mu           sync.Mutex
	generateFunc func(ctx context.Context, prompt string, ratio domain.AspectRatio) (*domain.ImagePayload, error)
	enhanceFunc  func(ctx context.Context, prompt string) generator.EnhanceResult

	generateCalls int
	enhanceCalls  int
	lastPrompt    string
	lastRatio     domain.AspectRatio
}

func (m *mockGateway) Generate(ctx context.Context, prompt string, ratio domain.AspectRatio) (*domain.ImagePayload, error) {
	m.mu.Lock()
	m.generateCalls++
	m.lastPrompt = prompt
	m.lastRatio = ratio
	fn := m.generateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, ratio)
	}
	return &domain.ImagePayload{Data: []byte("png"), MimeType: "image/png"}, nil
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

func (m *mockGateway) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generateCalls
}

func newTestController(gw generator.ImageGateway) (*Controller, *history.Store, *history.MemoryStorage) {
	mem := history.NewMemoryStorage(0)
	store := history.NewStore(mem.Scope("test"), nil)
	store.Load()
	return NewController(gw, store, nil), store, mem
}
