package session

import (
	"context"
	"sync"
	"time"

	"github.com/shouni/gemini-imagine/pkg/generator"
	"github.com/shouni/gemini-imagine/pkg/history"
	"go.uber.org/zap"
)

// StorageProvider はブラウザセッションごとのストレージ領域を払い出します。
type StorageProvider interface {
	Scope(sessionID string) history.Storage
	Drop(sessionID string)
}

type registryEntry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Registry はブラウザセッション ID ごとに Controller を保持します。
// 一定時間アクセスのないセッションは終了したものとみなして破棄します。
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	gateway generator.ImageGateway
	storage StorageProvider
	idleTTL time.Duration
	now     func() time.Time
	log     *zap.Logger
}

// NewRegistry は Registry を作成します。idleTTL が 0 以下なら破棄しません。
func NewRegistry(gateway generator.ImageGateway, storage StorageProvider, idleTTL time.Duration, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		entries: make(map[string]*registryEntry),
		gateway: gateway,
		storage: storage,
		idleTTL: idleTTL,
		now:     time.Now,
		log:     log,
	}
}

// Get はセッションの Controller を返します。初回アクセス時に履歴を読み込んで作成します。
func (r *Registry) Get(sessionID string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[sessionID]; ok {
		e.lastSeen = r.now()
		return e.ctrl
	}

	log := r.log.With(zap.String("session", shortID(sessionID)))
	store := history.NewStore(r.storage.Scope(sessionID), log)
	loaded := store.Load()

	ctrl := NewController(r.gateway, store, log)
	r.entries[sessionID] = &registryEntry{ctrl: ctrl, lastSeen: r.now()}
	log.Debug("セッションを開始しました", zap.Int("history", len(loaded)))
	return ctrl
}

// Forget はセッションの Controller と保存領域を破棄します。
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
	r.storage.Drop(sessionID)
}

// Len は保持しているセッション数を返します。
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep は idleTTL を超えてアクセスのないセッションを破棄し、その数を返します。
// 生成中のセッションは破棄しません。
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	removed := 0
	for id, e := range r.entries {
		if e.lastSeen.After(cutoff) || e.ctrl.State().IsGenerating {
			continue
		}
		delete(r.entries, id)
		r.storage.Drop(id)
		removed++
	}
	return removed
}

// Run は ctx が終了するまで interval ごとに Sweep を実行します。
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || r.idleTTL <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.log.Info("期限切れのセッションを破棄しました", zap.Int("count", n), zap.Int("remaining", r.Len()))
			}
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
