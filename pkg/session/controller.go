package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shouni/gemini-imagine/pkg/domain"
	"github.com/shouni/gemini-imagine/pkg/generator"
	"github.com/shouni/gemini-imagine/pkg/history"
	"go.uber.org/zap"
)

// Controller は1セッション分の生成リクエストのライフサイクルを管理します。
// SessionState はこの Controller だけが更新します。
type Controller struct {
	mu      sync.Mutex
	state   domain.SessionState
	gateway generator.ImageGateway
	history *history.Store
	now     func() time.Time
	log     *zap.Logger
}

// NewController は Controller を作成します。store は Load 済みであることを想定しています。
func NewController(gateway generator.ImageGateway, store *history.Store, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		state:   domain.NewSessionState(),
		gateway: gateway,
		history: store,
		now:     time.Now,
		log:     log,
	}
}

// Submit はプロンプトから画像を1枚生成し、結果の状態を返します。
// 生成の失敗は状態の LastError に記録され、error としては返りません。
// error が返るのは入力不正と、生成中の二重送信だけです。
func (c *Controller) Submit(ctx context.Context, prompt string, ratio domain.AspectRatio) (domain.SessionState, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return c.State(), generator.ErrEmptyPrompt
	}
	if !ratio.IsValid() {
		return c.State(), fmt.Errorf("%w: %q", generator.ErrInvalidAspectRatio, ratio)
	}

	c.mu.Lock()
	next, err := BeginGeneration(c.state)
	if err != nil {
		c.mu.Unlock()
		return next, err
	}
	c.state = next
	c.mu.Unlock()

	payload, genErr := c.gateway.Generate(ctx, prompt, ratio)
	if genErr == nil && payload == nil {
		genErr = generator.ErrNoImageData
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if genErr != nil {
		c.state = FailGeneration(c.state, genErr)
		c.log.Info("画像生成に失敗しました", zap.String("error", c.state.LastError))
		return c.state, nil
	}

	img := domain.NewGeneratedImage(prompt, *payload, ratio, c.now())
	c.state = CompleteGeneration(c.state, img)
	c.history.Append(img)
	c.log.Info("画像を生成しました",
		zap.String("id", img.ID), zap.String("aspect_ratio", ratio.String()))
	return c.state, nil
}

// Enhance はプロンプト強化を委譲します。状態は変更しません。
func (c *Controller) Enhance(ctx context.Context, prompt string) generator.EnhanceResult {
	return c.gateway.Enhance(ctx, strings.TrimSpace(prompt))
}

// SelectFromHistory は履歴の画像を表示中にします。履歴の順序は変わりません。
func (c *Controller) SelectFromHistory(id string) (domain.SessionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.IsGenerating {
		return c.state, ErrGenerationInProgress
	}
	img, ok := c.history.Find(id)
	if !ok {
		return c.state, fmt.Errorf("%w: %s", ErrImageNotFound, id)
	}
	c.state = SelectImage(c.state, img)
	return c.state, nil
}

// ClearHistory は確認済みの場合のみ履歴と表示中の画像を削除します。
func (c *Controller) ClearHistory(confirmed bool) (domain.SessionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !confirmed {
		return c.state, ErrConfirmationRequired
	}
	if c.state.IsGenerating {
		return c.state, ErrGenerationInProgress
	}
	c.state = ResetAfterClear(c.state)
	c.history.Clear()
	c.log.Info("履歴を削除しました")
	return c.state, nil
}

// DismissError はエラー表示を閉じます。
func (c *Controller) DismissError() domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = DismissError(c.state)
	return c.state
}

// State は現在の状態を返します。
func (c *Controller) State() domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// History は履歴のコピーを返します。
func (c *Controller) History() domain.HistoryList {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.List()
}

// Snapshot は状態と履歴を同時に取得します。
func (c *Controller) Snapshot() (domain.SessionState, domain.HistoryList) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.history.List()
}
