package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shouni/gemini-imagine/pkg/domain"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Gateway は Gemini へのプロンプト強化と画像生成の呼び出しを担当します。
// リトライは行いません。
type Gateway struct {
	aiClient   GenerativeModel
	textModel  string
	imageModel string
	log        *zap.Logger
}

// NewGateway は Gateway を初期化します。モデル名が空の場合は既定値を使います。
func NewGateway(aiClient GenerativeModel, textModel, imageModel string, log *zap.Logger) (*Gateway, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (GenerativeModel) is required")
	}
	if textModel == "" {
		textModel = DefaultTextModel
	}
	if imageModel == "" {
		imageModel = DefaultImageModel
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Gateway{
		aiClient:   aiClient,
		textModel:  textModel,
		imageModel: imageModel,
		log:        log,
	}, nil
}

// Enhance はプロンプトを写実的な表現に書き換えます。
// 失敗しても生成フローを止めないよう、元のプロンプトをそのまま返します。
func (g *Gateway) Enhance(ctx context.Context, prompt string) EnhanceResult {
	if strings.TrimSpace(prompt) == "" {
		return EnhanceResult{Text: ""}
	}

	resp, err := g.aiClient.GenerateContent(ctx, g.textModel, fmt.Sprintf(enhanceTemplate, prompt))
	if err != nil {
		g.log.Warn("プロンプト強化に失敗しました。元のプロンプトを使用します",
			zap.String("model", g.textModel), zap.Error(err))
		return EnhanceResult{Text: prompt, Degraded: true, Err: err}
	}

	enhanced := extractText(resp)
	if enhanced == "" {
		g.log.Warn("プロンプト強化の応答が空でした。元のプロンプトを使用します", zap.String("model", g.textModel))
		return EnhanceResult{Text: prompt, Degraded: true, Err: errors.New("empty enhancement response")}
	}

	return EnhanceResult{Text: enhanced}
}

// Generate は1回だけ画像生成を試み、画像パーツを取り出して返します。
func (g *Gateway) Generate(ctx context.Context, prompt string, ratio domain.AspectRatio) (*domain.ImagePayload, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	if !ratio.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAspectRatio, ratio)
	}

	apiRatio := NormalizeAspectRatio(ratio)
	g.log.Debug("Gemini に画像生成をリクエストします",
		zap.String("model", g.imageModel),
		zap.String("aspect_ratio", apiRatio.String()),
		zap.String("requested_aspect_ratio", ratio.String()))

	parts := []*genai.Part{{Text: prompt}}
	opts := gemini.GenerateOptions{
		AspectRatio: apiRatio.String(),
	}

	resp, err := g.aiClient.GenerateWithParts(ctx, g.imageModel, parts, opts)
	if err != nil {
		err = normalizeError(err)
		g.log.Error("Gemini Image Generation Error", zap.Error(err))
		return nil, err
	}

	payload, err := parseToResponse(resp)
	if err != nil {
		g.log.Error("Gemini Image Generation Error", zap.Error(err))
		return nil, err
	}
	return payload, nil
}

var _ ImageGateway = (*Gateway)(nil)
