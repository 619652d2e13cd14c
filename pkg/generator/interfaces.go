package generator

import (
	"context"

	"github.com/shouni/gemini-imagine/pkg/domain"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// GenerativeModel は外部生成サービス（Gemini）との通信を抽象化します。
type GenerativeModel interface {
	// GenerateContent はテキストのプロンプトを送り、テキスト応答を受け取ります。
	GenerateContent(ctx context.Context, model string, prompt string) (*gemini.Response, error)
	// GenerateWithParts はパーツ群と生成オプションを送り、候補リストを受け取ります。
	GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
}

// ImageGateway はセッション制御層が利用する窓口です。
type ImageGateway interface {
	Enhance(ctx context.Context, prompt string) EnhanceResult
	Generate(ctx context.Context, prompt string, ratio domain.AspectRatio) (*domain.ImagePayload, error)
}
