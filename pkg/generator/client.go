package generator

import (
	"context"
	"fmt"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// GenAIModel は genai SDK を使った GenerativeModel の実装です。
type GenAIModel struct {
	client *genai.Client
}

// NewGenAIModel は API キーを使って Gemini API 用のクライアントを作成します。
func NewGenAIModel(ctx context.Context, apiKey string) (*GenAIModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai クライアントの作成に失敗しました: %w", err)
	}
	return &GenAIModel{client: client}, nil
}

func (m *GenAIModel) GenerateContent(ctx context.Context, model string, prompt string) (*gemini.Response, error) {
	resp, err := m.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return nil, err
	}
	return &gemini.Response{RawResponse: resp}, nil
}

func (m *GenAIModel) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	var config *genai.GenerateContentConfig
	if opts.AspectRatio != "" {
		config = &genai.GenerateContentConfig{
			ImageConfig: &genai.ImageConfig{AspectRatio: opts.AspectRatio},
		}
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := m.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, err
	}
	return &gemini.Response{RawResponse: resp}, nil
}

var _ GenerativeModel = (*GenAIModel)(nil)
