package generator

import (
	"fmt"
	"strings"

	"github.com/shouni/gemini-imagine/pkg/domain"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// PartKind はレスポンスに含まれるパーツの種別です。
type PartKind int

const (
	PartKindOther PartKind = iota
	PartKindText
	PartKindInlineImage
)

func (k PartKind) String() string {
	switch k {
	case PartKindText:
		return "text"
	case PartKindInlineImage:
		return "inline_image"
	default:
		return "other"
	}
}

// ClassifyPart はパーツを既知の種別に分類します。未知の形は PartKindOther です。
func ClassifyPart(part *genai.Part) PartKind {
	switch {
	case part == nil:
		return PartKindOther
	case part.InlineData != nil:
		if strings.HasPrefix(part.InlineData.MIMEType, "image/") && len(part.InlineData.Data) > 0 {
			return PartKindInlineImage
		}
		return PartKindOther
	case part.Text != "" && !part.Thought:
		return PartKindText
	default:
		return PartKindOther
	}
}

// parseToResponse は最初の候補から最初の画像パーツを取り出します。
func parseToResponse(resp *gemini.Response) (*domain.ImagePayload, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, ErrNoCandidates
	}

	// 最初の候補 (Candidate) のみを利用する。
	candidate := resp.RawResponse.Candidates[0]
	if candidate == nil {
		return nil, ErrNoImageData
	}

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if ClassifyPart(part) == PartKindInlineImage {
				return &domain.ImagePayload{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}

	// 安全フィルター等によるブロックの確認
	if isAbnormalFinish(candidate.FinishReason) {
		return nil, fmt.Errorf("%w (FinishReason: %s)", ErrNoImageData, candidate.FinishReason)
	}
	return nil, ErrNoImageData
}

func isAbnormalFinish(reason genai.FinishReason) bool {
	return reason != "" && reason != genai.FinishReasonUnspecified && reason != genai.FinishReasonStop
}

// extractText は最初の候補のテキストパーツを連結します。
func extractText(resp *gemini.Response) string {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return ""
	}
	candidate := resp.RawResponse.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if ClassifyPart(part) == PartKindText {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}
