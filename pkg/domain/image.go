package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AspectRatio は利用者が選択できる画像の縦横比です。
type AspectRatio string

const (
	AspectRatioSquare    AspectRatio = "1:1"
	AspectRatioTall      AspectRatio = "1:2"
	AspectRatioPortrait  AspectRatio = "2:3"
	AspectRatioMobile    AspectRatio = "9:16"
	AspectRatioCinematic AspectRatio = "16:9"
)

// AllAspectRatios は画面に表示する順序で全ての縦横比を返します。
func AllAspectRatios() []AspectRatio {
	return []AspectRatio{
		AspectRatioSquare,
		AspectRatioCinematic,
		AspectRatioMobile,
		AspectRatioPortrait,
		AspectRatioTall,
	}
}

// IsValid は固定の列挙値に含まれるかどうかを返します。
func (r AspectRatio) IsValid() bool {
	switch r {
	case AspectRatioSquare, AspectRatioTall, AspectRatioPortrait, AspectRatioMobile, AspectRatioCinematic:
		return true
	}
	return false
}

func (r AspectRatio) String() string { return string(r) }

// ParseAspectRatio は文字列を AspectRatio に変換します。
func ParseAspectRatio(s string) (AspectRatio, error) {
	r := AspectRatio(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unsupported aspect ratio %q", s)
	}
	return r, nil
}

// ImagePayload は Gemini から受け取った画像バイナリとその MIME タイプです。
type ImagePayload struct {
	Data     []byte
	MimeType string
}

// DataURI は追加の通信なしで描画できる data URI を組み立てます。
func (p ImagePayload) DataURI() string {
	return "data:" + p.MimeType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// GeneratedImage は1回の生成結果です。生成後は変更しません。
type GeneratedImage struct {
	ID          string
	Prompt      string
	ImageData   string // data URI
	CreatedAt   time.Time
	AspectRatio AspectRatio // 利用者が選んだ値（API へ送った値ではない）
}

// NewGeneratedImage は新しい ID を採番して GeneratedImage を作成します。
func NewGeneratedImage(prompt string, payload ImagePayload, ratio AspectRatio, now time.Time) GeneratedImage {
	return GeneratedImage{
		ID:          uuid.NewString(),
		Prompt:      prompt,
		ImageData:   payload.DataURI(),
		CreatedAt:   now,
		AspectRatio: ratio,
	}
}

// generatedImageJSON はセッションストレージ上の保存形式です。
type generatedImageJSON struct {
	ID          string      `json:"id"`
	Prompt      string      `json:"prompt"`
	Base64URL   string      `json:"base64Url"`
	Timestamp   int64       `json:"timestamp"`
	AspectRatio AspectRatio `json:"aspectRatio"`
}

func (g GeneratedImage) MarshalJSON() ([]byte, error) {
	return json.Marshal(generatedImageJSON{
		ID:          g.ID,
		Prompt:      g.Prompt,
		Base64URL:   g.ImageData,
		Timestamp:   g.CreatedAt.UnixMilli(),
		AspectRatio: g.AspectRatio,
	})
}

func (g *GeneratedImage) UnmarshalJSON(b []byte) error {
	var raw generatedImageJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*g = GeneratedImage{
		ID:          raw.ID,
		Prompt:      raw.Prompt,
		ImageData:   raw.Base64URL,
		CreatedAt:   time.UnixMilli(raw.Timestamp),
		AspectRatio: raw.AspectRatio,
	}
	return nil
}

// HistoryList は新しい順に並んだ生成履歴です。重複排除はしません。
type HistoryList []GeneratedImage
