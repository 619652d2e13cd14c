package presets

import (
	_ "embed"
	"fmt"

	"github.com/shouni/gemini-imagine/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var defaultYAML []byte

// AspectRatioOption は縦横比ピッカーの1項目です。
type AspectRatioOption struct {
	Value domain.AspectRatio `yaml:"value" json:"value"`
	Label string             `yaml:"label" json:"label"`
	Icon  string             `yaml:"icon" json:"icon"`
}

// Presets は画面に表示する固定の選択肢です。
type Presets struct {
	AppName       string              `yaml:"app_name" json:"appName"`
	AspectRatios  []AspectRatioOption `yaml:"aspect_ratios" json:"aspectRatios"`
	SamplePrompts []string            `yaml:"sample_prompts" json:"samplePrompts"`
}

// Default は埋め込みの presets.yaml を読み込みます。
func Default() (*Presets, error) {
	return Parse(defaultYAML)
}

// Parse は YAML を解析し、縦横比が既知の値だけで構成されていることを確認します。
func Parse(b []byte) (*Presets, error) {
	var p Presets
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("presets の解析に失敗しました: %w", err)
	}
	if p.AppName == "" {
		return nil, fmt.Errorf("app_name is required")
	}
	if len(p.AspectRatios) == 0 {
		return nil, fmt.Errorf("aspect_ratios must not be empty")
	}

	seen := make(map[domain.AspectRatio]bool, len(p.AspectRatios))
	for _, opt := range p.AspectRatios {
		if !opt.Value.IsValid() {
			return nil, fmt.Errorf("unsupported aspect ratio %q in presets", opt.Value)
		}
		if seen[opt.Value] {
			return nil, fmt.Errorf("duplicate aspect ratio %q in presets", opt.Value)
		}
		seen[opt.Value] = true
	}
	return &p, nil
}
