package generator

import (
	"strings"

	"github.com/shouni/gemini-imagine/pkg/domain"
)

// NormalizeAspectRatio は API が受け付けない縦横比を近い値に置き換えます。
// 1:2 は 9:16 として送信します。それ以外はそのままです。
func NormalizeAspectRatio(r domain.AspectRatio) domain.AspectRatio {
	if r == domain.AspectRatioTall {
		return domain.AspectRatioMobile
	}
	return r
}

// normalizeError はメッセージを持たないエラーを ErrUnknownGeneration に置き換えます。
func normalizeError(err error) error {
	if err == nil {
		return nil
	}
	if strings.TrimSpace(err.Error()) == "" {
		return ErrUnknownGeneration
	}
	return err
}
