package session

import (
	"errors"
	"strings"

	"github.com/shouni/gemini-imagine/pkg/domain"
)

// GenericErrorMessage は失敗がメッセージを持たないときに表示する文言です。
const GenericErrorMessage = "Failed to generate image. Please try again."

var (
	ErrGenerationInProgress = errors.New("a generation is already in progress")
	ErrConfirmationRequired = errors.New("clearing history requires confirmation")
	ErrImageNotFound        = errors.New("image not found in history")
)

// BeginGeneration は Idle（またはエラー付き Idle）から Generating へ遷移します。
// 直前のエラーと表示中の画像はクリアされます。
func BeginGeneration(s domain.SessionState) (domain.SessionState, error) {
	if s.Phase == domain.PhaseGenerating || s.IsGenerating {
		return s, ErrGenerationInProgress
	}
	s.Phase = domain.PhaseGenerating
	s.IsGenerating = true
	s.LastError = ""
	s.CurrentImage = nil
	return s, nil
}

// CompleteGeneration は生成結果を表示中の画像にして Idle へ戻します。
func CompleteGeneration(s domain.SessionState, img domain.GeneratedImage) domain.SessionState {
	s.Phase = domain.PhaseIdle
	s.IsGenerating = false
	s.LastError = ""
	s.CurrentImage = &img
	return s
}

// FailGeneration はエラーメッセージを記録して Error へ遷移します。
func FailGeneration(s domain.SessionState, err error) domain.SessionState {
	s.Phase = domain.PhaseError
	s.IsGenerating = false
	s.LastError = ErrorMessage(err)
	return s
}

// SelectImage は履歴の画像を表示中にします。外部呼び出しは行いません。
func SelectImage(s domain.SessionState, img domain.GeneratedImage) domain.SessionState {
	s.CurrentImage = &img
	return s
}

// ResetAfterClear は履歴削除後に表示中の画像を外します。
func ResetAfterClear(s domain.SessionState) domain.SessionState {
	s.CurrentImage = nil
	return s
}

// DismissError はエラー表示を閉じます。
func DismissError(s domain.SessionState) domain.SessionState {
	if s.Phase == domain.PhaseError {
		s.Phase = domain.PhaseIdle
	}
	s.LastError = ""
	return s
}

// ErrorMessage は利用者に表示するエラー文言を取り出します。
func ErrorMessage(err error) string {
	if err == nil {
		return GenericErrorMessage
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return GenericErrorMessage
}
