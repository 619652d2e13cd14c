package domain

// Phase はセッションの状態遷移上の位置です。
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseGenerating Phase = "generating"
	PhaseError      Phase = "error" // エラーメッセージ付きの Idle
)

// SessionState はページ（ブラウザセッション）単位の一時的な状態です。
type SessionState struct {
	Phase        Phase           `json:"phase"`
	CurrentImage *GeneratedImage `json:"currentImage"`
	IsGenerating bool            `json:"isGenerating"`
	LastError    string          `json:"error,omitempty"`
}

// NewSessionState は空の初期状態を返します。
func NewSessionState() SessionState {
	return SessionState{Phase: PhaseIdle}
}
