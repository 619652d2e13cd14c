package history

import (
	"encoding/json"

	"github.com/shouni/gemini-imagine/pkg/domain"
	"go.uber.org/zap"
)

// StorageKey は履歴を保存するセッションストレージのキーです。
const StorageKey = "gemini_image_history"

// Store は1セッション分の生成履歴を保持します。
// 保存の失敗は警告ログのみで、メモリ上の履歴が常に正となります。
// 並行アクセスは想定していないため、呼び出し側（Controller）で直列化してください。
type Store struct {
	storage Storage
	items   domain.HistoryList
	log     *zap.Logger
}

// NewStore は Store を作成します。履歴を読み込むには Load を呼びます。
func NewStore(storage Storage, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{storage: storage, log: log}
}

// Load はセッションストレージから履歴を読み込みます。
// 読み込みや解析に失敗した場合は空の履歴を返し、エラーは返しません。
func (s *Store) Load() domain.HistoryList {
	s.items = nil

	raw, ok, err := s.storage.GetItem(StorageKey)
	if err != nil {
		s.log.Error("履歴の読み込みに失敗しました。空の履歴で開始します", zap.String("key", StorageKey), zap.Error(err))
		return s.List()
	}
	if !ok || raw == "" {
		return s.List()
	}

	var items domain.HistoryList
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.log.Error("履歴の読み込みに失敗しました。空の履歴で開始します", zap.String("key", StorageKey), zap.Error(err))
		return s.List()
	}

	s.items = items
	return s.List()
}

// Append は画像を先頭に追加し、履歴全体を上書き保存します。
func (s *Store) Append(img domain.GeneratedImage) {
	s.items = append(domain.HistoryList{img}, s.items...)
	s.persist()
}

// Clear はメモリ上の履歴と保存済みの履歴を削除します。元に戻せません。
func (s *Store) Clear() {
	s.items = nil
	if err := s.storage.RemoveItem(StorageKey); err != nil {
		s.log.Warn("保存済みの履歴の削除に失敗しました", zap.String("key", StorageKey), zap.Error(err))
	}
}

// List は履歴のコピーを新しい順で返します。
func (s *Store) List() domain.HistoryList {
	out := make(domain.HistoryList, len(s.items))
	copy(out, s.items)
	return out
}

// Find は ID で履歴を検索します。
func (s *Store) Find(id string) (domain.GeneratedImage, bool) {
	for _, img := range s.items {
		if img.ID == id {
			return img, true
		}
	}
	return domain.GeneratedImage{}, false
}

func (s *Store) persist() {
	b, err := json.Marshal(s.items)
	if err != nil {
		s.log.Warn("履歴のエンコードに失敗しました", zap.Error(err))
		return
	}
	if err := s.storage.SetItem(StorageKey, string(b)); err != nil {
		s.log.Warn("履歴の保存に失敗しました。容量超過の可能性があります",
			zap.String("key", StorageKey), zap.Int("entries", len(s.items)), zap.Error(err))
	}
}
