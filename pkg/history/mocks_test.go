package history

import (
	"fmt"
	"time"

	"github.com/shouni/gemini-imagine/pkg/domain"
)

// failingStorage は任意の操作でエラーを返すモックなのだ。
type failingStorage struct {
	Storage
	getErr    error
	setErr    error
	removeErr error
	setCalls  int
}

func (f *failingStorage) GetItem(key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.Storage.GetItem(key)
}

func (f *failingStorage) SetItem(key, value string) error {
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	return f.Storage.SetItem(key, value)
}

func (f *failingStorage) RemoveItem(key string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	return f.Storage.RemoveItem(key)
}

func newImage(n int) domain.GeneratedImage {
	return domain.GeneratedImage{
		ID:          fmt.Sprintf("img-%d", n),
		Prompt:      fmt.Sprintf("prompt %d", n),
		ImageData:   "data:image/png;base64,AAAA",
		CreatedAt:   time.UnixMilli(int64(1700000000000 + n)),
		AspectRatio: domain.AspectRatioSquare,
	}
}
