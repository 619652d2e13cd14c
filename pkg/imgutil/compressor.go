package imgutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"strings"
)

// Format はダウンロード時の出力形式です。
type Format string

const (
	FormatOriginal Format = ""
	FormatPNG      Format = "png"
	FormatJPEG     Format = "jpeg"
)

// DefaultJPEGQuality は JPEG へ変換するときの既定の品質です。
const DefaultJPEGQuality = 90

// ParseFormat はクエリ等で指定された形式名を解釈します。
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return FormatOriginal, nil
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("unsupported image format %q", s)
}

// Convert は画像データを指定形式に変換し、変換後のデータと MIME タイプを返します。
// 元の形式と同じ場合は再エンコードしません。
func Convert(data []byte, mimeType string, format Format, quality int) ([]byte, string, error) {
	switch format {
	case FormatOriginal:
		return data, mimeType, nil
	case FormatPNG:
		if mimeType == "image/png" {
			return data, mimeType, nil
		}
		out, err := reencode(data, func(buf *bytes.Buffer, img image.Image) error {
			return png.Encode(buf, img)
		})
		return out, "image/png", err
	case FormatJPEG:
		if mimeType == "image/jpeg" {
			return data, mimeType, nil
		}
		out, err := CompressToJPEG(data, quality)
		return out, "image/jpeg", err
	}
	return nil, "", fmt.Errorf("unsupported image format %q", format)
}

// CompressToJPEG は画像データ（PNG, GIF, JPEG等）をJPEG形式に変換します。
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	return reencode(data, func(buf *bytes.Buffer, img image.Image) error {
		return jpeg.Encode(buf, img, &jpeg.Options{Quality: quality})
	})
}

func reencode(data []byte, encode func(*bytes.Buffer, image.Image) error) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := encode(buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
