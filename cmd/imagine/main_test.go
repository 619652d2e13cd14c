package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/shouni/gemini-imagine/pkg/generator"
)

// fakeModel は GenerativeModel のテスト用実装なのだ。
type fakeModel struct {
	imageResp *gemini.Response
	textResp  *gemini.Response
	err       error

	imageCalls int
	lastRatio  string
	lastPrompt string
}

func (f *fakeModel) GenerateContent(ctx context.Context, model, prompt string) (*gemini.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.textResp, nil
}

func (f *fakeModel) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	f.imageCalls++
	f.lastRatio = opts.AspectRatio
	if len(parts) > 0 {
		f.lastPrompt = parts[0].Text
	}
	return f.imageResp, nil
}

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

func newFakeModel() *fakeModel {
	return &fakeModel{
		imageResp: &gemini.Response{RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{InlineData: &genai.Blob{MIMEType: "image/png", Data: pngBytes}},
				}},
			}},
		}},
		textResp: &gemini.Response{RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: "a photorealistic cat"}}},
			}},
		}},
	}
}

func newTestApp(out, errOut *bytes.Buffer, model generator.GenerativeModel) *App {
	return &App{
		Out: out,
		Err: errOut,
		NewModel: func(ctx context.Context, apiKey string) (generator.GenerativeModel, error) {
			return model, nil
		},
		IsTerminal: func(io.Writer) bool { return false },
	}
}

func setAPIKey(t *testing.T, key string) {
	t.Helper()
	for _, k := range []string{"IMAGINE_GEMINI_API_KEY", "API_KEY"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("GEMINI_API_KEY", key)
	if key == "" {
		os.Unsetenv("GEMINI_API_KEY")
	}
}

func execute(app *App, args ...string) error {
	cmd := newRootCmd(app)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestDefaultApp(t *testing.T) {
	app := DefaultApp()
	assert.NotNil(t, app.Out)
	assert.NotNil(t, app.Err)
	assert.NotNil(t, app.NewModel)
	assert.False(t, app.IsTerminal(&bytes.Buffer{}))
}

func TestGenerate_SavesFile(t *testing.T) {
	setAPIKey(t, "test-key")
	model := newFakeModel()
	var out, errOut bytes.Buffer
	path := filepath.Join(t.TempDir(), "fox.png")

	err := execute(newTestApp(&out, &errOut, model), "generate", "-a", "1:2", "-o", path, "a red fox")
	require.NoError(t, err)

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, saved)
	assert.Equal(t, "9:16", model.lastRatio)
	assert.Equal(t, "a red fox", model.lastPrompt)
	assert.Contains(t, out.String(), "Saved: "+path)
}

func TestGenerate_DefaultFilename(t *testing.T) {
	setAPIKey(t, "test-key")
	dir := t.TempDir()
	t.Chdir(dir)

	var out, errOut bytes.Buffer
	require.NoError(t, execute(newTestApp(&out, &errOut, newFakeModel()), "generate", "a cat"))

	matches, err := filepath.Glob(filepath.Join(dir, "gemini-imagine-*.png"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestGenerate_Stdout(t *testing.T) {
	setAPIKey(t, "test-key")

	t.Run("パイプには書き出すのだ", func(t *testing.T) {
		var out, errOut bytes.Buffer
		require.NoError(t, execute(newTestApp(&out, &errOut, newFakeModel()), "generate", "-o", "-", "a cat"))
		assert.Equal(t, pngBytes, out.Bytes())
	})

	t.Run("端末には書き出さないのだ", func(t *testing.T) {
		var out, errOut bytes.Buffer
		app := newTestApp(&out, &errOut, newFakeModel())
		app.IsTerminal = func(io.Writer) bool { return true }
		err := execute(app, "generate", "-o", "-", "a cat")
		assert.ErrorContains(t, err, "terminal")
		assert.Empty(t, out.Bytes())
	})
}

func TestGenerate_WithEnhance(t *testing.T) {
	setAPIKey(t, "test-key")
	model := newFakeModel()
	var out, errOut bytes.Buffer

	err := execute(newTestApp(&out, &errOut, model), "generate", "-e", "-o", filepath.Join(t.TempDir(), "cat.png"), "a cat")
	require.NoError(t, err)
	assert.Equal(t, "a photorealistic cat", model.lastPrompt)
	assert.Contains(t, errOut.String(), "Enhanced prompt: a photorealistic cat")
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("API キーが無いとエラーなのだ", func(t *testing.T) {
		setAPIKey(t, "")
		var out, errOut bytes.Buffer
		err := execute(newTestApp(&out, &errOut, newFakeModel()), "generate", "a cat")
		assert.ErrorContains(t, err, "API key")
	})

	t.Run("未対応の縦横比はエラーなのだ", func(t *testing.T) {
		setAPIKey(t, "test-key")
		model := newFakeModel()
		var out, errOut bytes.Buffer
		err := execute(newTestApp(&out, &errOut, model), "generate", "-a", "4:3", "a cat")
		assert.Error(t, err)
		assert.Zero(t, model.imageCalls)
	})

	t.Run("候補が無いと生成失敗なのだ", func(t *testing.T) {
		setAPIKey(t, "test-key")
		model := newFakeModel()
		model.imageResp = &gemini.Response{RawResponse: &genai.GenerateContentResponse{}}
		var out, errOut bytes.Buffer
		err := execute(newTestApp(&out, &errOut, model), "generate", "-o", filepath.Join(t.TempDir(), "x.png"), "a cat")
		assert.ErrorContains(t, err, "No candidates returned from Gemini API")
	})

	t.Run("クライアント作成の失敗を伝えるのだ", func(t *testing.T) {
		setAPIKey(t, "test-key")
		var out, errOut bytes.Buffer
		app := newTestApp(&out, &errOut, nil)
		app.NewModel = func(ctx context.Context, apiKey string) (generator.GenerativeModel, error) {
			return nil, errors.New("dial failed")
		}
		err := execute(app, "generate", "a cat")
		assert.ErrorContains(t, err, "dial failed")
	})
}

func TestEnhance(t *testing.T) {
	setAPIKey(t, "test-key")

	var out, errOut bytes.Buffer
	require.NoError(t, execute(newTestApp(&out, &errOut, newFakeModel()), "enhance", "a cat"))
	assert.Equal(t, "a photorealistic cat", strings.TrimSpace(out.String()))

	t.Run("失敗したら元のプロンプトを表示するのだ", func(t *testing.T) {
		model := newFakeModel()
		model.err = errors.New("quota exceeded")
		var out, errOut bytes.Buffer
		require.NoError(t, execute(newTestApp(&out, &errOut, model), "enhance", "a cat"))
		assert.Equal(t, "a cat", strings.TrimSpace(out.String()))
		assert.Contains(t, errOut.String(), "Warning")
	})
}
