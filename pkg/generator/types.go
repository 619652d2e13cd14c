package generator

import "errors"

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image"
)

var (
	ErrNoCandidates       = errors.New("No candidates returned from Gemini API")
	ErrNoImageData        = errors.New("No image data found in the response.")
	ErrUnknownGeneration  = errors.New("An unknown error occurred during image generation.")
	ErrEmptyPrompt        = errors.New("prompt must not be empty")
	ErrInvalidAspectRatio = errors.New("unsupported aspect ratio")
)

// EnhanceResult はプロンプト強化の結果です。呼び出し側から見て常に成功します。
// 失敗時は Text に元のプロンプトが入り、Degraded が true になります。
type EnhanceResult struct {
	Text     string
	Degraded bool
	Err      error
}

// enhanceTemplate の %s には元のプロンプトが入ります。
const enhanceTemplate = `You are an expert photographic prompt engineer and Pinterest content strategist. Your goal is to rewrite the user's prompt to generate an EXTREMELY PHOTOREALISTIC image that looks like a high-end, trending Pin.

Guidelines:
1. PINTEREST VISUAL ANALYSIS: Make sure to include this: Pinterest Visual Analysis - Based on analysis of top performing pins:- Overall Aesthetic, Dominant Colors, Common Objects/Products. Use this analysis to enhance the composition, lighting, and styling of the image description.
2. REALISM & QUALITY: Add keywords for "RAW photo", "8k uhd", "film grain", "natural skin texture", "imperfections", "soft natural lighting", "dof", "fujifilm", "realistic", "500 dpi", "high pixel density", "sharp focus".
3. TEXT: If the prompt includes text/quotes (e.g. 'sign says "Hello"'), ensure the rewritten prompt explicitly specifies: 'text: "Hello"' and describes the font/typography clearly and legibly.
4. OUTPUT: Return ONLY the enhanced prompt text.

Original prompt: "%s"`
