package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shouni/gemini-imagine/internal/presets"
	"github.com/shouni/gemini-imagine/pkg/domain"
	"github.com/shouni/gemini-imagine/pkg/generator"
	"github.com/shouni/gemini-imagine/pkg/imgutil"
	"github.com/shouni/gemini-imagine/pkg/session"
)

//go:embed web/index.html
var indexHTML []byte

type Handler struct {
	registry *session.Registry
	presets  *presets.Presets
	log      *zap.Logger
}

func NewHandler(registry *session.Registry, p *presets.Presets, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		registry: registry,
		presets:  p,
		log:      log,
	}
}

// sessionView は状態変更系 API の共通レスポンスです。
type sessionView struct {
	State   domain.SessionState `json:"state"`
	History domain.HistoryList  `json:"history"`
}

type promptRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspectRatio"`
}

type enhanceResponse struct {
	Prompt   string `json:"prompt"`
	Degraded bool   `json:"degraded"`
}

func (h *Handler) controller(c *gin.Context) *session.Controller {
	return h.registry.Get(SessionID(c))
}

func view(ctrl *session.Controller) sessionView {
	state, hist := ctrl.Snapshot()
	if hist == nil {
		hist = domain.HistoryList{}
	}
	return sessionView{State: state, History: hist}
}

func (h *Handler) GetUI(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (h *Handler) GetPresets(c *gin.Context) {
	c.JSON(http.StatusOK, h.presets)
}

func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, view(h.controller(c)))
}

func (h *Handler) EnhancePrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": generator.ErrEmptyPrompt.Error()})
		return
	}

	res := h.controller(c).Enhance(c.Request.Context(), req.Prompt)
	c.JSON(http.StatusOK, enhanceResponse{Prompt: res.Text, Degraded: res.Degraded})
}

func (h *Handler) GenerateImage(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ratio := domain.AspectRatioSquare
	if req.AspectRatio != "" {
		parsed, err := domain.ParseAspectRatio(req.AspectRatio)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ratio = parsed
	}

	ctrl := h.controller(c)
	// 開始した生成はクライアントが切断しても最後まで実行する
	ctx := context.WithoutCancel(c.Request.Context())
	state, err := ctrl.Submit(ctx, req.Prompt, ratio)
	switch {
	case errors.Is(err, session.ErrGenerationInProgress):
		c.JSON(http.StatusConflict, view(ctrl))
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if state.Phase == domain.PhaseError {
		c.JSON(http.StatusBadGateway, view(ctrl))
		return
	}
	c.JSON(http.StatusOK, view(ctrl))
}

func (h *Handler) SelectImage(c *gin.Context) {
	ctrl := h.controller(c)
	_, err := ctrl.SelectFromHistory(c.Param("id"))
	switch {
	case errors.Is(err, session.ErrImageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, session.ErrGenerationInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.log.Error("履歴の選択に失敗しました", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to select image"})
		return
	}
	c.JSON(http.StatusOK, view(ctrl))
}

func (h *Handler) ClearHistory(c *gin.Context) {
	ctrl := h.controller(c)
	_, err := ctrl.ClearHistory(c.Query("confirm") == "true")
	switch {
	case errors.Is(err, session.ErrConfirmationRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, session.ErrGenerationInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.log.Error("履歴の削除に失敗しました", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear history"})
		return
	}
	c.JSON(http.StatusOK, view(ctrl))
}

func (h *Handler) DismissError(c *gin.Context) {
	ctrl := h.controller(c)
	ctrl.DismissError()
	c.JSON(http.StatusOK, view(ctrl))
}

// DownloadCurrent は表示中の画像を添付ファイルとして返します。
// format=jpeg を指定すると JPEG に再エンコードします。
func (h *Handler) DownloadCurrent(c *gin.Context) {
	format, err := imgutil.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	img := h.controller(c).State().CurrentImage
	if img == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No image to download"})
		return
	}

	mimeType, data, err := imgutil.DecodeDataURI(img.ImageData)
	if err != nil {
		h.log.Error("画像データの読み込みに失敗しました", zap.String("id", img.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read image"})
		return
	}

	out, outMime, err := imgutil.Convert(data, mimeType, format, imgutil.DefaultJPEGQuality)
	if err != nil {
		h.log.Error("画像の変換に失敗しました", zap.String("id", img.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to convert image"})
		return
	}

	filename := DownloadFilename(img.ID, outMime)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, outMime, out)
}

// DownloadFilename はダウンロード時のファイル名を返します。
func DownloadFilename(id, mimeType string) string {
	return "gemini-imagine-" + id + imgutil.Extension(mimeType)
}
