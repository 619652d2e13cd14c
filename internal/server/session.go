package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// SessionCookieName はブラウザセッションを識別する Cookie 名です。
	SessionCookieName = "imagine_session"

	// SessionIDLength はセッション ID のバイト長です（hex で2倍の文字数）。
	SessionIDLength = 16

	sessionIDKey = "imagine.sessionID"
)

// GenerateSessionID は暗号論的に安全なセッション ID を生成します。
func GenerateSessionID() (string, error) {
	b := make([]byte, SessionIDLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ValidateSessionID はセッション ID の形式を検証します。
func ValidateSessionID(id string) bool {
	if len(id) != SessionIDLength*2 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}

// SessionMiddleware はすべてのリクエストにセッション ID を割り当てます。
// Cookie が無いか不正な場合は新しい ID を発行します。
// MaxAge を付けないので、ブラウザ（タブ）を閉じるとセッションは終了します。
func SessionMiddleware(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookieName)
		if err != nil || !ValidateSessionID(id) {
			id, err = GenerateSessionID()
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
				return
			}
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     SessionCookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteStrictMode,
				Secure:   secure,
			})
		}

		c.Set(sessionIDKey, id)
		c.Next()
	}
}

// SessionID はミドルウェアが割り当てたセッション ID を返します。
func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
