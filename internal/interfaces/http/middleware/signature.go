package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the gateway's HMAC of the raw request body
const SignatureHeader = "X-Signature"

// Sign returns the signature a gateway sends for body
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// WebhookSignature rejects callbacks whose X-Signature is not the
// HMAC-SHA256 of the body under secret. The body is restored for binding.
func WebhookSignature(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if len(key) == 0 {
			abort(c, dto.ErrCodeInvalidSignature, "Webhook secret is not configured")
			return
		}
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			abort(c, dto.ErrCodeRequestTooLarge, "Unable to read request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		got := strings.TrimSpace(c.GetHeader(SignatureHeader))
		if got == "" || !hmac.Equal([]byte(got), []byte(Sign(key, body))) {
			abort(c, dto.ErrCodeInvalidSignature, "Invalid webhook signature")
			return
		}
		c.Next()
	}
}
