package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/mailgate/core"
	"github.com/layer-3/mailgate/secure"
	"github.com/layer-3/mailgate/service"
)

// Handlers contains the HTTP handlers for the dispatch and 2FA endpoints.
type Handlers struct {
	dispatch  *service.DispatchService
	twoFactor *secure.TwoFactor
}

// NewHandlers creates the handler set.
func NewHandlers(dispatch *service.DispatchService, twoFactor *secure.TwoFactor) *Handlers {
	return &Handlers{
		dispatch:  dispatch,
		twoFactor: twoFactor,
	}
}

// Contact handles a contact-form submission.
func (h *Handlers) Contact(c *gin.Context) {
	var payload core.ContactPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	receipt, err := h.dispatch.SendContactEmail(c.Request.Context(), payload, clientIdentity(c))
	if err != nil {
		writeDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message_id":    receipt.MessageID,
		"dispatched_at": receipt.DispatchedAt,
	})
}

// writeDispatchError maps the error taxonomy onto HTTP responses. Content
// and sender-policy rejections deliberately return a generic message: the
// triggered patterns are audit data, not client feedback.
func writeDispatchError(c *gin.Context, err error) {
	if rejection, ok := core.AsPolicyRejection(err); ok {
		switch rejection.Kind {
		case core.RejectRateLimit:
			c.Header("Retry-After", formatSeconds(rejection.Decision.RetryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"remaining":   rejection.Decision.Remaining,
				"retry_after": rejection.Decision.RetryAfter.Milliseconds(),
			})
		case core.RejectValidation:
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "Validation failed",
				"fields": rejection.FieldErrors,
			})
		default:
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Content rejected for security reasons",
			})
		}
		return
	}

	if _, ok := core.AsTransportError(err); ok {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Delivery failed, please retry later"})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
}

// TwoFactorSetup enrolls an account into TOTP and returns the secret, QR
// payload and one-time backup codes.
func (h *Handlers) TwoFactorSetup(c *gin.Context) {
	var req struct {
		Account string `json:"account" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	setup, err := h.twoFactor.Setup(req.Account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set up two-factor authentication"})
		return
	}

	c.JSON(http.StatusOK, setup)
}

// TwoFactorVerify checks a TOTP code against a secret.
func (h *Handlers) TwoFactorVerify(c *gin.Context) {
	var req struct {
		Code   string `json:"code" binding:"required"`
		Secret string `json:"secret" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": h.twoFactor.Verify(req.Code, req.Secret)})
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func formatSeconds(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
