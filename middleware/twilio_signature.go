package middleware

import (
	"net/http"
	"strings"
	"voice-campaign-api/application/ports/outbound"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/client"
)

const twilioSignatureHeader = "X-Twilio-Signature"

// TwilioSignatureMiddleware rejects callbacks whose X-Twilio-Signature does
// not match the public URL and form parameters signed with the auth token.
func TwilioSignatureMiddleware(authToken string, publicBaseURL string, logger outbound.LoggerPort) gin.HandlerFunc {
	validator := client.NewRequestValidator(authToken)
	base := strings.TrimRight(publicBaseURL, "/")

	return func(c *gin.Context) {
		signature := c.GetHeader(twilioSignatureHeader)
		if signature == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing request signature"})
			return
		}
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed form body"})
			return
		}

		params := make(map[string]string, len(c.Request.PostForm))
		for key, values := range c.Request.PostForm {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}

		url := base + c.Request.URL.RequestURI()
		if !validator.Validate(url, params, signature) {
			logger.WarnWithFields("Rejected callback with invalid signature", map[string]interface{}{
				"url": url,
			})
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid request signature"})
			return
		}

		c.Next()
	}
}
