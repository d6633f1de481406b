package middleware

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"
	"voice-campaign-api/infrastructure/adapters"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var signingKey = []byte("test-signing-key")

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter() *gin.Engine {
	router := gin.New()
	handler := newAuthHandlerWithKeyfunc(func(*jwt.Token) (interface{}, error) {
		return signingKey, nil
	})
	router.Use(handler.AuthMiddleware())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/calls/status", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/campaigns/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString(ContextUserIDKey), "scopes": c.GetStringSlice(ContextScopesKey)})
	})
	return router
}

func signedToken(t *testing.T, claims CustomClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware(t *testing.T) {
	router := newAuthRouter()

	valid := signedToken(t, CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Scopes: "campaigns:read campaigns:write",
	})
	expired := signedToken(t, CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{name: "health is public", method: http.MethodGet, path: "/health", status: http.StatusOK},
		{name: "webhook is public", method: http.MethodPost, path: "/calls/status", status: http.StatusNoContent},
		{name: "missing token", method: http.MethodGet, path: "/campaigns/1", status: http.StatusUnauthorized},
		{name: "garbage token", method: http.MethodGet, path: "/campaigns/1", token: "not-a-jwt", status: http.StatusUnauthorized},
		{name: "expired token", method: http.MethodGet, path: "/campaigns/1", token: expired, status: http.StatusUnauthorized},
		{name: "valid token", method: http.MethodGet, path: "/campaigns/1", token: valid, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)
			assert.Equal(t, tt.status, recorder.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/campaigns/1", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.JSONEq(t, `{"user":"operator-1","scopes":["campaigns:read","campaigns:write"]}`, recorder.Body.String())
}

func twilioSignature(token string, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for key := range form {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	data := fullURL
	for _, key := range keys {
		data += key + form.Get(key)
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestTwilioSignatureMiddleware(t *testing.T) {
	const authToken = "twilio-auth-token"
	router := gin.New()
	router.POST("/calls/status", TwilioSignatureMiddleware(authToken, "https://calls.example.com/", adapters.NewNopLogger()),
		func(c *gin.Context) {
			c.String(http.StatusOK, c.PostForm("CallStatus"))
		})

	form := url.Values{"CallSid": {"CA123"}, "CallStatus": {"ringing"}}
	signature := twilioSignature(authToken, "https://calls.example.com/calls/status?attempt_id=a1", form)

	send := func(signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/calls/status?attempt_id=a1", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if signature != "" {
			req.Header.Set(twilioSignatureHeader, signature)
		}
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		return recorder
	}

	ok := send(signature)
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "ringing", ok.Body.String())

	assert.Equal(t, http.StatusForbidden, send("").Code)
	assert.Equal(t, http.StatusForbidden, send(twilioSignature("wrong-token", "https://calls.example.com/calls/status?attempt_id=a1", form)).Code)
}

func TestSSEMiddleware(t *testing.T) {
	router := gin.New()
	router.GET("/events", SSEMiddleware(3*time.Second), func(c *gin.Context) {
		c.String(http.StatusOK, HeartbeatInterval(c).String())
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/events", nil))

	assert.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", recorder.Header().Get("Cache-Control"))
	assert.Equal(t, "3s", recorder.Body.String())
}
