package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Request ids tie a control-API request line to the handler logs it
// produced; the formatter renders them in the second bracket column. Four
// random bytes is plenty for a localhost API, a collision only interleaves
// two short log trails.

type requestIDContextKey struct{}

const ginRequestIDKey = "openclaw-request-id"

// NewRequestID returns an 8-character hex id for one control-API request.
func NewRequestID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)
}

// WithRequestID attaches a request id to ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// RequestIDFrom returns the request id carried by ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// tagGinRequest stores the request id on the Gin context so handlers can
// pick it up without threading the request context around.
func tagGinRequest(c *gin.Context, requestID string) {
	if c != nil {
		c.Set(ginRequestIDKey, requestID)
	}
}

func ginRequestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, exists := c.Get(ginRequestIDKey); exists {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

// RequestEntry returns a logrus entry tagged with the current request's id,
// so handler-side logs line up with the middleware's request line.
func RequestEntry(c *gin.Context) *log.Entry {
	id := ginRequestID(c)
	if id == "" && c != nil && c.Request != nil {
		id = RequestIDFrom(c.Request.Context())
	}
	if id == "" {
		return log.NewEntry(log.StandardLogger())
	}
	return log.WithField("request_id", id)
}
