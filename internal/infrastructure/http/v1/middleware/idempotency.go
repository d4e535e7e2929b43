package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"retailcore/internal/core/apperror"
	"retailcore/internal/infrastructure/cache"
	"retailcore/pkg/logger"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"

	maxIdempotencyBodyBytes = 1 << 20
)

// IdempotencyStore records in-flight and finished requests.
type IdempotencyStore interface {
	Acquire(ctx context.Context, scope, key, userID, operation, requestHash string) (*cache.IdempotencyReplay, error)
	Complete(ctx context.Context, scope, key string, statusCode int, contentType string, body []byte) error
	Fail(ctx context.Context, scope, key string, statusCode int, contentType string, body []byte) error
	Release(ctx context.Context, scope, key string) error
}

// capturingWriter keeps a copy of the response body for replay.
type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a POST that carries an
// Idempotency-Key already seen for the same tenant. Requests without the
// header pass through. Must run after Auth.
//
// 2xx responses are stored as completed and 4xx as failed, so a retry gets
// the same answer. 5xx responses release the key.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		actor, ok := ActorFrom(c)
		if !ok {
			c.Next()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1))
		if err != nil {
			_ = c.Error(apperror.NewValidation("unreadable request body"))
			c.Abort()
			return
		}
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])
		scope := actor.TenantID.String()
		operation := c.Request.Method + " " + c.Request.URL.Path
		ctx := c.Request.Context()

		replay, err := store.Acquire(ctx, scope, key, actor.ID.String(), operation, requestHash)
		if err != nil {
			if _, ok := apperror.AsAppError(err); !ok {
				err = apperror.NewInternal(err).WithDetail("component", "idempotency")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		if replay != nil {
			c.Header(HeaderReplayed, "true")
			if replay.StatusCode == http.StatusNoContent {
				c.Status(http.StatusNoContent)
			} else {
				c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			}
			c.Abort()
			return
		}

		w := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		// Render a pending error now so the stored body matches what the client sees.
		WriteError(c)

		status := w.Status()
		contentType := w.Header().Get("Content-Type")
		var finishErr error
		switch {
		case status >= 500:
			finishErr = store.Release(ctx, scope, key)
		case status >= 400:
			finishErr = store.Fail(ctx, scope, key, status, contentType, w.body.Bytes())
		default:
			finishErr = store.Complete(ctx, scope, key, status, contentType, w.body.Bytes())
		}
		if finishErr != nil {
			logger.Warn(ctx, "idempotency finish failed", "key", key, "status", status, "error", finishErr)
		}
	}
}
