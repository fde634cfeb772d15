package idempotency

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/api"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/auth"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/metrics"

	"github.com/gin-gonic/gin"
)

// HeaderKey carries the client-chosen idempotency token.
const HeaderKey = "Idempotency-Key"

const (
	minTokenLen = 16
	maxTokenLen = 128
)

type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware replays a previous response for the same (route, method,
// caller, token) within the TTL. Requests without the header pass through
// untouched. Server errors are never cached, so a retry after a 5xx executes
// for real.
func Middleware(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(HeaderKey)
		if token == "" {
			c.Next()
			return
		}
		if len(token) < minTokenLen || len(token) > maxTokenLen {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{
				Error: fmt.Sprintf("Idempotency key must be %d to %d characters", minTokenLen, maxTokenLen),
				Code:  api.CodeInvalidInput,
			})
			c.Abort()
			return
		}

		userID, _ := auth.GetUserID(c)
		key := fmt.Sprintf("%s:%s:%d:%s", c.Request.Method, c.FullPath(), userID, token)

		for {
			cached, owner := store.Acquire(key)
			if cached != nil {
				replay(c, cached)
				return
			}
			if owner {
				break
			}
			if cached = store.Wait(key); cached != nil {
				replay(c, cached)
				return
			}
			// Owner abandoned the entry; contend again.
		}

		writer := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		status := writer.Status()
		if status >= http.StatusInternalServerError {
			store.Abandon(key)
			return
		}

		store.Complete(key, &Response{
			Status:      status,
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body.Bytes(),
		})
	}
}

func replay(c *gin.Context, resp *Response) {
	metrics.IdempotentReplaysTotal.Inc()
	c.Header("X-Idempotent-Replay", "true")
	c.Data(resp.Status, resp.ContentType, resp.Body)
	c.Abort()
}
