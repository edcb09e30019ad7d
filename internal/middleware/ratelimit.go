package middleware

import (
	"strconv"
	"time"

	"cycup_backend/internal/config"
	"cycup_backend/internal/database"
	"cycup_backend/internal/logger"
	"cycup_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const tooManyRequestsMessage = "Too many requests. Please try again later."

// RateLimit - фиксированное окно на IP клиента в Redis.
// Без Redis лимит не применяется; при ошибке Redis запрос пропускается.
func RateLimit(rdb *database.Redis, bucket string, limit config.BucketLimit) gin.HandlerFunc {
	window := time.Duration(limit.WindowSeconds) * time.Second

	return func(c *gin.Context) {
		if rdb == nil || limit.Requests <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := "ratelimit:" + bucket + ":" + c.ClientIP()
		count, ttl, err := rdb.IncrWindow(c.Request.Context(), key, window)
		if err != nil {
			logger.CtxWarn(c.Request.Context(), "rate limiter unavailable, allowing request", "bucket", bucket, "error", err.Error())
			c.Next()
			return
		}
		if ttl <= 0 {
			ttl = window
		}

		remaining := int64(limit.Requests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if count > int64(limit.Requests) {
			c.Header("Retry-After", strconv.Itoa(int((ttl+time.Second-1)/time.Second)))
			logger.CtxWarn(c.Request.Context(), "rate limit exceeded", "bucket", bucket, "client_ip", c.ClientIP())
			apperrors.HandleError(c, apperrors.NewTooManyRequestsError(tooManyRequestsMessage))
			return
		}
		c.Next()
	}
}
