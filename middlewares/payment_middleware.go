package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yeremiapane/restaurant-floor/utils"
)

// PaymentSecurityHeaders keeps settlement responses out of caches.
func PaymentSecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		c.Next()
	}
}

// PaymentRateLimiter throttles settlement attempts across all clients.
func PaymentRateLimiter(perSecond float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			utils.RespondJSON(c, http.StatusTooManyRequests, "please wait before making another payment request", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// LogPaymentRequest writes an audit line for every settlement attempt.
func LogPaymentRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"order_id":   c.Param("order_id"),
			"user_id":    c.GetUint("user_id"),
			"request_id": c.GetString("request_id"),
			"status":     c.Writer.Status(),
			"duration":   time.Since(start),
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			utils.ErrorLogger.WithFields(fields).Error("payment request failed")
			return
		}
		utils.InfoLogger.WithFields(fields).Info("payment request")
	}
}
