package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request through slog.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(c.Request.Context(), level, "http server request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", status),
			slog.Duration("dur", time.Since(start)),
			slog.String("client", c.ClientIP()),
		)
	}
}

// NewRouter wires handlers, templates and middleware into a gin engine.
// Forwarding headers are honoured only from trustedProxies (IPs or CIDRs);
// with none given the client IP is always the connection's remote address.
func NewRouter(h *Handler, log *slog.Logger, trustedProxies ...string) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return nil, err
	}
	r.Use(gin.Recovery(), RequestLogger(log))
	r.SetHTMLTemplate(Templates())

	r.GET("/", h.Index)
	r.GET("/healthz", h.Health)
	r.POST("/", h.Submit)
	r.POST("/api/instructions", h.API)
	return r, nil
}
