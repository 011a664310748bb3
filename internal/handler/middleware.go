package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CrisisConnect/internal/observability"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID 受け取った X-Request-ID を引き継ぎ、なければ UUID を発行する
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// AccessLog 1リクエストにつき1行のアクセスログを出力する
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zerolog.InfoLevel
		switch {
		case status >= 500:
			level = zerolog.ErrorLevel
		case status >= 400:
			level = zerolog.WarnLevel
		}

		log.WithLevel(level).
			Str("request_id", requestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", routeLabel(c)).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Metrics ルート単位でリクエスト数とレイテンシを記録する
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := routeLabel(c)
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// EchoPreflightHeaders プリフライトで要求されたヘッダーをそのまま許可する。
// cors.New より前に置き、CORS ヘッダーが付いた応答の書き出し時に Access-Control-Allow-Headers を差し替える
func EchoPreflightHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		requested := c.GetHeader("Access-Control-Request-Headers")
		if c.Request.Method != http.MethodOptions || c.GetHeader("Origin") == "" || requested == "" {
			c.Next()
			return
		}
		c.Writer = &preflightHeadersWriter{ResponseWriter: c.Writer, requested: requested}
		c.Next()
	}
}

// preflightHeadersWriter ヘッダー送信の直前に許可ヘッダーを書き換える
type preflightHeadersWriter struct {
	gin.ResponseWriter
	requested string
	applied   bool
}

func (w *preflightHeadersWriter) apply() {
	if w.applied {
		return
	}
	w.applied = true
	// オリジンが拒否された場合は CORS ヘッダー自体が無いので何もしない
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		return
	}
	w.Header().Set("Access-Control-Allow-Headers", w.requested)
}

func (w *preflightHeadersWriter) WriteHeader(code int) {
	w.apply()
	w.ResponseWriter.WriteHeader(code)
}

func (w *preflightHeadersWriter) WriteHeaderNow() {
	w.apply()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *preflightHeadersWriter) Write(data []byte) (int, error) {
	w.apply()
	return w.ResponseWriter.Write(data)
}

func (w *preflightHeadersWriter) WriteString(s string) (int, error) {
	w.apply()
	return w.ResponseWriter.WriteString(s)
}

// routeLabel 未登録パスでラベルが増えないよう、マッチしたルートのテンプレートを返す
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
