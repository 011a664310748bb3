package handler

import (
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"CrisisConnect/internal/observability"
)

var registerTagNameOnce sync.Once

// useJSONFieldNames 検証エラーのフィールド名をJSONタグ名で返すようにする
func useJSONFieldNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// SetupRouter ルーティングとミドルウェアを設定したエンジンを返す
func SetupRouter(requestsHandler *RequestsHandler, healthHandler *HealthHandler, metrics *observability.Metrics) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(
		RequestID(),
		Metrics(metrics),
		AccessLog(),
		gin.Recovery(),
		EchoPreflightHeaders(),
		cors.New(cors.Config{
			AllowOriginFunc:  func(string) bool { return true },
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	r.GET("/", healthHandler.Root)
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/requests", requestsHandler.CreateRequest)
		api.GET("/requests", requestsHandler.ListRequests)
		api.GET("/clusters", requestsHandler.GetClusters)
	}

	return r
}
