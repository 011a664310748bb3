package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"CrisisConnect/internal/application"
	"CrisisConnect/internal/domain/model"
	"CrisisConnect/internal/domain/repository"
)

// FieldError 422 レスポンスの details 要素
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RequestsHandler 救援リクエストに関するHTTPハンドラー
type RequestsHandler struct {
	requestsService application.RequestsService
}

// NewRequestsHandler RequestsHandlerの新しいインスタンスを作成
func NewRequestsHandler(requestsService application.RequestsService) *RequestsHandler {
	return &RequestsHandler{
		requestsService: requestsService,
	}
}

// CreateRequest POST /api/requests - 救援リクエストの登録
func (h *RequestsHandler) CreateRequest(c *gin.Context) {
	var input model.CreateRequestInput

	if err := c.ShouldBindJSON(&input); err != nil {
		if details := bindingFieldErrors(err); len(details) > 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation_error",
				"message": "Request body failed validation",
				"details": details,
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	request, err := h.requestsService.CreateRequest(c.Request.Context(), &input)
	if err != nil {
		var verr *application.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation_error",
				"message": "Request body failed validation",
				"details": []FieldError{{Field: verr.Field, Message: verr.Message}},
			})
		case errors.Is(err, repository.ErrConstraintViolation):
			log.Warn().Err(err).Str("request_id", requestID(c)).Msg("制約違反によりリクエストを拒否")
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "constraint_violation",
				"message": "Request violates a storage constraint",
			})
		default:
			log.Error().Err(err).Str("request_id", requestID(c)).Msg("リクエストの登録に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "Failed to create request",
			})
		}
		return
	}

	c.JSON(http.StatusOK, request)
}

// ListRequests GET /api/requests - 登録済みリクエストの一覧
func (h *RequestsHandler) ListRequests(c *gin.Context) {
	requests, err := h.requestsService.ListRequests(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(c)).Msg("リクエスト一覧の取得に失敗")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list requests",
		})
		return
	}

	c.JSON(http.StatusOK, requests)
}

// GetClusters GET /api/clusters - 現在のリクエストから算出したクラスタ
func (h *RequestsHandler) GetClusters(c *gin.Context) {
	clusters, err := h.requestsService.GetClusters(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(c)).Msg("クラスタの算出に失敗")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to compute clusters",
		})
		return
	}

	c.JSON(http.StatusOK, clusters)
}

// bindingFieldErrors バインディングエラーのうちフィールド単位で説明できるものを変換する。
// JSON 構文エラーなどは nil を返す
func bindingFieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, FieldError{Field: fe.Field(), Message: validationMessage(fe)})
		}
		return details
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return []FieldError{{
			Field:   field,
			Message: fmt.Sprintf("must be of type %s, got %s", typeErr.Type.String(), typeErr.Value),
		}}
	}

	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	default:
		return fmt.Sprintf("%s failed on the %q rule", fe.Field(), fe.Tag())
	}
}
