package application

import (
	"context"
	"fmt"
	"math"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"CrisisConnect/internal/domain/model"
	"CrisisConnect/internal/domain/repository"
	"CrisisConnect/internal/domain/service"
	"CrisisConnect/internal/observability"
)

// ValidationError 入力値の検証エラー。Field はJSONのフィールド名
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RequestsService 救援リクエストの登録・一覧・クラスタリングを提供するサービス
type RequestsService interface {
	// CreateRequest 優先度を判定してリクエストを登録
	CreateRequest(ctx context.Context, input *model.CreateRequestInput) (*model.Request, error)

	// ListRequests 登録済みリクエストをID順に取得
	ListRequests(ctx context.Context) ([]model.Request, error)

	// GetClusters 登録済みリクエスト全体からクラスタを算出
	GetClusters(ctx context.Context) ([]model.Cluster, error)

	// CheckReadiness ストアへの疎通を確認
	CheckReadiness(ctx context.Context) error
}

// requestsServiceImpl RequestsServiceの実装
type requestsServiceImpl struct {
	requestsRepo repository.RequestsRepository
	engine       *service.ClusterEngine
	metrics      *observability.Metrics
	clock        clockwork.Clock
}

// NewRequestsService RequestsServiceの新しいインスタンスを作成
func NewRequestsService(
	requestsRepo repository.RequestsRepository,
	engine *service.ClusterEngine,
	metrics *observability.Metrics,
	clock clockwork.Clock,
) RequestsService {
	return &requestsServiceImpl{
		requestsRepo: requestsRepo,
		engine:       engine,
		metrics:      metrics,
		clock:        clock,
	}
}

func (s *requestsServiceImpl) CreateRequest(ctx context.Context, input *model.CreateRequestInput) (*model.Request, error) {
	if err := s.validateCreateRequestInput(input); err != nil {
		return nil, err
	}

	req := &model.Request{
		Name:     input.Name,
		Contact:  input.Contact,
		Needs:    *input.Needs,
		Lat:      *input.Lat,
		Lon:      *input.Lon,
		Priority: service.AssignPriority(*input.Needs),
	}

	if err := s.requestsRepo.Create(ctx, req); err != nil {
		s.metrics.StoreErrors.WithLabelValues("create").Inc()
		return nil, fmt.Errorf("リクエストの保存に失敗: %w", err)
	}

	s.metrics.RequestsCreated.WithLabelValues(req.Priority.String()).Inc()
	log.Info().
		Int64("request_id", req.ID).
		Str("priority", req.Priority.String()).
		Msg("リクエストを登録しました")

	return req, nil
}

func (s *requestsServiceImpl) ListRequests(ctx context.Context) ([]model.Request, error) {
	requests, err := s.requestsRepo.GetAll(ctx)
	if err != nil {
		s.metrics.StoreErrors.WithLabelValues("list").Inc()
		return nil, fmt.Errorf("リクエスト一覧の取得に失敗: %w", err)
	}
	return requests, nil
}

func (s *requestsServiceImpl) GetClusters(ctx context.Context) ([]model.Cluster, error) {
	requests, err := s.ListRequests(ctx)
	if err != nil {
		return nil, err
	}

	start := s.clock.Now()
	clusters := s.engine.GetClusters(requests)
	elapsed := s.clock.Since(start)

	s.metrics.ClusterRuns.Inc()
	s.metrics.ClusterDuration.Observe(elapsed.Seconds())
	s.metrics.ClustersLastSeen.Set(float64(len(clusters)))

	log.Debug().
		Int("requests", len(requests)).
		Int("clusters", len(clusters)).
		Dur("elapsed", elapsed).
		Msg("クラスタリング完了")

	return clusters, nil
}

func (s *requestsServiceImpl) CheckReadiness(ctx context.Context) error {
	if err := s.requestsRepo.HealthCheck(ctx); err != nil {
		s.metrics.StoreErrors.WithLabelValues("health").Inc()
		return err
	}
	return nil
}

// validateCreateRequestInput バインディングで検出できない項目を検証する
func (s *requestsServiceImpl) validateCreateRequestInput(input *model.CreateRequestInput) error {
	if input == nil {
		return &ValidationError{Field: "body", Message: "request body is required"}
	}
	if input.Name == "" {
		return &ValidationError{Field: "name", Message: "name must not be empty"}
	}
	if input.Needs == nil {
		return &ValidationError{Field: "needs", Message: "needs is required"}
	}
	if input.Lat == nil {
		return &ValidationError{Field: "lat", Message: "lat is required"}
	}
	if input.Lon == nil {
		return &ValidationError{Field: "lon", Message: "lon is required"}
	}
	if math.IsNaN(*input.Lat) || math.IsInf(*input.Lat, 0) {
		return &ValidationError{Field: "lat", Message: "lat must be a finite number"}
	}
	if math.IsNaN(*input.Lon) || math.IsInf(*input.Lon, 0) {
		return &ValidationError{Field: "lon", Message: "lon must be a finite number"}
	}
	return nil
}
