package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"CrisisConnect/internal/domain/model"
	"CrisisConnect/internal/domain/repository"
	"CrisisConnect/internal/infrastructure/database"
)

type GormRequestsRepository struct {
	client *database.SQLiteClient
}

func NewGormRequestsRepository(client *database.SQLiteClient) repository.RequestsRepository {
	return &GormRequestsRepository{
		client: client,
	}
}

func (r *GormRequestsRepository) Create(ctx context.Context, req *model.Request) error {
	record := toRequestRecord(req)

	err := r.client.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&record).Error
	})
	if err != nil {
		if isSQLiteConstraintError(err) {
			return fmt.Errorf("リクエストの作成に失敗: %w: %v", repository.ErrConstraintViolation, err)
		}
		return fmt.Errorf("リクエストの作成に失敗: %w", err)
	}

	req.ID = record.ID
	req.CreatedAt = record.CreatedAt
	return nil
}

func (r *GormRequestsRepository) GetAll(ctx context.Context) ([]model.Request, error) {
	var records []database.RequestRecord
	if err := r.client.GetDB().WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("リクエスト一覧の取得に失敗: %w", err)
	}

	requests := make([]model.Request, 0, len(records))
	for _, rec := range records {
		req, err := fromRequestRecord(rec)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func (r *GormRequestsRepository) HealthCheck(ctx context.Context) error {
	return r.client.HealthCheck(ctx)
}

func toRequestRecord(req *model.Request) database.RequestRecord {
	return database.RequestRecord{
		Name:     req.Name,
		Contact:  req.Contact,
		Needs:    req.Needs,
		Lat:      req.Lat,
		Lon:      req.Lon,
		Priority: req.Priority.String(),
	}
}

func fromRequestRecord(rec database.RequestRecord) (model.Request, error) {
	priority, err := model.ParsePriority(rec.Priority)
	if err != nil {
		return model.Request{}, fmt.Errorf("リクエストID %d の優先度が不正: %w", rec.ID, err)
	}
	return model.Request{
		ID:        rec.ID,
		Name:      rec.Name,
		Contact:   rec.Contact,
		Needs:     rec.Needs,
		Lat:       rec.Lat,
		Lon:       rec.Lon,
		Priority:  priority,
		CreatedAt: rec.CreatedAt,
	}, nil
}

func isSQLiteConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrCheckConstraintViolated) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "constraint failed")
}
