package repository

import (
	"context"
	"errors"

	"CrisisConnect/internal/domain/model"
)

// ErrConstraintViolation NOT NULL や CHECK などの制約違反
var ErrConstraintViolation = errors.New("constraint violation")

// RequestsRepository 支援要請の永続化を担当するリポジトリインターフェース
type RequestsRepository interface {
	// Create は要請を保存し、ID と CreatedAt を request に設定する
	Create(ctx context.Context, request *model.Request) error
	// GetAll は全ての要請を登録順（ID昇順）で返す
	GetAll(ctx context.Context) ([]model.Request, error)
	// HealthCheck はストアへの接続を確認する
	HealthCheck(ctx context.Context) error
}
