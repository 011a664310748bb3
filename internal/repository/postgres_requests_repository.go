package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"CrisisConnect/internal/domain/model"
	"CrisisConnect/internal/domain/repository"
	"CrisisConnect/internal/infrastructure/database"
)

type PostgresRequestsRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresRequestsRepository(client *database.PostgreSQLClient) repository.RequestsRepository {
	return &PostgresRequestsRepository{
		client: client,
	}
}

// Create 1件のリクエストをトランザクション内で挿入し、採番されたIDと作成日時を反映する
func (r *PostgresRequestsRepository) Create(ctx context.Context, req *model.Request) (err error) {
	tx, err := r.client.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `INSERT INTO requests (name, contact, needs, lat, lon, priority)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	row := tx.QueryRowContext(ctx, query, req.Name, req.Contact, req.Needs, req.Lat, req.Lon, req.Priority)
	if err = row.Scan(&req.ID, &req.CreatedAt); err != nil {
		return wrapPostgresError("リクエストの作成に失敗", err)
	}

	if err = tx.Commit(); err != nil {
		return wrapPostgresError("トランザクションのコミットに失敗", err)
	}
	return nil
}

// GetAll 全リクエストをID昇順で取得
func (r *PostgresRequestsRepository) GetAll(ctx context.Context) ([]model.Request, error) {
	query := `SELECT id, name, contact, needs, lat, lon, priority, created_at FROM requests ORDER BY id`

	rows, err := r.client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("リクエスト一覧の取得に失敗: %w", err)
	}
	defer rows.Close()

	requests := make([]model.Request, 0)
	for rows.Next() {
		var (
			req     model.Request
			contact sql.NullString
		)
		if err := rows.Scan(&req.ID, &req.Name, &contact, &req.Needs, &req.Lat, &req.Lon, &req.Priority, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("リクエスト行の読み取りに失敗: %w", err)
		}
		if contact.Valid {
			req.Contact = &contact.String
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("リクエスト一覧の走査に失敗: %w", err)
	}

	return requests, nil
}

func (r *PostgresRequestsRepository) HealthCheck(ctx context.Context) error {
	return r.client.HealthCheck(ctx)
}

// wrapPostgresError 整合性制約違反(SQLSTATE クラス23)を ErrConstraintViolation として返す
func wrapPostgresError(msg string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return fmt.Errorf("%s: %w: %s", msg, repository.ErrConstraintViolation, pqErr.Message)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
