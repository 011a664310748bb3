package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// requestsSchema requests テーブルの定義
const requestsSchema = `
CREATE TABLE IF NOT EXISTS requests (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	contact    TEXT,
	needs      TEXT NOT NULL,
	lat        DOUBLE PRECISION NOT NULL,
	lon        DOUBLE PRECISION NOT NULL,
	priority   TEXT NOT NULL CHECK (priority IN ('high', 'medium', 'low')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgreSQLClient PostgreSQL直接接続クライアント
type PostgreSQLClient struct {
	DB *sql.DB
}

// NewPostgreSQLClient 接続文字列から新しいPostgreSQLクライアントを作成
func NewPostgreSQLClient(ctx context.Context, dsn string, maxConns int) (*PostgreSQLClient, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("PostgreSQL接続の初期化に失敗: %w", err)
	}

	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	// 接続テスト
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("PostgreSQLへの接続に失敗: %w", err)
	}

	return &PostgreSQLClient{
		DB: db,
	}, nil
}

// EnsureSchema requests テーブルが存在しなければ作成する
func (pc *PostgreSQLClient) EnsureSchema(ctx context.Context) error {
	if _, err := pc.DB.ExecContext(ctx, requestsSchema); err != nil {
		return fmt.Errorf("requestsテーブルの作成に失敗: %w", err)
	}
	return nil
}

// Close データベース接続を閉じる
func (pc *PostgreSQLClient) Close() error {
	if pc.DB != nil {
		return pc.DB.Close()
	}
	return nil
}

// HealthCheck データベース接続のヘルスチェック
func (pc *PostgreSQLClient) HealthCheck(ctx context.Context) error {
	if pc.DB == nil {
		return fmt.Errorf("PostgreSQLクライアントが初期化されていません")
	}
	return pc.DB.PingContext(ctx)
}
