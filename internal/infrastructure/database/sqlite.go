package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/jonboulle/clockwork"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// RequestRecord requests テーブルの行
type RequestRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"not null"`
	Contact   *string
	Needs     string    `gorm:"not null"`
	Lat       float64   `gorm:"not null"`
	Lon       float64   `gorm:"not null"`
	Priority  string    `gorm:"not null;check:chk_requests_priority,priority IN ('high','medium','low')"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName テーブル名を固定する
func (RequestRecord) TableName() string {
	return "requests"
}

// SQLiteConfig SQLiteストアの設定
type SQLiteConfig struct {
	Path     string
	MaxConns int
	Clock    clockwork.Clock
}

// SQLiteClient GORM + SQLite のクライアント
type SQLiteClient struct {
	DB    *gorm.DB
	sqlDB *sql.DB
}

// NewSQLiteClient SQLiteファイルを開き、マイグレーションとPRAGMA設定を行う
func NewSQLiteClient(cfg SQLiteConfig) (*SQLiteClient, error) {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	// 接続ごとに必要なPRAGMAはDSNで指定し、プール内の全接続に適用させる
	dsn := cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("SQLiteのオープンに失敗: %w", err)
	}

	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		Conn:       sqlDB,
	}, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return clock.Now().UTC() },
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("GORMの初期化に失敗: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 4
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("SQLiteへの接続に失敗: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("マイグレーションに失敗: %w", err)
	}

	// journal_mode はデータベースファイルに永続化される
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("WALモードの設定に失敗: %w", err)
	}

	return &SQLiteClient{DB: db, sqlDB: sqlDB}, nil
}

func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "001_requests",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&RequestRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("requests")
			},
		},
	})
	return m.Migrate()
}

// GetDB GORMインスタンスを取得
func (sc *SQLiteClient) GetDB() *gorm.DB {
	return sc.DB
}

// Close データベース接続を閉じる
func (sc *SQLiteClient) Close() error {
	return sc.sqlDB.Close()
}

// HealthCheck データベース接続のヘルスチェック
func (sc *SQLiteClient) HealthCheck(ctx context.Context) error {
	return sc.sqlDB.PingContext(ctx)
}
