package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// ストアの種類
const (
	StoreSQLite    = "sqlite"
	StorePostgres  = "postgres"
	StoreSupabase  = "supabase"
	StoreFirestore = "firestore"
)

// Config 環境変数から読み込むアプリケーション設定
type Config struct {
	HTTPAddr        string
	GinMode         string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	StoreDriver string
	SQLitePath  string
	DBMaxConns  int
	DatabaseURL string

	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseDBPassword string

	FirestoreProjectID string

	// クラスタリングのパラメータ
	ClusterEps        float64
	ClusterMinSamples int
}

// Load 環境変数から設定を読み込み、未設定の項目にはデフォルト値を使う
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	maxConns, err := parsePositiveInt("DB_MAX_CONNS", 4)
	if err != nil {
		return nil, err
	}

	eps, err := strconv.ParseFloat(envOrDefault("CLUSTER_EPS", "0.01"), 64)
	if err != nil || math.IsNaN(eps) || math.IsInf(eps, 0) || eps <= 0 {
		return nil, errors.New("CLUSTER_EPS は有限の正の数である必要があります")
	}

	minSamples, err := parsePositiveInt("CLUSTER_MIN_SAMPLES", 2)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        httpAddr(),
		GinMode:         envOrDefault("GIN_MODE", "release"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StoreDriver: strings.ToLower(envOrDefault("STORE_DRIVER", StoreSQLite)),
		SQLitePath:  envOrDefault("SQLITE_PATH", "crisisconnect.db"),
		DBMaxConns:  maxConns,
		DatabaseURL: os.Getenv("DATABASE_URL"),

		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:    os.Getenv("SUPABASE_ANON_KEY"),
		SupabaseDBPassword: os.Getenv("SUPABASE_DB_PASSWORD"),

		FirestoreProjectID: os.Getenv("FIRESTORE_PROJECT_ID"),

		ClusterEps:        eps,
		ClusterMinSamples: minSamples,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PostgresDSN DATABASE_URL、なければ Supabase の接続情報から接続文字列を組み立てる
func (c *Config) PostgresDSN() (string, error) {
	if c.DatabaseURL != "" {
		return c.DatabaseURL, nil
	}
	if c.SupabaseURL == "" || c.SupabaseDBPassword == "" {
		return "", errors.New("DATABASE_URL または SUPABASE_URL と SUPABASE_DB_PASSWORD の設定が必要です")
	}

	// https://xxx.supabase.co -> xxx.supabase.co
	host := strings.TrimPrefix(strings.TrimPrefix(c.SupabaseURL, "https://"), "http://")
	host = strings.TrimSuffix(host, "/")

	// Supabase の接続プーラー（ポート6543）を使用
	return fmt.Sprintf(
		"host=db.%s port=6543 user=postgres password=%s dbname=postgres sslmode=require",
		host, c.SupabaseDBPassword,
	), nil
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT は json または console である必要があります: %q", c.LogFormat)
	}

	switch c.StoreDriver {
	case StoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH が設定されていません")
		}
	case StorePostgres:
		if _, err := c.PostgresDSN(); err != nil {
			return err
		}
	case StoreSupabase:
		if c.SupabaseURL == "" {
			return errors.New("SUPABASE_URL環境変数が設定されていません")
		}
		if c.SupabaseAnonKey == "" {
			return errors.New("SUPABASE_ANON_KEY環境変数が設定されていません")
		}
	case StoreFirestore:
		if c.FirestoreProjectID == "" {
			return errors.New("FIRESTORE_PROJECT_ID環境変数が設定されていません")
		}
	default:
		return fmt.Errorf("STORE_DRIVER が不正です: %q", c.StoreDriver)
	}
	return nil
}

// httpAddr HTTP_ADDR を優先し、Cloud Run などで PORT のみ設定されている場合はそれを使う
func httpAddr() string {
	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		return addr
	}
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8000"
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s は正の期間である必要があります", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s は正の整数である必要があります", key)
	}
	return n, nil
}
