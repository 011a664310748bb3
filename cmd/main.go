package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"CrisisConnect/internal/application"
	"CrisisConnect/internal/config"
	domainrepo "CrisisConnect/internal/domain/repository"
	"CrisisConnect/internal/domain/service"
	"CrisisConnect/internal/handler"
	"CrisisConnect/internal/infrastructure/database"
	"CrisisConnect/internal/infrastructure/firestore"
	"CrisisConnect/internal/observability"
	"CrisisConnect/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定の読み込みに失敗: %v\n", err)
		os.Exit(1)
	}
	observability.SetupLogger(cfg)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("サーバーが異常終了しました")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()

	repo, closeStore, err := openStore(ctx, cfg, clock)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error().Err(err).Msg("ストアのクローズに失敗")
		}
	}()
	log.Info().Str("driver", cfg.StoreDriver).Msg("ストアに接続しました")

	engine := service.NewClusterEngine(cfg.ClusterEps, cfg.ClusterMinSamples)
	requestsService := application.NewRequestsService(repo, engine, metrics, clock)

	gin.SetMode(cfg.GinMode)
	router := handler.SetupRouter(
		handler.NewRequestsHandler(requestsService),
		handler.NewHealthHandler(requestsService),
		metrics,
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", cfg.HTTPAddr).
			Float64("cluster_eps", engine.Eps()).
			Int("cluster_min_samples", engine.MinSamples()).
			Msg("CrisisConnect server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("シャットダウンを開始します")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore STORE_DRIVER に応じてリポジトリとクローズ関数を返す
func openStore(ctx context.Context, cfg *config.Config, clock clockwork.Clock) (domainrepo.RequestsRepository, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		client, err := database.NewSQLiteClient(database.SQLiteConfig{
			Path:     cfg.SQLitePath,
			MaxConns: cfg.DBMaxConns,
			Clock:    clock,
		})
		if err != nil {
			return nil, nil, err
		}
		return repository.NewGormRequestsRepository(client), client.Close, nil

	case config.StorePostgres:
		dsn, err := cfg.PostgresDSN()
		if err != nil {
			return nil, nil, err
		}
		client, err := database.NewPostgreSQLClient(ctx, dsn, cfg.DBMaxConns)
		if err != nil {
			return nil, nil, err
		}
		if err := client.EnsureSchema(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return repository.NewPostgresRequestsRepository(client), client.Close, nil

	case config.StoreSupabase:
		client, err := database.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewSupabaseRequestsRepository(client), func() error { return nil }, nil

	case config.StoreFirestore:
		client, err := firestore.NewFirestoreClient(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewFirestoreRequestsRepository(client, clock), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("STORE_DRIVER が不正です: %q", cfg.StoreDriver)
	}
}
