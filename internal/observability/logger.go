package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CrisisConnect/internal/config"
)

// SetupLogger 設定に従ってグローバルロガーのレベルと出力形式を設定する
func SetupLogger(cfg *config.Config) {
	setupLogger(cfg, os.Stderr)
}

func setupLogger(cfg *config.Config, out io.Writer) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("service", "crisisconnect").Logger()

	if err != nil {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("不明なログレベルのため info を使用します")
	}
}
