package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CrisisConnect/internal/config"
)

func TestSetupLogger_JSON(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	setupLogger(&config.Config{LogLevel: "warn", LogFormat: "json"}, &buf)

	log.Info().Msg("hidden")
	log.Warn().Str("driver", "sqlite").Msg("visible")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "sqlite", entry["driver"])
	assert.Equal(t, "crisisconnect", entry["service"])
}

func TestSetupLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	setupLogger(&config.Config{LogLevel: "verbose", LogFormat: "json"}, &buf)

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	assert.Contains(t, buf.String(), "verbose")
}

func TestMetrics_RegisterAndCollect(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	m.RequestsCreated.WithLabelValues("high").Inc()
	m.RequestsCreated.WithLabelValues("high").Inc()
	m.ClusterRuns.Inc()
	m.ClustersLastSeen.Set(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsCreated.WithLabelValues("high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClusterRuns))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ClustersLastSeen))

	// 二重登録はエラー
	assert.Error(t, m.Register(reg))
}
