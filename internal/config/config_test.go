package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/tracker"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TRACKER_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, []string{"localhost:19092"}, cfg.KafkaBrokers)
	assert.Equal(t, "supplier.events", cfg.KafkaTopicEvents)
	assert.Equal(t, "supplier.blacklist", cfg.KafkaTopicBlacklist)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, tracker.DefaultConfig(), cfg.Tracker)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TRACKER_CONFIG", "")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("TRACKER_CRITICAL_SCORE", "25")
	t.Setenv("TRACKER_SUSPENSION_DURATION", "168h")
	t.Setenv("TRACKER_WEIGHTS_QUALITY", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 25, cfg.Tracker.CriticalScore)
	assert.Equal(t, 7*24*time.Hour, cfg.Tracker.SuspensionDuration)
	assert.Equal(t, 0.5, cfg.Tracker.Weights.Quality)
	assert.Equal(t, 0.25, cfg.Tracker.Weights.OnTime)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	body := []byte(`
http_addr: ":7070"
tracker:
  impact_threshold: 9
  shipping_window: 20
  severity_penalties:
    critical: 30
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))
	t.Setenv("TRACKER_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.Equal(t, 9, cfg.Tracker.ImpactThreshold)
	assert.Equal(t, 20, cfg.Tracker.ShippingWindow)
	assert.Equal(t, 30.0, cfg.Tracker.SeverityPenalties.Critical)
	assert.Equal(t, 10.0, cfg.Tracker.SeverityPenalties.High)
}

func TestLoad_RejectsInvalidTrackerSettings(t *testing.T) {
	t.Setenv("TRACKER_CONFIG", "")
	t.Setenv("TRACKER_SHIPPING_WINDOW", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shipping window")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("TRACKER_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
