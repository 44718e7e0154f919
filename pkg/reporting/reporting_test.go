package reporting

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun() *RunReport {
	start := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	return &RunReport{
		RunID:      "run-1234",
		Building:   "office.yaml",
		StartTime:  start,
		EndTime:    start.Add(90 * time.Second),
		Duration:   "1m30s",
		Responders: 2,
		FireWeight: 0.5,
		Trials: []TrialReport{
			{Seed: 1, FireOrigin: "server_room", Rescued: 8, Dead: 1, TotalInitial: 10,
				SurvivalRate: 0.8, TimeTicks: 120, LastRescueTick: 110, ReplanCount: 1, Unaccounted: 1},
			{Seed: 2, FireOrigin: "server_room", Rescued: 10, Dead: 0, TotalInitial: 10,
				SurvivalRate: 1.0, TimeTicks: 95, LastRescueTick: 95},
		},
	}
}

func TestStorageRoundTrip(t *testing.T) {
	s := NewStorage(Nop())
	path := filepath.Join(t.TempDir(), "reports", "run.json")

	require.NoError(t, s.SaveRun(sampleRun(), path))

	loaded, err := s.LoadRun(path)
	require.NoError(t, err)
	assert.Equal(t, sampleRun(), loaded)

	_, err = s.LoadRun(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestTrialJSONShape(t *testing.T) {
	data, err := json.Marshal(sampleRun().Trials[0])
	require.NoError(t, err)
	for _, key := range []string{
		"seed", "fire_origin", "rescued", "dead", "total_initial",
		"survival_rate", "time_ticks", "last_rescue_tick", "replan_count",
	} {
		assert.Contains(t, string(data), `"`+key+`"`)
	}
}

func TestMeanSurvival(t *testing.T) {
	r := sampleRun()
	assert.InDelta(t, 0.9, r.MeanSurvival(), 1e-9)
	assert.Zero(t, (&RunReport{}).MeanSurvival())
}

func TestFormatterSummary(t *testing.T) {
	var buf bytes.Buffer
	NewFormatter(&buf).WriteSummary(sampleRun())
	out := buf.String()

	assert.Contains(t, out, "run-1234")
	assert.Contains(t, out, "office.yaml")
	assert.Contains(t, out, "mean survival: 90.0%")
	assert.Contains(t, out, "trials: 2")
	assert.Equal(t, 2, strings.Count(out, "80.0%")+strings.Count(out, "100.0%"),
		"both trial rows render their survival column")
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LogLevelWarn, Format: LogFormatJSON, Output: &buf})

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("shown", "tick", 7)
	logger.Error("also shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, `"tick":7`)

	assert.NotPanics(t, func() { Nop().Info("discarded") })
}

func TestLoggerWithField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LogLevelInfo, Format: LogFormatJSON, Output: &buf})
	child := logger.WithField("trial", 3)
	child.Info("hello")
	assert.Contains(t, buf.String(), `"trial":3`)
}
