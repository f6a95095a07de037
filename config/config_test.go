package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "attendance.db", cfg.Server.DBPath)
	assert.True(t, decimal.NewFromInt(176).Equal(cfg.Assessment.RequiredHoursPerMonth))
	assert.True(t, decimal.NewFromInt(40).Equal(cfg.Assessment.CriticalThreshold))
	assert.True(t, cfg.Assessment.BehindThreshold.IsZero())
	assert.Equal(t, int32(2), cfg.Assessment.Precision)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, time.Hour, cfg.Scheduler.Interval)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9090
assessment:
  required_hours_per_month: "160"
  critical_threshold: "24.5"
  timezone: Africa/Johannesburg
scheduler:
  enabled: true
  interval: 15m
  businesses: [demo-business]
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "attendance.db", cfg.Server.DBPath, "unset keys keep defaults")
	assert.True(t, decimal.NewFromInt(160).Equal(cfg.Assessment.RequiredHoursPerMonth))
	assert.True(t, decimal.RequireFromString("24.5").Equal(cfg.Assessment.CriticalThreshold))
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, []string{"demo-business"}, cfg.Scheduler.Businesses)

	ac, err := cfg.Assessment.ToAttendance()
	require.NoError(t, err)
	assert.Equal(t, "Africa/Johannesburg", ac.Location.String())
	assert.Equal(t, attendance.StatusBehind, ac.StatusFor(decimal.NewFromInt(24)))
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "server:\n  port: 9090\n")
	t.Setenv("ATTENDANCE_PORT", "7070")
	t.Setenv("ATTENDANCE_DB", "/tmp/x.db")
	t.Setenv("ATTENDANCE_REQUIRED_HOURS", "150.5")
	t.Setenv("ATTENDANCE_TZ", "Europe/Berlin")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/tmp/x.db", cfg.Server.DBPath)
	assert.True(t, decimal.RequireFromString("150.5").Equal(cfg.Assessment.RequiredHoursPerMonth))
	assert.Equal(t, "Europe/Berlin", cfg.Assessment.Timezone)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "server: [\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"critical below behind", "assessment:\n  behind_threshold: \"10\"\n  critical_threshold: \"5\"\n"},
		{"unknown timezone", "assessment:\n  timezone: Mars/Olympus\n"},
		{"scheduler too fast", "scheduler:\n  enabled: true\n  interval: 10ms\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, "config.yaml", tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("ATTENDANCE_PORT", "eighty")

	_, err := config.Load("")

	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "ATTENDANCE_TEST_DOTENV_VALUE=from-file\n")
	t.Setenv("ATTENDANCE_TEST_DOTENV_VALUE", "")
	os.Unsetenv("ATTENDANCE_TEST_DOTENV_VALUE")

	require.NoError(t, config.LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("ATTENDANCE_TEST_DOTENV_VALUE"))

	assert.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestLoader_ReloadNotifiesAndKeepsPreviousOnError(t *testing.T) {
	path := writeFile(t, "config.yaml", "assessment:\n  required_hours_per_month: \"176\"\n")
	loader, err := config.NewLoader(path, nil)
	require.NoError(t, err)

	var notified []*config.Config
	loader.OnChange(func(c *config.Config) { notified = append(notified, c) })

	// WHEN: The file changes and is reloaded
	require.NoError(t, os.WriteFile(path, []byte("assessment:\n  required_hours_per_month: \"160\"\n"), 0o644))
	_, err = loader.Reload()
	require.NoError(t, err)

	// THEN: Callbacks see the new value
	require.Len(t, notified, 1)
	assert.True(t, decimal.NewFromInt(160).Equal(notified[0].Assessment.RequiredHoursPerMonth))

	// WHEN: The file becomes invalid
	require.NoError(t, os.WriteFile(path, []byte("assessment:\n  precision: 99\n"), 0o644))
	_, err = loader.Reload()

	// THEN: The previous config stays current
	require.Error(t, err)
	assert.Len(t, notified, 1)
	assert.True(t, decimal.NewFromInt(160).Equal(loader.Config().Assessment.RequiredHoursPerMonth))
}

func TestLoader_WatchWithoutFile(t *testing.T) {
	loader, err := config.NewLoader("", nil)
	require.NoError(t, err)

	stop, err := loader.Watch()
	require.NoError(t, err)
	stop()
}
