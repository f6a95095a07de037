/*
Package config loads server and assessment settings.

PURPOSE:
  One Config value drives the server, the assessment engine and the
  recalculation scheduler. Values are layered:

    defaults → YAML file (optional) → .env file (optional) → ATTENDANCE_* env vars

  Command-line flags are applied last by cmd/server.

YAML:
  server:
    port: 8080
    db: attendance.db
    redis_url: redis://localhost:6379/0
    cache_ttl: 24h
    allowed_origins: ["*"]
  assessment:
    required_hours_per_month: "176"
    behind_threshold: "0"
    critical_threshold: "40"
    precision: 2
    timezone: Africa/Johannesburg
  scheduler:
    enabled: true
    interval: 1h
    businesses: [demo-business]

SEE ALSO:
  - loader.go: File watching and hot reload
  - attendance/config.go: The engine-side Config
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
)

// Config is the top-level YAML structure.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Assessment AssessmentConfig `yaml:"assessment"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	DBPath         string        `yaml:"db"`
	RedisURL       string        `yaml:"redis_url"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type AssessmentConfig struct {
	RequiredHoursPerMonth decimal.Decimal `yaml:"required_hours_per_month"`
	BehindThreshold       decimal.Decimal `yaml:"behind_threshold"`
	CriticalThreshold     decimal.Decimal `yaml:"critical_threshold"`
	Precision             int32           `yaml:"precision"`
	Timezone              string          `yaml:"timezone"`
}

type SchedulerConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Interval   time.Duration `yaml:"interval"`
	Businesses []string      `yaml:"businesses"` // empty = every business in the directory
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			DBPath:         "attendance.db",
			CacheTTL:       24 * time.Hour,
			AllowedOrigins: []string{"*"},
		},
		Assessment: AssessmentConfig{
			RequiredHoursPerMonth: attendance.DefaultRequiredHoursPerMonth,
			BehindThreshold:       attendance.DefaultBehindThreshold,
			CriticalThreshold:     attendance.DefaultCriticalThreshold,
			Precision:             2,
			Timezone:              "UTC",
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Interval: time.Hour,
		},
	}
}

// Validate checks required fields and delegates the assessment part to the engine.
func (c Config) Validate() error {
	var errs []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.DBPath == "" {
		errs = append(errs, "server.db is required")
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval < time.Second {
		errs = append(errs, fmt.Sprintf("scheduler.interval too short: %s", c.Scheduler.Interval))
	}
	if _, err := c.Assessment.ToAttendance(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ToAttendance converts the assessment section into an engine Config.
func (a AssessmentConfig) ToAttendance() (attendance.Config, error) {
	tz := a.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return attendance.Config{}, fmt.Errorf("%w: assessment.timezone %q: %v", attendance.ErrInvalidConfig, tz, err)
	}

	cfg := attendance.Config{
		RequiredHoursPerMonth: a.RequiredHoursPerMonth,
		BehindThreshold:       a.BehindThreshold,
		CriticalThreshold:     a.CriticalThreshold,
		Precision:             a.Precision,
		Location:              loc,
	}
	if err := cfg.Validate(); err != nil {
		return attendance.Config{}, err
	}
	return cfg, nil
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none is
// given) without overriding variables that are already set. Missing files are
// not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides c with ATTENDANCE_* variables.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv("ATTENDANCE_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ATTENDANCE_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := os.LookupEnv("ATTENDANCE_DB"); ok {
		c.Server.DBPath = v
	}
	if v, ok := os.LookupEnv("ATTENDANCE_REDIS_URL"); ok {
		c.Server.RedisURL = v
	}
	if v, ok := os.LookupEnv("ATTENDANCE_REQUIRED_HOURS"); ok {
		hours, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("ATTENDANCE_REQUIRED_HOURS: %w", err)
		}
		c.Assessment.RequiredHoursPerMonth = hours
	}
	if v, ok := os.LookupEnv("ATTENDANCE_TZ"); ok {
		c.Assessment.Timezone = v
	}
	if v, ok := os.LookupEnv("ATTENDANCE_SCHEDULER_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ATTENDANCE_SCHEDULER_ENABLED: %w", err)
		}
		c.Scheduler.Enabled = enabled
	}
	return nil
}
