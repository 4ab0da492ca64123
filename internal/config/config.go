package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"canvascal/internal/domain"
)

const (
	defaultTimezone = "UTC"

	configPathEnv      = "CANVASCAL_CONFIG"
	canvasURLEnv       = "CANVAS_API_URL"
	canvasTokenEnv     = "CANVAS_API_KEY"
	databaseDSNEnv     = "CANVASCAL_DATABASE_DSN"
	courseSchedulesEnv = "CANVAS_COURSE_SCHEDULES"
)

// Config holds high-level settings required across the application.
type Config struct {
	Canvas    CanvasConfig     `yaml:"canvas"`
	Database  DatabaseConfig   `yaml:"database"`
	Scheduler SchedulerConfig  `yaml:"scheduler"`
	Sync      SyncConfig       `yaml:"sync"`
	Output    OutputConfig     `yaml:"output"`
	Logging   LoggingConfig    `yaml:"logging"`
	Schedules []ScheduleConfig `yaml:"schedules"`
}

// CanvasConfig describes how to reach the course platform API.
type CanvasConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Token   string `yaml:"token"`
}

// DatabaseConfig describes the optional Postgres history store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines when sync runs execute.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// SyncConfig bounds the calendar window around "now".
type SyncConfig struct {
	PastDays               int `yaml:"pastDays"`
	FutureDays             int `yaml:"futureDays"`
	AnnouncementMaxAgeDays int `yaml:"announcementMaxAgeDays"`
}

// OutputConfig describes the calendar file that is produced.
type OutputConfig struct {
	Path          string `yaml:"path"`
	ClassSessions bool   `yaml:"classSessions"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ScheduleConfig is one course's schedule as written in the config file.
type ScheduleConfig struct {
	Match    string   `yaml:"match"`
	Days     []int    `yaml:"days"`
	Sections []string `yaml:"sections"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load(logger *slog.Logger) Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			logger.Warn("cannot read config file, falling back to defaults", "path", path, "error", err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				logger.Warn("cannot parse config file, falling back to defaults", "path", path, "error", err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone(logger)

	return cfg
}

// CourseSchedules converts the configured schedule list into domain values,
// canonicalizing section labels to uppercase. Config file entries come first;
// entries decoded from the environment are appended after them.
func (c Config) CourseSchedules(logger *slog.Logger) []domain.CourseSchedule {
	out := make([]domain.CourseSchedule, 0, len(c.Schedules))
	for _, s := range c.Schedules {
		out = append(out, s.toDomain())
	}

	if raw := os.Getenv(courseSchedulesEnv); raw != "" {
		out = append(out, DecodeScheduleEnv(raw, logger)...)
	}

	return out
}

// DecodeScheduleEnv decodes the JSON schedule mapping carried in an
// environment variable: {"COURSEKEY": {"days": [0,2], "sections": ["L1"]}}.
// Malformed JSON degrades to an empty list with a logged warning, never an
// error. Keys are sorted so the first-match-wins lookup stays deterministic.
func DecodeScheduleEnv(raw string, logger *slog.Logger) []domain.CourseSchedule {
	var mapping map[string]ScheduleConfig
	if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
		if logger != nil {
			logger.Warn("malformed course schedule JSON, ignoring", "env", courseSchedulesEnv, "error", err)
		}
		return nil
	}

	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.CourseSchedule, 0, len(keys))
	for _, k := range keys {
		s := mapping[k]
		s.Match = k
		out = append(out, s.toDomain())
	}
	return out
}

func normalizeSection(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func (s ScheduleConfig) toDomain() domain.CourseSchedule {
	sections := make([]string, 0, len(s.Sections))
	for _, sec := range s.Sections {
		sections = append(sections, normalizeSection(sec))
	}
	return domain.CourseSchedule{
		Match:    s.Match,
		Days:     s.Days,
		Sections: sections,
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(canvasURLEnv); v != "" {
		c.Canvas.BaseURL = v
	}
	if v := os.Getenv(canvasTokenEnv); v != "" {
		c.Canvas.Token = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
}

func (c *Config) bindTimezone(logger *slog.Logger) {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		logger.Warn("unknown timezone, reverting to default", "timezone", tz, "default", defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Canvas.BaseURL != "" {
		base.Canvas.BaseURL = override.Canvas.BaseURL
	}
	if override.Canvas.Token != "" {
		base.Canvas.Token = override.Canvas.Token
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Sync.PastDays > 0 {
		base.Sync.PastDays = override.Sync.PastDays
	}
	if override.Sync.FutureDays > 0 {
		base.Sync.FutureDays = override.Sync.FutureDays
	}
	if override.Sync.AnnouncementMaxAgeDays > 0 {
		base.Sync.AnnouncementMaxAgeDays = override.Sync.AnnouncementMaxAgeDays
	}

	if override.Output.Path != "" {
		base.Output.Path = override.Output.Path
	}
	if override.Output.ClassSessions {
		base.Output.ClassSessions = true
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if len(override.Schedules) > 0 {
		base.Schedules = override.Schedules
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Canvas: CanvasConfig{BaseURL: "", Token: ""},
		Scheduler: SchedulerConfig{
			CronExpression: "0 6 * * *",
			Timezone:       defaultTimezone,
			location:       tz,
		},
		Sync: SyncConfig{
			PastDays:               30,
			FutureDays:             365,
			AnnouncementMaxAgeDays: 14,
		},
		Output:  OutputConfig{Path: "my_schedule.ics"},
		Logging: LoggingConfig{Level: "info"},
	}
}
