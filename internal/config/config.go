package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvProduction suppresses error detail in API responses
	EnvProduction = "production"
	// EnvDevelopment includes backend error detail in API responses
	EnvDevelopment = "development"

	// DefaultQueryTimeout bounds how long a caller waits on a single statement
	DefaultQueryTimeout = 180 * time.Second
)

// Settings holds the process configuration resolved from environment
// variables (and overridden by CLI flags in cmd).
type Settings struct {
	Port         int
	Bind         string
	AllowSubnet  string
	DBPath       string
	QueryTimeout time.Duration
	Environment  string

	// MaintenanceSchedule is a cron expression for periodic database
	// maintenance. Empty disables the job.
	MaintenanceSchedule string

	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// Load resolves settings from the environment. Variables use the RESTBASE_
// prefix (RESTBASE_DB_PATH, RESTBASE_QUERY_TIMEOUT, ...); PORT and DB_PATH
// are also honored without the prefix for container-friendly deployment.
func Load() *Settings {
	v := viper.New()

	v.SetDefault("port", 0)
	v.SetDefault("bind", "")
	v.SetDefault("allow_subnet", "")
	v.SetDefault("db_path", "./restbase.db")
	v.SetDefault("query_timeout", DefaultQueryTimeout)
	v.SetDefault("environment", EnvDevelopment)
	v.SetDefault("maintenance_schedule", "@hourly")
	v.SetDefault("log_file", "restbase.log")
	v.SetDefault("log_max_size_mb", 50)
	v.SetDefault("log_max_backups", 5)
	v.SetDefault("log_max_age_days", 30)
	v.SetDefault("log_compress", true)

	v.SetEnvPrefix("RESTBASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed fallbacks commonly set by deployment tooling
	_ = v.BindEnv("port", "RESTBASE_PORT", "PORT")
	_ = v.BindEnv("db_path", "RESTBASE_DB_PATH", "DB_PATH")
	_ = v.BindEnv("environment", "RESTBASE_ENVIRONMENT", "ENVIRONMENT")

	return &Settings{
		Port:                v.GetInt("port"),
		Bind:                v.GetString("bind"),
		AllowSubnet:         v.GetString("allow_subnet"),
		DBPath:              v.GetString("db_path"),
		QueryTimeout:        v.GetDuration("query_timeout"),
		Environment:         v.GetString("environment"),
		MaintenanceSchedule: v.GetString("maintenance_schedule"),
		LogFile:             v.GetString("log_file"),
		LogMaxSizeMB:        v.GetInt("log_max_size_mb"),
		LogMaxBackups:       v.GetInt("log_max_backups"),
		LogMaxAgeDays:       v.GetInt("log_max_age_days"),
		LogCompress:         v.GetBool("log_compress"),
	}
}

// IsProduction reports whether error detail should be withheld from clients.
func (s *Settings) IsProduction() bool {
	return s.Environment == EnvProduction
}
