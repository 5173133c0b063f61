/*
2019 © Postgres.ai
*/

// Package config provides the App configuration.
package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"
)

// History storage types.
const (
	StorageMemory   = "memory"
	StorageJSON     = "json"
	StoragePostgres = "postgres"
)

// Config defines an App configuration.
type Config struct {
	App     App     `yaml:"app"`
	Fusion  Fusion  `yaml:"fusion"`
	History History `yaml:"history"`
}

// App defines a general application configuration.
type App struct {
	Version      string `yaml:"-"`
	Host         string `yaml:"host" env:"FUSIONQL_APP_HOST"`
	Port         uint   `yaml:"port" env:"FUSIONQL_APP_PORT" env-default:"5000"`
	Debug        bool   `yaml:"debug" env:"FUSIONQL_APP_DEBUG"`
	AuditEnabled bool   `yaml:"auditEnabled" env:"FUSIONQL_APP_AUDIT_ENABLED"`
}

// Fusion describes how BI Publisher is called.
type Fusion struct {
	ServicePath           string        `yaml:"servicePath" env:"FUSIONQL_SERVICE_PATH" env-default:"/xmlpserver/services/ExternalReportWSSService"`
	ReportPath            string        `yaml:"reportPath" env:"FUSIONQL_REPORT_PATH" env-default:"/Custom/CidUtils/RunSQL.xdo"`
	QueryTimeout          time.Duration `yaml:"queryTimeout" env:"FUSIONQL_QUERY_TIMEOUT" env-default:"60s"`
	ProbeTimeout          time.Duration `yaml:"probeTimeout" env:"FUSIONQL_PROBE_TIMEOUT" env-default:"30s"`
	MaxResponseSize       int64         `yaml:"maxResponseSize" env:"FUSIONQL_MAX_RESPONSE_SIZE" env-default:"67108864"`
	MaintenanceSignatures []string      `yaml:"maintenanceSignatures" env:"FUSIONQL_MAINTENANCE_SIGNATURES" env-default:"scheduled maintenance"`
	AllowUnresolvedBinds  bool          `yaml:"allowUnresolvedBinds" env:"FUSIONQL_ALLOW_UNRESOLVED_BINDS"`
	ProbeQuery            string        `yaml:"probeQuery" env:"FUSIONQL_PROBE_QUERY" env-default:"SELECT 1 as test_connection FROM dual"`
}

// History describes the query history storage.
type History struct {
	Storage  string `yaml:"storage" env:"FUSIONQL_HISTORY_STORAGE" env-default:"memory"`
	FilePath string `yaml:"filePath" env:"FUSIONQL_HISTORY_FILE" env-default:"config/history.json"`
	DSN      string `yaml:"dsn" env:"FUSIONQL_HISTORY_DSN"`
	Table    string `yaml:"table" env:"FUSIONQL_HISTORY_TABLE" env-default:"query_history"`
}

// Load reads a config file and applies environment overrides.
// A missing file is not an error, defaults and environment are used instead.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
				return nil, errors.Wrap(err, "failed to read a config file")
			}

			return &cfg, nil
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to read environment config")
	}

	return &cfg, nil
}
