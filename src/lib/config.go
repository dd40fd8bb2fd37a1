package lib

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Config is the process configuration. Precedence, lowest first: defaults,
// YAML file, environment, command-line flags.
type Config struct {
	Port             string   `yaml:"port"`
	StoreDriver      string   `yaml:"store_driver"`
	MongoURI         string   `yaml:"mongodb_uri"`
	MongoDatabase    string   `yaml:"mongodb_database"`
	SQLitePath       string   `yaml:"sqlite_path"`
	UpdateValidation string   `yaml:"update_validation"`
	JWTSecret        string   `yaml:"jwt_secret"`
	CORSOrigins      []string `yaml:"cors_origins"`
	LogLevel         string   `yaml:"log_level"`
	LogFormat        string   `yaml:"log_format"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Port:             "3000",
		StoreDriver:      DriverMongo,
		MongoDatabase:    "syncrivo",
		SQLitePath:       "./syncrivo.db",
		UpdateValidation: "lenient",
		CORSOrigins:      []string{"*"},
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

// LoadConfig layers an optional YAML file and the environment over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("STORE_DRIVER", &c.StoreDriver)
	str("MONGODB_URI", &c.MongoURI)
	str("MONGODB_DATABASE", &c.MongoDatabase)
	str("SQLITE_PATH", &c.SQLitePath)
	str("UPDATE_VALIDATION", &c.UpdateValidation)
	str("JWT_SECRET", &c.JWTSecret)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)

	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		var origins []string
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		c.CORSOrigins = origins
	}
}

// Validate checks the settings needed to start the service.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("mongodb_uri is required for the %s driver", DriverMongo)
		}
		if c.MongoDatabase == "" {
			return fmt.Errorf("mongodb_database is required for the %s driver", DriverMongo)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the %s driver", DriverSQLite)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	switch c.UpdateValidation {
	case "lenient", "strict":
	default:
		return fmt.Errorf("update_validation must be lenient or strict, got %q", c.UpdateValidation)
	}
	return nil
}
