package config

import (
	"fmt"
	"os"
	"time"

	"github.com/codingconcepts/env"
	"github.com/joho/godotenv"
)

// Environment is the process configuration read from the environment.
type Environment struct {
	Addr       string        `env:"BARCUT_ADDR" default:":8080"`
	DBPath     string        `env:"BARCUT_DB_PATH" default:"barcut.db"`
	DataDir    string        `env:"BARCUT_DATA_DIR"` // empty means ~/.barcut
	Workers    int           `env:"BARCUT_WORKERS" default:"2"`
	Queue      string        `env:"BARCUT_QUEUE" default:"long"`
	JobTimeout time.Duration `env:"BARCUT_JOB_TIMEOUT" default:"1500s"`
	LogLevel   string        `env:"LOG_LEVEL" default:"info"`
	AppEnv     string        `env:"APP_ENV" default:"dev"`
}

// LoadDotEnv reads .env and then .env.<APP_ENV> into the process environment.
// Missing files are not an error. It returns the files that were applied.
func LoadDotEnv() []string {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}

	var loaded []string
	if err := godotenv.Load(".env"); err == nil {
		loaded = append(loaded, ".env")
	}
	envFile := fmt.Sprintf(".env.%s", appEnv)
	if err := godotenv.Overload(envFile); err == nil {
		loaded = append(loaded, envFile)
	}
	return loaded
}

// Load applies dotenv files and decodes the environment.
func Load() (Environment, error) {
	LoadDotEnv()
	return FromEnv()
}

// FromEnv decodes the current environment without reading dotenv files.
func FromEnv() (Environment, error) {
	var e Environment
	if err := env.Set(&e); err != nil {
		return Environment{}, fmt.Errorf("setting variables from environment: %w", err)
	}
	if err := e.Validate(); err != nil {
		return Environment{}, err
	}
	return e, nil
}

func (e Environment) Validate() error {
	if e.Workers < 1 {
		return fmt.Errorf("BARCUT_WORKERS must be at least 1, got %d", e.Workers)
	}
	if e.JobTimeout <= 0 {
		return fmt.Errorf("BARCUT_JOB_TIMEOUT must be positive, got %s", e.JobTimeout)
	}
	return nil
}
