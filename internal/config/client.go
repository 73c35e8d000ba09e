package config

import (
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const envLocalFile = ".env.local"

// ClientConfig configures the cinepwa command line client.
type ClientConfig struct {
	APIURL   string `env:"CINEPWA_API_URL" env-default:"http://localhost:8000"`
	// WebURL prefixes share links handed to other people.
	WebURL   string `env:"CINEPWA_WEB_URL" env-default:"http://localhost:5173"`
	DataPath string `env:"CINEPWA_DATA"`
	Debug    bool   `env:"CINEPWA_DEBUG" env-default:"false"`
	Workers  int    `env:"CINEPWA_WORKERS" env-default:"2"`
	Output   string `env:"CINEPWA_OUTPUT" env-default:"table"`
}

// LoadClient reads .env.local (searched from the working directory upwards)
// and then the process environment. Real environment variables win.
func LoadClient() (*ClientConfig, error) {
	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}
	var cfg ClientConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.DataPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		cfg.DataPath = filepath.Join(home, ".local", "share", "cinepwa", "cinepwa.db")
	}
	return &cfg, nil
}

func findEnvLocal() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, envLocalFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
