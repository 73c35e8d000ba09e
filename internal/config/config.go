package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Debug       bool        `yaml:"debug"`
	Limiter     Limiter     `yaml:"limiter"`
	AppSecret   string      `yaml:"app_secret" env:"CINEPWA_APP_SECRET" env-required:"true"`
	BaseURL     string      `yaml:"base_url" env:"CINEPWA_BASE_URL" env-default:"http://localhost:5173"`
	Server      Server      `yaml:"server"`
	DB          DB          `yaml:"db"`
	SMTPServer  SMTPServer  `yaml:"smtp"`
	TMDB        TMDB        `yaml:"tmdb"`
	Auth        Auth        `yaml:"auth"`
	Tasks       Tasks       `yaml:"tasks"`
	SeriesCache SeriesCache `yaml:"series_cache"`
}

type Limiter struct {
	Enabled bool    `yaml:"enabled"`
	Rps     float64 `yaml:"rps" env-default:"20"`
	Burst   int     `yaml:"burst" env-default:"5"`
}

type Server struct {
	Port string `yaml:"port" env-default:"8000"`
	Host string `yaml:"host" env-default:"localhost"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

type DB struct {
	Driver          string        `yaml:"driver" env-default:"postgres"`
	Dsn             string        `yaml:"dsn" env:"CINEPWA_DB_DSN"`
	MaxConns        int           `yaml:"max_conns" env-default:"25"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env-default:"10m"`
}

type SMTPServer struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port" env-default:"587"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password" env:"CINEPWA_SMTP_PASSWORD"`
	Sender       string        `yaml:"sender" env-default:"cinepwa <no-reply@cinepwa.local>"`
	Timeout      time.Duration `yaml:"timeout" env-default:"5s"`
	RetriesCount int           `yaml:"retries_count" env-default:"3"`
	// When set, mail goes through the HTTP sending API instead of SMTP.
	APIToken string `yaml:"api_token" env:"CINEPWA_MAIL_API_TOKEN"`
	APIURL   string `yaml:"api_url" env-default:"https://send.api.mailtrap.io/api/send"`
}

type TMDB struct {
	AccessToken string        `yaml:"access_token" env:"CINEPWA_TMDB_TOKEN"`
	BaseURL     string        `yaml:"base_url" env-default:"https://api.themoviedb.org/3"`
	Language    string        `yaml:"language" env-default:"pt-BR"`
	Rps         float64       `yaml:"rps" env-default:"20"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
}

type Auth struct {
	SessionTTL   time.Duration `yaml:"session_ttl" env-default:"720h"`
	MagicLinkTTL time.Duration `yaml:"magic_link_ttl" env-default:"1h"`
	// Path of the client page that receives the magic link token.
	VerifyPath string `yaml:"verify_path" env-default:"/auth/verify"`
}

type Tasks struct {
	Workers   int `yaml:"workers" env-default:"4"`
	QueueSize int `yaml:"queue_size" env-default:"100"`
}

type SeriesCache struct {
	TTL time.Duration `yaml:"ttl" env-default:"24h"`
}

func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(configPath string) (*Config, error) {
	var cfg Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file %s not found", configPath)
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}
	if cfg.DB.Driver != DriverPostgres && cfg.DB.Driver != DriverMemory {
		return nil, fmt.Errorf("unknown db driver %q", cfg.DB.Driver)
	}
	if cfg.DB.Driver == DriverPostgres && cfg.DB.Dsn == "" {
		return nil, fmt.Errorf("db.dsn is required for the %s driver", DriverPostgres)
	}
	return &cfg, nil
}
