package main

import (
	"errors"
	"flag"
	"os"
	"strings"

	"cinepwa/proj/internal/config"
	"cinepwa/proj/internal/lib/logger"
	"cinepwa/proj/internal/storage/postgres/migrations"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func main() {
	cfgPath := flag.String("config", "config/local.yml", "path to config file")
	steps := flag.Int("steps", 0, "apply n migrations, negative n rolls back")
	flag.Parse()
	cfg := config.MustLoad(*cfgPath)
	log := logger.SetupLogger(cfg.Debug)

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		log.Error("failed to open migrations", "errMsg", err.Error())
		os.Exit(1)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, pgxURL(cfg.DB.Dsn))
	if err != nil {
		log.Error("failed to init migrations", "errMsg", err.Error())
		os.Exit(1)
	}
	defer m.Close()

	cmd := "up"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}
	switch cmd {
	case "up":
		if *steps != 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		err = m.Down()
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			err = verr
			break
		}
		log.Info("schema version", "version", version, "dirty", dirty)
		return
	default:
		log.Error("unknown command, expected up, down or version", "cmd", cmd)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Error("migration failed", "cmd", cmd, "errMsg", err.Error())
		os.Exit(1)
	}
	log.Info("migrations applied", "cmd", cmd)
}

// pgxURL switches the dsn scheme to the one the pgx/v5 driver registers.
func pgxURL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}
