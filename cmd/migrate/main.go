package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/blog-backend/config"
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}
	c := config.New()

	dbType := strings.ToLower(config.GetString(c, "DB_TYPE", config.DBTypeSQLite))
	dbURL, err := migrationURL(dbType, config.GetString(c, "DATABASE_URL", ""), config.GetString(c, "DB_URL", "blogs.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot resolve database URL")
	}
	migrationsPath := config.GetString(c, "MIGRATIONS_PATH", "./migrations/"+dbType)

	m, err := migrate.New("file://"+migrationsPath, dbURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration init failed")
	}
	defer m.Close()

	m.Log = migrateLogger{logger: log.With().Str("component", "migrate").Logger()}

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("Up failed")
		}
		log.Info().Msg("Migrations: up completed")

	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				log.Fatal().Str("arg", args[1]).Msg("down: invalid steps argument")
			}
			steps = n
		}
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("Down failed")
		}
		log.Info().Int("steps", steps).Msg("Migrations: down completed")

	case "version":
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			log.Fatal().Err(err).Msg("Version failed")
		}
		fmt.Printf("version: %d  dirty: %v\n", v, dirty)

	case "force":
		if len(args) < 2 {
			log.Fatal().Msg("force: version argument required")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal().Str("arg", args[1]).Msg("force: invalid version")
		}
		if err := m.Force(v); err != nil {
			log.Fatal().Err(err).Msg("Force failed")
		}
		log.Info().Int("version", v).Msg("Migrations: forced")

	default:
		usage()
		os.Exit(1)
	}
}

// migrationURL returns an explicit DATABASE_URL as is, or derives the
// migrate URL from the DB_TYPE/DB_URL pair the server uses.
func migrationURL(dbType, explicit, dbURL string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	switch dbType {
	case config.DBTypeSQLite:
		path := strings.TrimPrefix(strings.TrimPrefix(dbURL, "sqlite:///"), "sqlite://")
		switch {
		case strings.Contains(path, "_foreign_keys="):
			return "sqlite3://" + path, nil
		case strings.Contains(path, "?"):
			return "sqlite3://" + path + "&_foreign_keys=on", nil
		default:
			return "sqlite3://" + path + "?_foreign_keys=on", nil
		}
	case config.DBTypePostgres:
		if strings.HasPrefix(dbURL, "postgres://") || strings.HasPrefix(dbURL, "postgresql://") {
			return dbURL, nil
		}
		return "", errors.New("postgres migrations need a postgres:// URL in DB_URL or DATABASE_URL")
	case config.DBTypeMySQL:
		// Migration files hold several statements each.
		dsn := strings.TrimPrefix(dbURL, "mysql://")
		switch {
		case strings.Contains(dsn, "multiStatements="):
		case strings.Contains(dsn, "?"):
			dsn += "&multiStatements=true"
		default:
			dsn += "?multiStatements=true"
		}
		return "mysql://" + dsn, nil
	default:
		return "", fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}
}

type migrateLogger struct {
	logger zerolog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool { return false }

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate <command> [args]

Commands:
  up           Apply all pending migrations
  down [N]     Rollback N migrations (default: 1)
  version      Print current migration version
  force <V>    Force set migration version (bypass dirty state)

Environment:
  DB_TYPE           sqlite (default), postgres or mysql
  DB_URL            Database location used by the server (default: blogs.db)
  DATABASE_URL      Full migrate URL, overrides DB_TYPE/DB_URL
  MIGRATIONS_PATH   Migrations directory (default: ./migrations/<DB_TYPE>)`)
}
