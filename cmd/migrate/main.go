package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/logger"
)

const usage = "usage: migrate [-path dir] <up | down | steps <n> | version | force <version>>"

// migrator is the subset of *migrate.Migrate the commands drive.
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(v int) error
}

// migrateLogger routes golang-migrate's output through zerolog.
type migrateLogger struct {
	log zerolog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.log.GetLevel() <= zerolog.DebugLevel
}

func main() {
	migrationDir := flag.String("path", "migrations", "Path to migration files")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat).With().Str("component", "migrate").Logger()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, usage)
		flag.PrintDefaults()
		os.Exit(2)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://"+*migrationDir, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("path", *migrationDir).Msg("Failed to initialize migrations")
	}
	m.Log = migrateLogger{log: log}
	defer m.Close()

	if err := run(m, flag.Args(), log); err != nil {
		log.Fatal().Err(err).Str("command", flag.Arg(0)).Msg("Migration failed")
	}
}

// run executes one command. migrate.ErrNoChange is not an error.
func run(m migrator, args []string, log zerolog.Logger) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	var err error
	switch args[0] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		var n int
		if n, err = intArg(args, "steps"); err == nil {
			err = m.Steps(n)
		}
	case "force":
		var v int
		if v, err = intArg(args, "force"); err != nil {
			return err
		}
		if err = m.Force(v); err != nil {
			return fmt.Errorf("force %d: %w", v, err)
		}
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			log.Info().Msg("No migrations applied")
			return nil
		}
		if verr != nil {
			return fmt.Errorf("version: %w", verr)
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current schema version")
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Str("command", args[0]).Msg("No change")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Str("command", args[0]).Msg("Migration applied")
	return nil
}

func intArg(args []string, command string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s requires a number", command)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", command, args[1])
	}
	return n, nil
}
