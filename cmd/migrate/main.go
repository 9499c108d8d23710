// Package main applies the embedded PostgreSQL schema migrations.
//
// Usage:
//
//	migrate [-config configs/dev.yaml] [-steps n] up|down|version|force <version>
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"

	"github.com/cory-johannsen/ficha/internal/config"
	"github.com/cory-johannsen/ficha/migrations"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	steps := flag.Int("steps", 0, "apply at most n migrations for up/down (0 = all)")
	flag.Parse()

	action := flag.Arg(0)
	if action == "" {
		action = "up"
	}
	if err := run(*configPath, action, flag.Arg(1), *steps); err != nil {
		log.Fatal(err)
	}
}

func run(configPath, action, arg string, steps int) error {
	began := time.Now()

	v := config.NewViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	var db config.DatabaseConfig
	if err := v.UnmarshalKey("database", &db); err != nil {
		return fmt.Errorf("parsing database config: %w", err)
	}

	m, err := migrations.NewPostgres(db.DSN())
	if err != nil {
		return err
	}
	defer m.Close()

	switch action {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "force":
		target, convErr := strconv.Atoi(arg)
		if convErr != nil {
			return fmt.Errorf("force needs a numeric version, got %q", arg)
		}
		err = m.Force(target)
	case "version":
	default:
		return fmt.Errorf("unknown action %q: want up, down, version or force", action)
	}

	noChange := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !noChange {
		return fmt.Errorf("%s failed: %w", action, err)
	}

	version, dirty, verr := m.Version()
	switch {
	case errors.Is(verr, migrate.ErrNilVersion):
		fmt.Fprintf(os.Stdout, "%s: schema empty [%s]\n", action, time.Since(began))
	case verr != nil:
		return fmt.Errorf("reading schema version: %w", verr)
	case noChange:
		fmt.Fprintf(os.Stdout, "%s: no changes, version=%d dirty=%v [%s]\n", action, version, dirty, time.Since(began))
	default:
		fmt.Fprintf(os.Stdout, "%s: version=%d dirty=%v [%s]\n", action, version, dirty, time.Since(began))
	}
	return nil
}
