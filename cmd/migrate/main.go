package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"news_notifier/internal/config"
	"news_notifier/migrations"
)

const usage = `Usage: migrate [-db path] <command>

The default database path comes from DATABASE_PATH or CONFIG_FILE, as for the notifier.

Commands:
  up          Migrate to the latest version
  up-one      Migrate one version up
  down        Roll back one version
  redo        Roll back and re-apply the latest version
  status      Show migration status
  version     Show current version
  reset       Roll back all migrations
`

var errUsage = errors.New("usage")

var commands = map[string]func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error{
	"up":      goose.UpContext,
	"up-one":  goose.UpByOneContext,
	"down":    goose.DownContext,
	"redo":    goose.RedoContext,
	"status":  goose.StatusContext,
	"version": goose.VersionContext,
	"reset":   goose.ResetContext,
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(1)
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	dbPath := fs.String("db", cfg.DatabasePath, "path to sqlite database")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command: %s", name)
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(migrations.Dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := cmd(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
