// Command blogctl runs maintenance tasks against the blog database.
//
//	blogctl init-db    drop all data and create fresh tables
//	blogctl migrate    apply pending migrations
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mkrupp/homecase-blog/internal/infra/config"
	"github.com/mkrupp/homecase-blog/internal/infra/database"
	"github.com/mkrupp/homecase-blog/internal/infra/logging"
)

const (
	appName = "blog"
	svcName = "blogctl"
)

var errUnknownCommand = errors.New("unknown command")

// Config is the subset of the blog configuration blogctl needs.
type Config struct {
	config.EnvConfig

	Log logging.LoggerConfig `envPrefix:"LOG_"`
	DB  database.Config      `envPrefix:"DB_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	fs := flag.NewFlagSet(svcName, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [-dsn path] init-db|migrate\n", svcName)
		fs.PrintDefaults()
	}

	dsn := fs.String("dsn", "", "database DSN, overrides BLOG_DB_DSN")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	if *dsn != "" {
		cfg.DB.DSN = *dsn
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg, fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, command string) (err error) {
	log := logging.GetLogger("cmd.blogctl").With("command", command)

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	defer func() {
		err = errors.Join(err, db.Close())
	}()

	switch command {
	case "init-db":
		if err := db.Reset(ctx); err != nil {
			return fmt.Errorf("init database: %w", err)
		}

		fmt.Println("Initialized the database.")
	case "migrate":
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownCommand, command)
	}

	log.InfoContext(ctx, "done")

	return nil
}
