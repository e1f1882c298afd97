package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/homecase-blog/internal/app"
	"github.com/mkrupp/homecase-blog/internal/infra/config"
	"github.com/mkrupp/homecase-blog/internal/infra/logging"
	"github.com/mkrupp/homecase-blog/internal/infra/transport/http"
)

const (
	appName = "blog"
	svcName = "blogsvc"
)

func main() {
	var (
		cfg app.Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, cfg app.Config) (err error) {
	log := logging.GetLogger("cmd.blogsvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	blog, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("new app: %w", err)
	}

	defer func() {
		if cerr := blog.Close(); cerr != nil {
			log.WarnContext(ctx, "close app failed", "error", cerr)
		}
	}()

	if err := http.ListenAndServe(ctx, blog.Handler(), cfg.HTTP); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
