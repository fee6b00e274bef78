package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/trendline/internal/fixture"
	"github.com/rewired-gh/trendline/internal/logger"
	"github.com/rewired-gh/trendline/internal/server"
	"github.com/rewired-gh/trendline/internal/view"
	"github.com/rewired-gh/trendline/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the preview API",
	Long: `Serve the rendered payloads on server.addr. With server.watch enabled, local
fixture files are watched and reloaded on change; a failed reload keeps the
previous fixtures in service.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default server.addr)")
	serveCmd.Flags().Bool("no-watch", false, "do not watch fixture files")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	addr := cfg.Server.Addr
	if a, _ := cmd.Flags().GetString("addr"); a != "" {
		addr = a
	}

	latest := &server.Latest{}
	reload := func(ctx context.Context) {
		l, err := loadFixtures(ctx, cfg)
		if err != nil {
			logger.Error("Reload failed: %v", err)
			latest.Fail(err)
			return
		}
		latest.Set(l.renderer, time.Now())
		logger.Info("Fixtures loaded (digest %s, %d entries skipped)", l.digest[:12], len(l.errs))
	}
	reload(ctx)

	if noWatch, _ := cmd.Flags().GetBool("no-watch"); cfg.Server.Watch && !noWatch {
		if err := startWatcher(ctx, reload); err != nil {
			return err
		}
	}

	state := view.Default()
	state.Granularity = cfg.Granularity()
	return server.New(latest, state).Run(ctx, addr)
}

// startWatcher watches the local fixture files and reloads on change.
func startWatcher(ctx context.Context, reload func(context.Context)) error {
	var paths []string
	for _, p := range []string{cfg.Fixture.Path, cfg.Fixture.SalesPath} {
		if p != "" && !fixture.IsRemote(p) {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		logger.Info("No local fixture files to watch")
		return nil
	}

	w, err := watch.New(paths, cfg.Server.Debounce)
	if err != nil {
		return err
	}
	go func() {
		defer w.Close()
		err := w.Run(ctx, func(changed []string) {
			logger.Info("Fixture change detected: %v", changed)
			reload(ctx)
		})
		if err != nil {
			logger.Error("Watcher stopped: %v", err)
		}
	}()
	logger.Info("Watching %d fixture files", len(paths))
	return nil
}
