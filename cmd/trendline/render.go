package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/trendline/internal/logger"
	"github.com/rewired-gh/trendline/internal/models"
	"github.com/rewired-gh/trendline/internal/output"
	"github.com/rewired-gh/trendline/internal/period"
	"github.com/rewired-gh/trendline/internal/render"
	"github.com/rewired-gh/trendline/internal/storage"
	"github.com/rewired-gh/trendline/internal/telegram"
	"github.com/rewired-gh/trendline/internal/view"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render payload files",
	Long: `Render the fixtures into JSON payload files in output.dir:

  timeline-daily.json, timeline-weekly.json, timeline-monthly.json
  overlay.json, markers.json, cards.json, summary.json

Markers are pinned at --granularity (default render.granularity). Unchanged
fixtures are served from the render cache when storage is enabled.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().String("granularity", "", "marker granularity: daily, weekly or monthly")
	renderCmd.Flags().Bool("no-cache", false, "ignore and do not update the render cache")
}

const (
	filePermissions = 0o644
	dirPermissions  = 0o755
)

// bundle is everything one render writes to disk.
type bundle struct {
	Timelines map[string]render.Timeline `json:"timelines"`
	Overlay   render.Overlay             `json:"overlay"`
	Markers   []models.Marker            `json:"markers"`
	Cards     []models.Card              `json:"cards"`
	Summary   render.Summary             `json:"summary"`
}

func buildBundle(r *render.Renderer, state view.State) *bundle {
	b := &bundle{Timelines: make(map[string]render.Timeline, 3)}
	for _, g := range []period.Granularity{period.Daily, period.Weekly, period.Monthly} {
		b.Timelines[g.String()] = r.Timeline(g, state.Visible)
	}
	p := r.Build(state)
	b.Overlay = p.Overlay
	b.Markers = p.Markers
	b.Cards = p.Cards
	b.Summary = p.Summary
	return b
}

// writeBundle writes the bundle's files into dir and returns their paths.
func writeBundle(dir string, b *bundle) ([]string, error) {
	files := map[string]any{
		"overlay.json": b.Overlay,
		"markers.json": b.Markers,
		"cards.json":   b.Cards,
		"summary.json": b.Summary,
	}
	for g, tl := range b.Timelines {
		files["timeline-"+g+".json"] = tl
	}

	written := make([]string, 0, len(files))
	for name, v := range files {
		path := filepath.Join(dir, name)
		if err := storage.WriteJSON(path, v, filePermissions, dirPermissions); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// cachedBundle returns the bundle for key, rendering and caching it on a miss.
// A nil store renders without caching. Cache failures are logged, never fatal.
func cachedBundle(store *storage.Store, l *loaded, state view.State, key string) (*bundle, bool) {
	if store != nil {
		entry, err := store.Get(l.digest, key)
		switch {
		case err == nil:
			var b bundle
			if err := json.Unmarshal(entry.Payload, &b); err == nil {
				logger.Debug("Render cache hit for %s (%s)", key, entry.ID)
				return &b, true
			}
			logger.Warn("Discarding unreadable cache entry %s", entry.ID)
		case errors.Is(err, storage.ErrNotFound):
			logger.Debug("Render cache miss for %s", key)
		default:
			logger.Warn("Failed to read render cache: %v", err)
		}
	}

	b := buildBundle(l.renderer, state)
	if store == nil {
		return b, false
	}

	data, err := json.Marshal(b)
	if err != nil {
		logger.Warn("Failed to encode render for cache: %v", err)
		return b, false
	}
	if _, err := store.Put(l.digest, key, data); err != nil {
		logger.Warn("Failed to cache render: %v", err)
		return b, false
	}
	if removed, err := store.Rotate(); err != nil {
		logger.Warn("Failed to rotate render cache: %v", err)
	} else if removed > 0 {
		logger.Debug("Rotated %d cached renders", removed)
	}
	return b, false
}

func runRender(cmd *cobra.Command, args []string) error {
	printer := output.NewPrinter(output.ResolveColors(cfg.Output.Colors))
	start := time.Now()

	state := view.Default()
	state.Granularity = cfg.Granularity()
	if s, _ := cmd.Flags().GetString("granularity"); s != "" {
		g, err := period.ParseGranularity(s)
		if err != nil {
			return err
		}
		state.Granularity = g
	}

	l, err := loadFixtures(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	var store *storage.Store
	if noCache, _ := cmd.Flags().GetBool("no-cache"); cfg.Storage.Enabled && !noCache {
		store, err = storage.Open(cfg.Storage.DBPath, cfg.Storage.MaxEntries, dirPermissions)
		if err != nil {
			return fmt.Errorf("failed to open render cache: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close render cache: %v", err)
			}
		}()
	}

	b, cached := cachedBundle(store, l, state, cacheKey(state.Key(), cfg.Truncation(), cfg.Render.TopEvents))
	files, err := writeBundle(cfg.Output.Dir, b)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	status := "rendered"
	if cached {
		status = "from cache"
	}
	printer.Success("Wrote %d files to %s (%s, %s)", len(files), cfg.Output.Dir, status, elapsed.Round(time.Millisecond))
	if len(l.errs) > 0 {
		printer.Warning("%d fixture entries skipped; run with -v for details", len(l.errs))
	}
	logger.Info("Render complete: digest=%s key=%s cached=%v", l.digest[:12], state.Key(), cached)

	notify(telegram.Report{
		Summary:    b.Summary,
		Source:     cfg.Fixture.Path,
		RenderedAt: start,
		Elapsed:    elapsed,
		Skipped:    len(l.errs),
		Cached:     cached,
	})
	return nil
}

// notify sends a Telegram summary when enabled. Failures are logged only.
func notify(report telegram.Report) {
	if !cfg.Telegram.Enabled {
		logger.Debug("Telegram notifications disabled")
		return
	}
	client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
	if err != nil {
		logger.Warn("Failed to initialize Telegram client: %v", err)
		return
	}
	if err := client.Send(report); err != nil {
		logger.Warn("Failed to send Telegram notification: %v", err)
		return
	}
	logger.Info("Telegram notification sent")
}
