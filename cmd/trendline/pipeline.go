package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/rewired-gh/trendline/internal/config"
	"github.com/rewired-gh/trendline/internal/fixture"
	"github.com/rewired-gh/trendline/internal/logger"
	"github.com/rewired-gh/trendline/internal/render"
	"github.com/rewired-gh/trendline/internal/trend"
)

// loaded is one pass of fixture loading and normalization.
type loaded struct {
	renderer *render.Renderer
	digest   string  // Identifies the fixture content for caching
	errs     []error // Skipped samples and sales entries
}

// loadFixtures fetches both fixtures and builds a renderer over them.
func loadFixtures(ctx context.Context, cfg *config.Config) (*loaded, error) {
	loader := fixture.NewLoader(cfg.Fixture.Timeout, cfg.Fixture.MaxRetries, time.Second)

	fx, fxRaw, err := loader.Load(ctx, cfg.Fixture.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixture: %w", err)
	}
	sales, salesRaw, err := loader.LoadSales(ctx, cfg.Fixture.SalesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales fixture: %w", err)
	}

	r, errs := render.New(fx, sales, render.Options{
		Truncation: cfg.Truncation(),
		TopEvents:  cfg.Render.TopEvents,
	})
	for _, e := range errs {
		logger.Warn("Fixture problem: %v", e)
	}

	return &loaded{
		renderer: r,
		digest:   combinedDigest(fxRaw.Digest, salesRaw.Digest),
		errs:     errs,
	}, nil
}

// combinedDigest hashes the per-fixture digests into one cache key.
func combinedDigest(fixtureDigest, salesDigest string) string {
	sum := sha256.Sum256([]byte(fixtureDigest + "\n" + salesDigest))
	return hex.EncodeToString(sum[:])
}

// cacheKey extends a view key with every render option that changes the
// bundle: the synthesis policy (daily output) and the summary's event count.
func cacheKey(viewKey string, policy trend.TruncationPolicy, topEvents int) string {
	return viewKey + "/" + policy.String() + "/top" + strconv.Itoa(topEvents)
}
