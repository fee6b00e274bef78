// Package fixture loads the conversation and sales fixtures from disk or over
// HTTP(S) and normalizes trendlines into dated samples.
//
// Remote sources are fetched with bounded retries on transport errors and 5xx
// responses. Every load also returns the SHA-256 digest of the raw bytes, which
// the render cache uses as its key.
package fixture

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rewired-gh/trendline/internal/logger"
	"github.com/rewired-gh/trendline/internal/models"
)

// Loader reads fixtures from files or URLs
type Loader struct {
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// NewLoader creates a new Loader. Non-positive retry settings fall back to
// 3 attempts and a 1s linear backoff base.
func NewLoader(timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *Loader {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Loader{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// Raw is the undecoded content of a source plus its digest.
type Raw struct {
	Source string
	Data   []byte
	Digest string
}

// Fetch reads source, which is either a filesystem path or an http(s) URL.
func (l *Loader) Fetch(ctx context.Context, source string) (*Raw, error) {
	var (
		data []byte
		err  error
	)
	if IsRemote(source) {
		data, err = l.fetchRemote(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	sum := sha256.Sum256(data)
	return &Raw{Source: source, Data: data, Digest: hex.EncodeToString(sum[:])}, nil
}

// Load fetches and decodes the conversation fixture and validates its
// structure. Field problems inside records are left for Repair.
func (l *Loader) Load(ctx context.Context, source string) (*models.Fixture, *Raw, error) {
	raw, err := l.Fetch(ctx, source)
	if err != nil {
		return nil, nil, err
	}

	var fx models.Fixture
	if err := json.Unmarshal(raw.Data, &fx); err != nil {
		return nil, nil, fmt.Errorf("failed to decode fixture %s: %w", source, err)
	}
	if err := fx.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid fixture %s: %w", source, err)
	}

	logger.Debug("Loaded fixture %s: %d records, digest %s", source, len(fx.Events), raw.Digest[:12])
	return &fx, raw, nil
}

// LoadSales fetches and decodes the sales fixture. An empty source yields an
// empty fixture so the overlay view degrades to conversation volume only.
func (l *Loader) LoadSales(ctx context.Context, source string) (models.SalesFixture, *Raw, error) {
	if source == "" {
		return models.SalesFixture{}, &Raw{}, nil
	}

	raw, err := l.Fetch(ctx, source)
	if err != nil {
		return nil, nil, err
	}

	var sales models.SalesFixture
	if err := json.Unmarshal(raw.Data, &sales); err != nil {
		return nil, nil, fmt.Errorf("failed to decode sales fixture %s: %w", source, err)
	}
	if sales == nil {
		sales = models.SalesFixture{}
	}

	logger.Debug("Loaded sales fixture %s: %d geographies", source, len(sales))
	return sales, raw, nil
}

// IsRemote reports whether source is an http(s) URL rather than a local path.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// fetchRemote performs the HTTP request with retry logic
func (l *Loader) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for i := 0; i < l.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(l.retryDelayBase * time.Duration(i)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := l.httpClient.Do(req)
		if err != nil {
			lastErr = err
			logger.Debug("Fixture fetch attempt %d/%d failed: %v", i+1, l.maxRetries, err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			logger.Debug("Fixture fetch attempt %d/%d got %d", i+1, l.maxRetries, resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
		}
		if readErr != nil {
			lastErr = readErr
			continue
		}
		return body, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
