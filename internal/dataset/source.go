package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spinlytics/casino-analytics/pkg/config"
	"github.com/spinlytics/casino-analytics/pkg/enums"
	pkgerrors "github.com/spinlytics/casino-analytics/pkg/errors"
	"github.com/spinlytics/casino-analytics/pkg/logger"
	"github.com/spinlytics/casino-analytics/pkg/metrics"
)

// Source resolves a named dataset into the local cache. Idempotent: repeated
// calls without force serve the cached copy and touch the network exactly
// once per version.
type Source struct {
	catalog  Catalog
	manifest *Manifest
	lock     FetchLock
	cfg      config.CatalogConfig
	cacheDir string
	logg     *logger.Logger
	metrics  *metrics.PipelineMetrics
}

// SourceParams wires a Source.
type SourceParams struct {
	Catalog  Catalog
	Manifest *Manifest
	Lock     FetchLock
	Config   config.CatalogConfig
	CacheDir string
	Logger   *logger.Logger
	Metrics  *metrics.PipelineMetrics
}

func NewSource(params SourceParams) (*Source, error) {
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if params.Manifest == nil {
		return nil, fmt.Errorf("manifest is required")
	}
	if params.CacheDir == "" {
		return nil, fmt.Errorf("cache dir is required")
	}
	lock := params.Lock
	if lock == nil {
		lock = NoopLock{}
	}
	return &Source{
		catalog:  params.Catalog,
		manifest: params.Manifest,
		lock:     lock,
		cfg:      params.Config,
		cacheDir: params.CacheDir,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// EnsureAvailable returns a descriptor for the named dataset, fetching it
// from the catalog only when the cache has no populated copy or force is
// set.
func (s *Source) EnsureAvailable(ctx context.Context, name string, force bool) (Descriptor, error) {
	if s.logg != nil {
		ctx = s.logg.WithDataset(ctx, name)
	}

	if !force {
		if d, ok := s.cached(ctx, name); ok {
			s.metrics.IncCacheHit(name)
			if s.logg != nil {
				s.logg.Debug(ctx, "dataset served from cache")
			}
			return d, nil
		}
	}

	acquired, err := s.lock.Acquire(ctx, name)
	if err != nil {
		return Descriptor{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring fetch lock").
			WithDetails(map[string]any{"dataset": name})
	}
	if !acquired {
		// Another session is populating the cache. Give it a moment and
		// re-check; falling through to a duplicate download is still safe
		// because population is rename-atomic.
		if d, ok := s.waitForSibling(ctx, name); ok {
			return d, nil
		}
	} else {
		defer func() {
			if err := s.lock.Release(ctx, name); err != nil && s.logg != nil {
				s.logg.Warn(ctx, "failed to release fetch lock")
			}
		}()
	}

	d, err := s.fetch(ctx, name)
	if err != nil {
		s.metrics.IncFetchFailure(name)
		return Descriptor{}, err
	}
	s.metrics.IncFetch(name)

	if err := s.manifest.Record(ctx, d, enums.DatasetStatusCached); err != nil {
		return Descriptor{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording dataset in manifest").
			WithDetails(map[string]any{"dataset": name})
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "version", d.Version), "dataset fetched")
	}
	return d, nil
}

func (s *Source) cached(ctx context.Context, name string) (Descriptor, bool) {
	rec, err := s.manifest.LatestCached(ctx, name)
	if err != nil || rec == nil {
		return Descriptor{}, false
	}
	if _, statErr := os.Stat(rec.LocalPath); statErr != nil {
		return Descriptor{}, false
	}
	return ToDescriptor(rec), true
}

func (s *Source) waitForSibling(ctx context.Context, name string) (Descriptor, bool) {
	for i := 0; i < s.retryAttempts(); i++ {
		if err := sleepCtx(ctx, s.retryDelay(i)); err != nil {
			return Descriptor{}, false
		}
		if d, ok := s.cached(ctx, name); ok {
			return d, true
		}
	}
	return Descriptor{}, false
}

func (s *Source) fetch(ctx context.Context, name string) (Descriptor, error) {
	entry, err := s.catalog.Resolve(ctx, name)
	if err != nil {
		return Descriptor{}, err
	}

	s.markStatus(ctx, entry, enums.DatasetStatusFetching)
	d, err := s.download(ctx, entry)
	if err != nil {
		s.markStatus(ctx, entry, enums.DatasetStatusFailed)
		return Descriptor{}, err
	}
	return d, nil
}

// markStatus records an in-flight or failed manifest row so siblings and
// operators can tell a half-finished fetch from a populated one. Best
// effort: a manifest write failure must not mask the fetch outcome.
func (s *Source) markStatus(ctx context.Context, entry Entry, status enums.DatasetStatus) {
	pending := Descriptor{
		Name:      entry.Name,
		Version:   entry.Version,
		RemoteRef: entry.RemoteRef,
	}
	if err := s.manifest.Record(ctx, pending, status); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "failed to record dataset status "+status.String())
	}
}

func (s *Source) download(ctx context.Context, entry Entry) (Descriptor, error) {
	name := entry.Name

	var lastErr error
	for attempt := 0; attempt < s.retryAttempts(); attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, s.retryDelay(attempt-1)); err != nil {
				return Descriptor{}, pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, err, "fetch canceled").
					WithDetails(map[string]any{"dataset": name})
			}
		}
		d, err := s.populate(ctx, entry)
		if err == nil {
			return d, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return Descriptor{}, err
		}
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt+1), "dataset fetch attempt failed")
		}
	}
	return Descriptor{}, pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, lastErr, "download retries exhausted").
		WithDetails(map[string]any{"dataset": name, "attempts": s.retryAttempts()})
}

// populate downloads one entry into the cache with a temp-file + rename so a
// crash never leaves a partial file at the final path.
func (s *Source) populate(ctx context.Context, entry Entry) (Descriptor, error) {
	versionDir := filepath.Join(s.cacheDir, entry.Name, entry.Version)
	if err := os.MkdirAll(versionDir, 0o755); err != nil {
		return Descriptor{}, pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, err, "creating cache dir")
	}
	finalPath := filepath.Join(versionDir, "data.csv")

	tmp, err := os.CreateTemp(versionDir, ".download-*")
	if err != nil {
		return Descriptor{}, pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, err, "creating temp file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	hasher := sha256.New()
	counter := &countingWriter{}
	dst := io.MultiWriter(tmp, hasher, counter)

	if err := s.catalog.Download(ctx, entry, dst); err != nil {
		tmp.Close()
		return Descriptor{}, err
	}
	if err := tmp.Close(); err != nil {
		return Descriptor{}, pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, err, "closing temp file")
	}

	size := counter.n
	if s.cfg.MaxDownloadSize > 0 && size > s.cfg.MaxDownloadSize {
		return Descriptor{}, pkgerrors.New(pkgerrors.CodeIntegrity, "download exceeds configured size limit").
			WithDetails(map[string]any{"dataset": entry.Name, "size": size})
	}
	if entry.SizeBytes > 0 && size != entry.SizeBytes {
		return Descriptor{}, pkgerrors.New(pkgerrors.CodeIntegrity, "downloaded size does not match catalog entry").
			WithDetails(map[string]any{"dataset": entry.Name, "expected": entry.SizeBytes, "actual": size})
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	if entry.Checksum != "" && sum != entry.Checksum {
		return Descriptor{}, pkgerrors.New(pkgerrors.CodeIntegrity, "checksum mismatch").
			WithDetails(map[string]any{"dataset": entry.Name, "expected": entry.Checksum, "actual": sum})
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return Descriptor{}, pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, err, "committing cache file")
	}

	return Descriptor{
		Name:      entry.Name,
		Version:   entry.Version,
		RemoteRef: entry.RemoteRef,
		LocalPath: finalPath,
		Checksum:  sum,
		SizeBytes: size,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func (s *Source) retryAttempts() int {
	if s.cfg.RetryAttempts <= 0 {
		return 3
	}
	return s.cfg.RetryAttempts
}

func (s *Source) retryDelay(attempt int) time.Duration {
	base := s.cfg.RetryBaseDelay
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	return base << attempt
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
