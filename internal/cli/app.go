package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	"vitalcore/internal/blob"
	blobcore "vitalcore/internal/blob/core"
	"vitalcore/internal/catalog"
	"vitalcore/internal/config"
	"vitalcore/internal/core"
	"vitalcore/internal/insight"
	"vitalcore/internal/logging"
	"vitalcore/internal/recommend"
)

// app holds the per-invocation state shared by all commands.
type app struct {
	configPath   string
	user         string
	verbose      bool
	printMetrics bool

	cfg      *config.Config
	logger   *zap.Logger
	catalog  *catalog.Catalog
	registry *prometheus.Registry
	store    core.ClosableStore
	svc      *core.Service
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.user != "" {
		cfg.UserID = a.user
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	a.logger, err = logging.New(cfg.Logging, a.verbose)
	if err != nil {
		return err
	}
	a.catalog, err = catalog.Default()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	a.registry = prometheus.NewRegistry()
	return nil
}

func (a *app) userID() string { return a.cfg.UserID }

// service opens the store and builds the service on first use. withBlobs also
// opens the archive blob store.
func (a *app) service(ctx context.Context, withBlobs bool) (*core.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	engine := core.NewDefaultRulesEngine(a.catalog)
	store, err := core.OpenPersistentStore(ctx, core.StorageOptions{
		Driver:      core.StorageDriver(a.cfg.Storage.Driver),
		SQLitePath:  a.cfg.Storage.SQLitePath,
		PostgresDSN: a.cfg.Storage.PostgresDSN,
	}, engine)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = store

	metrics, err := core.NewPrometheusMetricsRecorder(a.registry)
	if err != nil {
		return nil, err
	}
	opts := []core.Option{
		core.WithLogger(logging.NewAdapter(a.logger)),
		core.WithMetricsRecorder(metrics),
		core.WithRecommender(recommend.New(a.cfg.Recommendations.Window)),
		core.WithMaxRecommendations(a.cfg.Recommendations.MaxResults),
		core.WithInsight(a.insightAdapter(ctx)),
	}
	if withBlobs {
		blobs, err := a.blobStore(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithBlobStore(blobs))
	}
	a.svc = core.NewService(store, a.catalog, opts...)
	return a.svc, nil
}

func (a *app) insightAdapter(ctx context.Context) *insight.Adapter {
	ic := a.cfg.Insight
	opts := insight.Options{
		Timeout:  ic.Timeout,
		Retries:  ic.Retries,
		NoRetry:  ic.Retries == 0,
		Fallback: ic.Fallback,
		Logger:   a.logger.Named("insight"),
	}
	if ic.APIKey == "" {
		return insight.NewAdapter(nil, opts)
	}
	gen, err := insight.NewGenAIGenerator(ctx, ic.APIKey, ic.Model)
	if err != nil {
		a.logger.Warn("insight generator unavailable", zap.Error(err))
		return insight.NewAdapter(nil, opts)
	}
	return insight.NewAdapter(gen, opts)
}

func (a *app) blobStore(ctx context.Context) (blobcore.Store, error) {
	store, err := blob.Open(ctx, blob.Config{
		Driver: blobcore.Driver(a.cfg.Blob.Driver),
		FSRoot: a.cfg.Blob.FSRoot,
		S3:     a.cfg.Blob.S3,
	})
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	return store, nil
}

func (a *app) reportMetrics(out io.Writer) error {
	if !a.printMetrics || a.registry == nil {
		return nil
	}
	return writeMetrics(out, a.registry)
}

// close releases the store and flushes the logger. It is safe to call more than once.
func (a *app) close() error {
	var err error
	if a.store != nil {
		err = a.store.Close()
		a.store = nil
		a.svc = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

func writeMetrics(out io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
