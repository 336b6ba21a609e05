// Package app initializes and holds the long-lived services shared by the
// harvest commands, acting as a dependency injection container. It is built
// once per invocation and carried through the command context.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	gcpubsub "cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wikiharvest/wikiharvest/internal/archive"
	archivegcs "github.com/wikiharvest/wikiharvest/internal/archive/gcs"
	archivelocal "github.com/wikiharvest/wikiharvest/internal/archive/local"
	"github.com/wikiharvest/wikiharvest/internal/clock/system"
	"github.com/wikiharvest/wikiharvest/internal/config"
	"github.com/wikiharvest/wikiharvest/internal/dataset"
	datasetpg "github.com/wikiharvest/wikiharvest/internal/dataset/postgres"
	"github.com/wikiharvest/wikiharvest/internal/hash/sha256"
	iduuid "github.com/wikiharvest/wikiharvest/internal/id/uuid"
	"github.com/wikiharvest/wikiharvest/internal/notify"
	notifypubsub "github.com/wikiharvest/wikiharvest/internal/notify/pubsub"
	"github.com/wikiharvest/wikiharvest/internal/pageviews"
	"github.com/wikiharvest/wikiharvest/internal/progress"
	"github.com/wikiharvest/wikiharvest/internal/progress/sinks"
	"github.com/wikiharvest/wikiharvest/internal/ratelimit"
	"github.com/wikiharvest/wikiharvest/internal/status"
	"github.com/wikiharvest/wikiharvest/internal/upstream"
	"github.com/wikiharvest/wikiharvest/internal/wiki"
)

const closeTimeout = 10 * time.Second

// Clock reads the current time. The system implementation lives in
// internal/clock/system.
type Clock interface {
	Now() time.Time
}

// App holds the shared services for one command invocation: upstream
// clients, the progress hub and its sinks, and the configured store,
// archiver, and notifier providers.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	wiki      *wiki.Client
	pageviews *pageviews.Client

	hub       *progress.Hub
	snapshots *sinks.SnapshotSink

	store    dataset.Store
	archiver archive.Archiver
	notifier notify.Notifier

	statusSrv     *status.Server
	statusStarted bool

	idGen  *iduuid.Generator
	hasher *sha256.Hasher
	clock  Clock

	gcsClient *gcstorage.Client
	psClient  *gcpubsub.Client

	registerer  prometheus.Registerer
	progressOut io.Writer
}

// Option adjusts App construction; the overrides exist mainly for tests.
type Option func(*App)

// WithRegisterer overrides the Prometheus registry progress collectors
// register on.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(a *App) { a.registerer = reg }
}

// WithProgressWriter redirects terminal progress bars.
func WithProgressWriter(w io.Writer) Option {
	return func(a *App) { a.progressOut = w }
}

// WithStore overrides the configured dataset store.
func WithStore(s dataset.Store) Option {
	return func(a *App) { a.store = s }
}

// WithArchiver overrides the configured archiver.
func WithArchiver(arch archive.Archiver) Option {
	return func(a *App) { a.archiver = arch }
}

// WithNotifier overrides the configured notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(a *App) { a.notifier = n }
}

// WithClock overrides the run clock.
func WithClock(c Clock) Option {
	return func(a *App) { a.clock = c }
}

// New builds the service container from configuration. It fails fast when
// any configured provider cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		cfg:    cfg,
		logger: logger,
		idGen:  iduuid.New(),
		hasher: sha256.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.clock == nil {
		a.clock = system.New()
	}
	if a.registerer == nil {
		a.registerer = prometheus.DefaultRegisterer
	}

	a.buildClients()
	if err := a.buildProgress(); err != nil {
		return nil, err
	}
	if err := a.buildStore(ctx); err != nil {
		return nil, err
	}
	if err := a.buildArchiver(ctx); err != nil {
		return nil, err
	}
	if err := a.buildNotifier(ctx); err != nil {
		return nil, err
	}
	if cfg.Status.Enabled {
		a.statusSrv = status.NewServer(a.snapshots, logger.Named("status"))
	}

	return a, nil
}

func (a *App) buildClients() {
	limiter := ratelimit.New(ratelimit.Config{
		RPS:   a.cfg.HTTP.RequestsPerSecond,
		Burst: a.cfg.HTTP.Burst,
	})
	base := upstream.Config{
		UserAgent:      a.cfg.UserAgent,
		Timeout:        a.cfg.HTTP.Timeout(),
		MaxAttempts:    a.cfg.HTTP.MaxAttempts,
		BackoffInitial: a.cfg.HTTP.BackoffInitial(),
		BackoffMax:     a.cfg.HTTP.BackoffMax(),
		Limiter:        limiter,
	}

	wikiUp := base
	wikiUp.BaseURL = a.cfg.Wiki.APIURL
	a.wiki = wiki.NewClient(wiki.Config{
		Upstream: wikiUp,
		SiteURL:  a.cfg.Wiki.SiteURL,
	}, a.logger.Named("wiki"))

	pvUp := base
	pvUp.BaseURL = a.cfg.Pageviews.APIURL
	a.pageviews = pageviews.NewClient(pageviews.Config{
		Upstream:    pvUp,
		Project:     a.cfg.Pageviews.Project,
		Access:      a.cfg.Pageviews.Access,
		Agent:       a.cfg.Pageviews.Agent,
		Granularity: a.cfg.Pageviews.Granularity,
	}, a.logger.Named("pageviews"))
}

func (a *App) buildProgress() error {
	promSink, err := sinks.NewPrometheusSink(a.registerer)
	if err != nil {
		return fmt.Errorf("init progress metrics: %w", err)
	}
	a.snapshots = sinks.NewSnapshotSink(0)
	a.hub = progress.NewHub(
		progress.Config{Logger: a.logger.Named("progress")},
		sinks.NewLogSink(a.logger.Named("progress")),
		promSink,
		a.snapshots,
		sinks.NewTerminalSink(a.progressOut),
	)
	return nil
}

func (a *App) buildStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	switch a.cfg.Store.Provider {
	case config.ProviderNone, "":
		a.store = dataset.NoopStore{}
	case config.ProviderPostgres:
		a.logger.Info("mirroring combined datasets to postgres",
			zap.String("table", a.cfg.Store.Postgres.Table))
		st, err := datasetpg.NewStore(ctx, datasetpg.Config{
			DSN:   a.cfg.Store.Postgres.DSN,
			Table: a.cfg.Store.Postgres.Table,
		})
		if err != nil {
			return fmt.Errorf("init postgres store: %w", err)
		}
		a.store = st
	default:
		return fmt.Errorf("unknown store provider %q", a.cfg.Store.Provider)
	}
	return nil
}

func (a *App) buildArchiver(ctx context.Context) error {
	if a.archiver != nil {
		return nil
	}
	switch a.cfg.Archive.Provider {
	case config.ProviderNone, "":
		a.archiver = archive.Noop{}
	case config.ProviderGCS:
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("init gcs client: %w", err)
		}
		a.gcsClient = client
		a.logger.Info("archiving run outputs to gcs",
			zap.String("bucket", a.cfg.Archive.GCS.Bucket))
		arch, err := archivegcs.New(client, archivegcs.Config{Bucket: a.cfg.Archive.GCS.Bucket})
		if err != nil {
			return fmt.Errorf("init gcs archiver: %w", err)
		}
		a.archiver = arch
	case config.ProviderLocal:
		a.logger.Info("archiving run outputs to local directory",
			zap.String("dir", a.cfg.Archive.Local.Dir))
		arch, err := archivelocal.New(archivelocal.Config{BaseDir: a.cfg.Archive.Local.Dir})
		if err != nil {
			return fmt.Errorf("init local archiver: %w", err)
		}
		a.archiver = arch
	default:
		return fmt.Errorf("unknown archive provider %q", a.cfg.Archive.Provider)
	}
	return nil
}

func (a *App) buildNotifier(ctx context.Context) error {
	if a.notifier != nil {
		return nil
	}
	switch a.cfg.Notify.Provider {
	case config.ProviderNone, "":
		a.notifier = notify.Noop{}
	case config.ProviderPubSub:
		client, err := gcpubsub.NewClient(ctx, a.cfg.Notify.PubSub.ProjectID)
		if err != nil {
			return fmt.Errorf("init pubsub client: %w", err)
		}
		a.psClient = client
		a.logger.Info("publishing run summaries to pubsub",
			zap.String("topic", a.cfg.Notify.PubSub.TopicID))
		a.notifier = notifypubsub.New(client)
	default:
		return fmt.Errorf("unknown notify provider %q", a.cfg.Notify.Provider)
	}
	return nil
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Wiki returns the action API client.
func (a *App) Wiki() *wiki.Client {
	return a.wiki
}

// Pageviews returns the pageviews API client.
func (a *App) Pageviews() *pageviews.Client {
	return a.pageviews
}

// Store returns the configured combined-dataset store.
func (a *App) Store() dataset.Store {
	return a.store
}

// Snapshots returns the in-memory run snapshots fed by the progress hub.
func (a *App) Snapshots() *sinks.SnapshotSink {
	return a.snapshots
}

// Close shuts the services down in dependency order: the status server
// first, then the progress hub so final events flush, then the providers.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if a.statusSrv != nil {
		if err := a.statusSrv.Shutdown(ctx); err != nil {
			a.logger.Warn("status server shutdown failed", zap.Error(err))
		}
	}
	if err := a.hub.Close(ctx); err != nil {
		a.logger.Warn("progress hub close failed", zap.Error(err))
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.psClient != nil {
		if err := a.psClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	a.logger.Sync() //nolint:errcheck // best-effort flush
}
