// Package main hosts the wikiharvest command line entrypoint.
//
// Architecture overview:
//   - Commands: cmd builds a cobra tree (crawl, views, meta, enrich,
//     wikitable, report, version). The root command loads Viper config,
//     constructs the zap logger, and injects an app.App service container
//     into the command context; PersistentPostRun tears it down.
//   - Harvest pipeline: crawl walks a category tree breadth-first through
//     internal/wiki (MediaWiki action API via Resty, shared token-bucket
//     pacing); views and meta fan article lookups across a bounded worker
//     pool in internal/enrich, talking to the Wikimedia pageviews REST API
//     and the action API; enrich chains both phases and joins the results
//     into a ranked combined dataset.
//   - Datasets: internal/dataset reads and writes the four CSV shapes
//     (articles, views, metadata, combined) and derives sibling output
//     paths from the articles file name. A combined dataset can mirror
//     into Postgres through pgx when store.provider is configured.
//   - Runs & fanout: every network command executes as a run with a UUIDv7
//     id. Progress events flow through a non-blocking hub into zap,
//     Prometheus, an in-memory snapshot (served by the optional status
//     HTTP server), and terminal progress bars. Successful runs archive
//     their outputs (GCS or local directory) and publish a RunSummary to
//     Pub/Sub when configured.
//
// Operational notes:
//   - Concurrency model: one worker pool per phase, sized by
//     harvest.concurrency; category listing uses the same bound. All
//     upstream calls share one rate limiter (http.requests_per_second).
//   - Backoff: transient upstream failures retry up to http.max_attempts
//     with exponential backoff; API error payloads and 404s never retry
//     (a 404 from the pageviews API counts as zero views).
//   - Observability: zap logs carry run ids and article titles at key
//     transitions; Prometheus counters track upstream calls and progress
//     stages; the status server exposes /healthz, /metrics, and run
//     snapshots under /v1.
//
// Quick checklist:
//   - Configure via wikiharvest.yaml or WIKIHARVEST_* env overrides
//     (user_agent, http.*, pageviews.*, crawl.*, harvest.*, store.*,
//     archive.*, notify.*, status.*, logging.*).
//   - Run locally: go run ./cmd/wikiharvest crawl "Roguelike video games"
//     then enrich the resulting articles CSV.
//   - Be polite to the APIs: keep a descriptive user_agent and a modest
//     requests_per_second; the defaults stay well under Wikimedia's
//     published limits.
package main
