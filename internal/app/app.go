// Package app wires together all adapters and domain logic.
// It loads the gazetteer and label table once, builds the resolution
// pipeline, and manages the long-running modes (HTTP server, inbox watcher).
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/loopercamera/4M/internal/adapters/ahocorasick"
	"github.com/loopercamera/4M/internal/adapters/bbolt"
	fsw "github.com/loopercamera/4M/internal/adapters/fsnotify"
	"github.com/loopercamera/4M/internal/adapters/memo"
	"github.com/loopercamera/4M/internal/adapters/records"
	"github.com/loopercamera/4M/internal/adapters/sqlstore"
	"github.com/loopercamera/4M/internal/adapters/web"
	"github.com/loopercamera/4M/internal/config"
	"github.com/loopercamera/4M/internal/domain/disambig"
	"github.com/loopercamera/4M/internal/domain/enrich"
	"github.com/loopercamera/4M/internal/domain/gazetteer"
	"github.com/loopercamera/4M/internal/domain/resolver"
	"github.com/loopercamera/4M/internal/pipeline"
	"github.com/loopercamera/4M/internal/ports"
)

// ErrClosed is returned when an adapter is requested after Close.
var ErrClosed = errors.New("app closed")

// ErrNoDSN is returned by SyncSQL when no database is configured.
var ErrNoDSN = errors.New("no database configured (set sql.dsn or GEOLOC_SQL_DSN)")

// Config holds the parameters for creating a new App.
type Config struct {
	Settings    config.Config
	ProjectRoot string
	Logger      *slog.Logger  // nil uses slog.Default()
	Debounce    time.Duration // inbox quiet period; 0 keeps the watcher default
}

// App is the top-level container wiring all components together.
type App struct {
	ProjectRoot string
	Paths       *Paths
	Settings    config.Config
	Log         *slog.Logger

	Index    *gazetteer.Index
	Table    *enrich.Table
	Cache    *memo.Cache // nil when caching is disabled
	Resolver *resolver.Resolver
	Pipeline *pipeline.Pipeline

	mu        sync.Mutex // guards the lazily opened adapters below
	store     *bbolt.Store
	watcher   *fsw.Watcher
	webServer *web.Server
	debounce  time.Duration
	closed    bool
}

// New loads the gazetteer and label table and builds the resolution stack.
// Storage, the watcher and the web server are opened on demand.
func New(cfg Config) (*App, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	s := cfg.Settings

	entries, err := gazetteer.LoadEntries(s.Gazetteer)
	if err != nil {
		return nil, fmt.Errorf("gazetteer: %w", err)
	}
	idx, err := gazetteer.New(entries, ahocorasick.Build)
	if err != nil {
		return nil, fmt.Errorf("gazetteer %s: %w", s.Gazetteer, err)
	}
	if err := idx.ValidateLevels(s.CantonLevel); err != nil {
		// The canton rule simply never fires; resolution still works.
		log.Warn("canton level check failed", "error", err)
	}
	st := idx.Stats()
	log.Info("gazetteer loaded",
		"path", s.Gazetteer,
		"entries", st.Entries,
		"labels", st.UniqueLabels,
		"overwritten", st.Overwritten)

	table, err := enrich.Load(s.Labels)
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	log.Info("label table loaded", "path", s.Labels, "labels", table.Len())
	if missing := table.Missing(idx.LabelIDs()); len(missing) > 0 {
		log.Warn("gazetteer labels without label table row", "count", len(missing), "first", missing[0])
	}

	opts := []resolver.Option{resolver.WithLanguages(s.Languages)}
	var cache *memo.Cache
	if s.Cache.Enabled {
		cache = memo.New(s.Cache.TTL)
		opts = append(opts, resolver.WithCache(cache))
	}
	res := resolver.New(idx, disambig.New(s.CantonLevel), opts...)
	pipe := pipeline.New(res, table,
		pipeline.WithWorkers(s.Workers),
		pipeline.WithLogger(log))

	return &App{
		ProjectRoot: cfg.ProjectRoot,
		Paths:       NewPaths(cfg.ProjectRoot),
		Settings:    s,
		Log:         log,
		Index:       idx,
		Table:       table,
		Cache:       cache,
		Resolver:    res,
		Pipeline:    pipe,
		debounce:    cfg.Debounce,
	}, nil
}

// StorePath is the bbolt file used for stored results.
func (a *App) StorePath() string {
	if a.Settings.Store.Path != "" {
		return a.Settings.Store.Path
	}
	return a.Paths.DB
}

// Store opens the result store on first use.
func (a *App) Store() (*bbolt.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.openStoreLocked()
}

func (a *App) openStoreLocked() (*bbolt.Store, error) {
	if a.closed {
		return nil, ErrClosed
	}
	if a.store != nil {
		return a.store, nil
	}
	if a.Settings.Store.Path == "" {
		if err := a.Paths.EnsureDirs(); err != nil {
			return nil, fmt.Errorf("create %s: %w", a.Paths.Root, err)
		}
	}
	store, err := bbolt.NewStore(a.StorePath(), bbolt.WithLogger(a.Log))
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// ResolveFile resolves a JSONL or CSV batch into a JSONL result file. With
// persist set, the results are also saved to the result store.
func (a *App) ResolveFile(ctx context.Context, in, out string, persist bool) (pipeline.Summary, error) {
	src := records.FileSource{Path: in, Encoding: a.Settings.Input.Encoding}
	var sink ports.ResultSink = records.FileSink{Path: out}
	if persist {
		store, err := a.Store()
		if err != nil {
			return pipeline.Summary{}, err
		}
		sink = teeSink{sink, store}
	}
	return a.Pipeline.Sync(ctx, src, sink, 0)
}

// SyncSQL resolves pending rows of the metadata table and writes the
// locations back. initSchema creates the table first when missing.
func (a *App) SyncSQL(ctx context.Context, initSchema bool) (pipeline.Summary, error) {
	if a.Settings.SQL.DSN == "" {
		return pipeline.Summary{}, ErrNoDSN
	}
	db, err := sqlstore.Open(ctx, a.Settings.SQL.Driver, a.Settings.SQL.DSN, a.Resolver.Languages())
	if err != nil {
		return pipeline.Summary{}, err
	}
	defer db.Close()

	if initSchema {
		if err := db.EnsureSchema(ctx); err != nil {
			return pipeline.Summary{}, err
		}
	}
	if n, err := db.Pending(ctx); err == nil {
		a.Log.Info("pending records", "driver", db.Driver(), "count", n)
	}
	return a.Pipeline.Sync(ctx, db, db, a.Settings.SQL.Limit)
}

// Serve starts the HTTP API on addr. Stored results are served when the
// result store can be opened.
func (a *App) Serve(addr string) (*web.Server, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrClosed
	}
	if a.webServer != nil {
		return a.webServer, nil
	}

	opts := web.Options{Logger: a.Log, Cache: a.Cache}
	if store, err := a.openStoreLocked(); err == nil {
		opts.Store = store
	} else {
		a.Log.Warn("result store unavailable", "error", err)
	}

	srv := web.NewServer(a.Pipeline, opts)
	if err := srv.Start(addr); err != nil {
		return nil, err
	}
	a.webServer = srv
	return srv, nil
}

// Watch resolves every batch dropped into dir. Each batch is written next
// to itself as <name>.resolved.jsonl and saved to the result store.
// An empty dir watches the project inbox.
func (a *App) Watch(dir string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.watcher != nil {
		return "", errors.New("already watching")
	}
	if dir == "" {
		if err := a.Paths.EnsureDirs(); err != nil {
			return "", err
		}
		dir = a.Paths.InboxDir
	}
	if _, err := a.openStoreLocked(); err != nil {
		return "", err
	}

	w, err := fsw.NewWatcher(fsw.WithDebounce(a.debounce))
	if err != nil {
		return "", fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Watch(dir, a.onBatch); err != nil {
		w.Stop()
		return "", fmt.Errorf("watch %s: %w", dir, err)
	}
	a.watcher = w
	abs, _ := filepath.Abs(dir)
	a.Log.Info("watching inbox", "dir", abs)
	return abs, nil
}

// onBatch handles one settled batch file from the watcher.
func (a *App) onBatch(path string) {
	out := fsw.OutputPath(path)
	sum, err := a.ResolveFile(context.Background(), path, out, true)
	if err != nil {
		a.Log.Error("batch failed", "file", path, "error", err)
		return
	}
	a.Log.Info("batch resolved",
		"file", filepath.Base(path),
		"output", filepath.Base(out),
		"total", sum.Total,
		"resolved", sum.Resolved)
}

// Close stops the watcher and web server and closes the result store.
// Safe to call more than once.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Stop())
		a.watcher = nil
	}
	if a.webServer != nil {
		a.webServer.Stop()
		a.webServer = nil
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	return errors.Join(errs...)
}

// teeSink saves to each sink in order and stops at the first failure.
// Only the individual sinks are transactional.
type teeSink []ports.ResultSink

func (t teeSink) Save(ctx context.Context, results []ports.Result) error {
	for _, s := range t {
		if err := s.Save(ctx, results); err != nil {
			return err
		}
	}
	return nil
}
