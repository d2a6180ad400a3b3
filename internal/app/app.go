// Package app wires the storage, services and sync machinery into a
// runnable application.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/waterlog/internal/config"
	"github.com/dmitrijs2005/waterlog/internal/logging"
	"github.com/dmitrijs2005/waterlog/internal/migrations"
	"github.com/dmitrijs2005/waterlog/internal/models"
	"github.com/dmitrijs2005/waterlog/internal/ratelimit"
	"github.com/dmitrijs2005/waterlog/internal/repositories/flags"
	"github.com/dmitrijs2005/waterlog/internal/repositories/outbox"
	"github.com/dmitrijs2005/waterlog/internal/repositories/replica"
	"github.com/dmitrijs2005/waterlog/internal/services"
	"github.com/dmitrijs2005/waterlog/internal/syncer"
	"github.com/dmitrijs2005/waterlog/internal/transport"

	_ "modernc.org/sqlite"
)

// Store bundles the database handle with the repositories and services
// built on it. One-shot CLI commands use a Store directly; the daemon
// wraps it in an App.
type Store struct {
	DB       *sql.DB
	Replicas replica.Repository
	Flags    flags.Repository
	Outbox   outbox.Repository
	Limiter  *ratelimit.Limiter
	Drinks   *services.DrinkService
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// OpenStore opens (creating if needed) the SQLite database at
// cfg.DatabasePath, migrates it, and builds the repository stack.
//
// One-shot commands pass a queueNotifier-backed service so entries logged
// while no daemon is running still land in the outbox and flush on the
// daemon's next reconnect.
func OpenStore(ctx context.Context, cfg *config.Config, log logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.Noop{}
	}
	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc sqlite hands every connection its own view of :memory:
	// databases and serializes writers anyway.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s := &Store{
		DB:       db,
		Replicas: replica.NewSQLiteRepository(db),
		Flags:    flags.NewSQLiteRepository(db),
		Outbox:   outbox.NewSQLiteRepository(db),
	}
	s.Limiter = ratelimit.NewLimiter(s.Flags, cfg.MinLogInterval)
	s.Drinks = services.NewDrinkService(s.Replicas, s.Limiter, &queueNotifier{outbox: s.Outbox, log: log}, log)
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.DB.Close()
}

// queueNotifier records admitted entries in the outbox without a live
// transport. A running daemon shares the database and flushes the queue
// when the peer is next reachable.
type queueNotifier struct {
	outbox outbox.Repository
	log    logging.Logger
}

func (n *queueNotifier) EntryAdmitted(ctx context.Context, e models.Entry) {
	payload, err := transport.EncodeEntry(e)
	if err != nil {
		n.log.Warn(ctx, "failed to encode entry for delivery", "err", err)
		return
	}
	if err := n.outbox.Enqueue(ctx, payload); err != nil {
		n.log.Warn(ctx, "failed to queue entry for delivery", "err", err)
	}
}

// App is the long-running daemon: the store plus the TCP transport and the
// sync coordinator consuming its events.
type App struct {
	Store       *Store
	Transport   *transport.TCPTransport
	Coordinator *syncer.Coordinator
	Drinks      *services.DrinkService

	log logging.Logger
}

// NewApp builds the daemon on top of an open store. The drink service it
// exposes notifies the coordinator directly, so admitted entries go out on
// the live connection instead of waiting in the outbox.
func NewApp(cfg *config.Config, store *Store, log logging.Logger) *App {
	if log == nil {
		log = logging.Noop{}
	}
	tr := transport.NewTCP(transport.TCPConfig{
		Device:        cfg.DeviceName,
		ListenAddr:    cfg.ListenAddr,
		PeerAddr:      cfg.PeerAddr,
		PairingSecret: cfg.PairingSecret,
		ProbeInterval: cfg.ProbeInterval,
	}, store.Outbox, log)
	coord := syncer.New(store.Replicas, store.Flags, tr, log, cfg.Premium)
	drinks := services.NewDrinkService(store.Replicas, store.Limiter, coord, log)
	return &App{
		Store:       store,
		Transport:   tr,
		Coordinator: coord,
		Drinks:      drinks,
		log:         log,
	}
}

// Run starts the transport and the coordinator and blocks until ctx is
// cancelled or either component fails.
func (a *App) Run(ctx context.Context) error {
	trErr := make(chan error, 1)
	go func() {
		trErr <- a.Transport.Run(ctx)
	}()
	coErr := make(chan error, 1)
	go func() {
		coErr <- a.Coordinator.Run(ctx)
	}()

	a.log.Info(ctx, "waterlog daemon started")

	var err error
	select {
	case err = <-trErr:
	case err = <-coErr:
	}
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Close shuts down the transport and the store.
func (a *App) Close() error {
	err := a.Transport.Close()
	if cerr := a.Store.Close(); err == nil {
		err = cerr
	}
	return err
}
