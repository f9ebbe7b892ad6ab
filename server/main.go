package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"poker-room/server/hub"
	"poker-room/server/store"
	"poker-room/server/table"
)

func newLogger(cfg config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !cfg.Color}).Level(level).With().Timestamp().Logger()
}

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	logger := newLogger(cfg)

	var migrate bool
	for _, a := range os.Args[1:] {
		if a == "--migrate" {
			migrate = true
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, migrate); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

type stores struct {
	games    table.GameStore
	balances table.BalanceStore
	close    func()
}

// openStores picks Postgres when DATABASE_URL is set and the in-memory store
// otherwise.
func openStores(ctx context.Context, cfg config, migrate bool, log zerolog.Logger) (stores, error) {
	if cfg.DatabaseURL == "" {
		if migrate {
			return stores{}, errors.New("--migrate needs DATABASE_URL")
		}
		log.Warn().Msg("DATABASE_URL not set, games live in memory only")
		m := store.NewMemory()
		return stores{games: m, balances: m, close: func() {}}, nil
	}
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return stores{}, err
	}
	if err := db.Ping(ctx); err != nil {
		db.Close(ctx)
		return stores{}, err
	}
	if cfg.AutoMigrate || migrate {
		if err := store.Migrate(ctx, db); err != nil {
			db.Close(ctx)
			return stores{}, err
		}
		log.Info().Msg("migrated")
	}
	return stores{games: db, balances: db, close: func() { db.Close(context.Background()) }}, nil
}

func run(ctx context.Context, cfg config, log zerolog.Logger, migrate bool) error {
	st, err := openStores(ctx, cfg, migrate, log.With().Str("component", "store").Logger())
	if err != nil {
		return err
	}
	defer st.close()
	if migrate {
		return nil
	}

	seeds := newSeedStream(cfg.DeckSeed)
	log.Info().Uint64("seed", cfg.DeckSeed).Msg("deck seed")

	var svc *table.Service
	h := hub.New(func(ctx context.Context, code string) (any, error) {
		g, err := svc.Get(ctx, code)
		if err != nil {
			return nil, err
		}
		return table.View(g, ""), nil
	}, log.With().Str("component", "hub").Logger())
	svc = table.New(st.games, st.balances, h, cfg.Table, int64(seeds.next()),
		table.WithLogger(log.With().Str("component", "table").Logger()))

	if _, err := svc.EnsureSingleton(ctx); err != nil {
		return err
	}
	n, err := svc.Resume(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info().Int("timers", n).Msg("resumed persisted timers")
	}

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     Router(svc, h, log.With().Str("component", "http").Logger()),
		ReadTimeout: 15 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.Run(ctx) })
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("listening (Ctrl+C to stop)")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
