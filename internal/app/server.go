package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zoravur/tabletop-sync/internal/api"
	"github.com/zoravur/tabletop-sync/internal/auth"
	"github.com/zoravur/tabletop-sync/internal/config"
	"github.com/zoravur/tabletop-sync/internal/dice"
	"github.com/zoravur/tabletop-sync/internal/protocol"
	"github.com/zoravur/tabletop-sync/internal/reactive"
	"github.com/zoravur/tabletop-sync/internal/session"
	"github.com/zoravur/tabletop-sync/internal/store"
	"github.com/zoravur/tabletop-sync/internal/wal"
)

type Server struct {
	cfg        config.Config
	log        *zap.Logger
	httpServer *http.Server
	DB         *sql.DB

	Registry    *protocol.Registry
	Coordinator *session.Coordinator
	replicator  *wal.Replicator
}

func NewServer(cfg config.Config, log *zap.Logger) (*Server, error) {
	// open shared db connection
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MigrateOnStart {
		if err := store.Migrate(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	st := store.NewPostgres(db)

	reg := protocol.NewRegistry()
	disp := protocol.NewDispatcher(reg, dice.Default, log.Named("dispatcher"))
	disp.RequireMembership = cfg.RequireMembership

	coord := session.NewCoordinator(reg, disp, log.Named("session"), session.WithSendBuffer(cfg.SendBuffer))
	notifier := reactive.NewNotifier(reactive.Deps{Publisher: disp, Rooms: st}, log.Named("notifier"))

	mux := api.SetupRoutes(api.Deps{
		Handlers: &api.Handlers{Store: st, Notify: notifier, Dice: disp},
		WS:       &api.WSHandler{Coordinator: coord},
		Registry: reg,
		Verifier: auth.NewJWTVerifier(cfg.JWTSecret),
	})

	s := &Server{
		cfg: cfg,
		log: log,
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		DB:          db,
		Registry:    reg,
		Coordinator: coord,
	}

	if cfg.WALEnabled {
		s.replicator = &wal.Replicator{
			ConnString: cfg.ReplicationURL,
			Slot:       cfg.WALSlot,
			Retry:      cfg.WALRetry,
			Consumer:   &wal.Consumer{Notify: notifier, Log: log.Named("wal")},
			Log:        log.Named("replication"),
		}
	}
	return s, nil
}

// Run serves until ctx is cancelled, then shuts down: the HTTP listener
// first, then the live connections, releasing their rooms.
func (s *Server) Run(ctx context.Context) error {
	defer s.DB.Close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if s.replicator != nil {
		g.Go(func() error {
			return s.replicator.Run(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		s.log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return drain(shutdownCtx, s.httpServer, s.Coordinator)
	})

	return g.Wait()
}

type listener interface {
	Shutdown(ctx context.Context) error
}

type connSet interface {
	Shutdown()
}

// drain stops the listener before closing live connections, so no upgrade
// can slip in after the connections were closed.
func drain(ctx context.Context, l listener, conns connSet) error {
	err := l.Shutdown(ctx)
	conns.Shutdown()
	return err
}
