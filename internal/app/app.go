package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/voxfield/minesweeper3d-server/internal/config"
	"github.com/voxfield/minesweeper3d-server/internal/database"
	"github.com/voxfield/minesweeper3d-server/internal/middleware"
	"github.com/voxfield/minesweeper3d-server/internal/session"
)

type App struct {
	log        *logrus.Logger
	router     *http.ServeMux
	db         *pgxpool.Pool
	registry   *session.Registry
	cookies    *config.Cookies
	ws         *config.WebSocket
	migrations fs.FS
}

func New(log *logrus.Logger, migrations fs.FS) *App {
	return &App{
		log:        log,
		router:     http.NewServeMux(),
		registry:   session.NewRegistry(),
		ws:         config.NewWebSocket(),
		migrations: migrations,
	}
}

// Start connects the database, wires routes and serves until ctx is
// canceled.
func (a *App) Start(ctx context.Context) error {
	db, err := database.ConnectAndMigrate(ctx, a.migrations)
	if err != nil {
		return fmt.Errorf("unable to connect to db: %w", err)
	}
	a.db = db
	defer db.Close()

	jwt, err := config.NewJWT()
	if err != nil {
		return err
	}
	cookies, err := config.NewCookies(jwt)
	if err != nil {
		return err
	}
	a.cookies = cookies

	a.loadRoutes()

	server := &http.Server{
		Addr: config.ListenAddr(),
		Handler: middleware.Wrap(
			a.router,
			middleware.Cors(),
			middleware.Auth(a.log, cookies),
			middleware.Logging(a.log),
		),
	}

	a.log.WithField("addr", server.Addr).Info("ready to serve")

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
